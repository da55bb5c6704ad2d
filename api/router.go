// Package api exposes the driver registry and the allocator over HTTP.
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kilianp07/cabmatch/api/drivers"
	"github.com/kilianp07/cabmatch/api/rides"
	"github.com/kilianp07/cabmatch/api/wire"
	"github.com/kilianp07/cabmatch/core/logger"
	"github.com/kilianp07/cabmatch/core/monitoring"
	"github.com/kilianp07/cabmatch/core/registry"
)

// Deps carries the collaborators the routes need.
type Deps struct {
	Drivers     registry.Store
	Allocator   rides.Allocator
	Fare        rides.FareQuoter
	Logger      logger.Logger
	CORSOrigins []string
	// AccessLog receives Apache combined log lines when set.
	AccessLog io.Writer
}

// recoveryLogger adapts Logger to the handlers.RecoveryHandlerLogger contract.
type recoveryLogger struct{ log logger.Logger }

func (l recoveryLogger) Println(args ...any) {
	err := fmt.Errorf("panic in handler: %s", strings.TrimSpace(fmt.Sprintln(args...)))
	l.log.Errorf("%v", err)
	monitoring.CaptureException(err, "api", nil)
}

// NewRouter builds the HTTP handler with CORS, panic recovery and optional
// access logging applied.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.NopLogger{}
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		wire.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	drivers.NewHandler(d.Drivers, log).Register(r)
	rides.NewHandler(d.Allocator, d.Fare, log).Register(r)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		wire.Error(w, http.StatusNotFound, "not found")
	})

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: log}),
		handlers.PrintRecoveryStack(false),
	)
	h := recovery(cors(r))
	if d.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(d.AccessLog, h)
	}
	return h
}
