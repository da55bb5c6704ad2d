package drivers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/cabmatch/api/wire"
	"github.com/kilianp07/cabmatch/core/logger"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/core/registry"
)

// Driver is the JSON form of a driver. LastPing is in epoch seconds.
type Driver struct {
	ID        string                `json:"id"`
	Location  model.Coordinate      `json:"location"`
	Category  model.VehicleCategory `json:"category"`
	State     model.DriverState     `json:"state,omitempty"`
	EVRangeKm float64               `json:"ev_range_km"`
	LastPing  wire.Epoch            `json:"last_ping,omitempty"`
}

// ToModel converts the payload, defaulting the state to available.
func (d Driver) ToModel() model.Driver {
	st := d.State
	if st == "" {
		st = model.StateAvailable
	}
	return model.Driver{
		ID:        strings.TrimSpace(d.ID),
		Location:  d.Location,
		Category:  d.Category,
		State:     st,
		EVRangeKm: d.EVRangeKm,
		LastPing:  d.LastPing.Time(time.Time{}),
	}
}

// FromModel converts a registry driver for output.
func FromModel(d model.Driver) Driver {
	return Driver{
		ID:        d.ID,
		Location:  d.Location,
		Category:  d.Category,
		State:     d.State,
		EVRangeKm: d.EVRangeKm,
		LastPing:  wire.FromTime(d.LastPing),
	}
}

type heartbeatBody struct {
	State     model.DriverState `json:"state,omitempty"`
	Timestamp wire.Epoch        `json:"timestamp,omitempty"`
}

// Handler serves the driver registry endpoints.
type Handler struct {
	store  registry.Store
	logger logger.Logger
	now    func() time.Time
}

// NewHandler returns a handler backed by store.
func NewHandler(store registry.Store, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{store: store, logger: log, now: time.Now}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/driver", h.create).Methods(http.MethodPost)
	r.HandleFunc("/drivers", h.create).Methods(http.MethodPost)
	r.HandleFunc("/drivers", h.list).Methods(http.MethodGet)
	r.HandleFunc("/drivers/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/drivers/{id}", h.remove).Methods(http.MethodDelete)
	r.HandleFunc("/drivers/{id}/heartbeat", h.heartbeat).Methods(http.MethodPost)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Driver
	if err := wire.Decode(r, &in); err != nil {
		wire.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	d := in.ToModel()
	if err := d.Validate(); err != nil {
		wire.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if d.LastPing.IsZero() {
		d.LastPing = h.now()
	}
	created := h.store.Register(d)
	h.logger.Debugw("driver registered", map[string]any{
		"driver_id": d.ID,
		"category":  string(d.Category),
		"state":     string(d.State),
		"created":   created,
	})
	wire.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f registry.Filter
	if s := q.Get("state"); s != "" {
		st, err := model.ParseState(s)
		if err != nil {
			wire.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		f.State = st
	}
	if s := q.Get("category"); s != "" {
		c, err := model.ParseCategory(s)
		if err != nil {
			wire.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Category = c
	}
	for _, cell := range q["cell"] {
		for _, c := range strings.Split(cell, ",") {
			if c = strings.TrimSpace(c); c != "" {
				f.Cells = append(f.Cells, strings.ToLower(c))
			}
		}
	}
	drivers := h.store.List(f)
	out := make([]Driver, len(drivers))
	for i, d := range drivers {
		out[i] = FromModel(d)
	}
	wire.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Get(mux.Vars(r)["id"])
	if err != nil {
		h.storeError(w, err)
		return
	}
	wire.JSON(w, http.StatusOK, FromModel(d))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(mux.Vars(r)["id"]); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	var body heartbeatBody
	if r.ContentLength != 0 {
		if err := wire.Decode(r, &body); err != nil {
			wire.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	d, err := h.store.Heartbeat(registry.Heartbeat{
		DriverID: mux.Vars(r)["id"],
		At:       body.Timestamp.Time(h.now()),
		State:    body.State,
	})
	if err != nil {
		h.storeError(w, err)
		return
	}
	wire.JSON(w, http.StatusOK, FromModel(d))
}

func (h *Handler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrNotFound) {
		wire.Error(w, http.StatusNotFound, err.Error())
		return
	}
	wire.Error(w, http.StatusBadRequest, err.Error())
}
