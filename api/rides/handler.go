package rides

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kilianp07/cabmatch/api/wire"
	"github.com/kilianp07/cabmatch/core/logger"
	"github.com/kilianp07/cabmatch/core/model"
)

// Allocator matches a request against the driver pool.
type Allocator interface {
	Allocate(req model.RideRequest) (model.RideEstimate, bool)
}

// FareQuoter prices a ride leg.
type FareQuoter interface {
	Calculate(distanceKm, surge float64) float64
}

// Request is the JSON form of a ride request. A missing surge multiplier
// means 1.0, a missing timestamp means now and a missing id is generated.
type Request struct {
	ID              string                `json:"id"`
	Pickup          model.Coordinate      `json:"pickup"`
	Dropoff         model.Coordinate      `json:"dropoff"`
	Category        model.VehicleCategory `json:"category"`
	SurgeMultiplier *float64              `json:"surge_multiplier,omitempty"`
	Timestamp       wire.Epoch            `json:"timestamp,omitempty"`
}

// ToModel resolves defaults against now.
func (r Request) ToModel(now time.Time) model.RideRequest {
	surge := model.DefaultSurgeMultiplier
	if r.SurgeMultiplier != nil {
		surge = *r.SurgeMultiplier
	}
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return model.RideRequest{
		ID:              id,
		Pickup:          r.Pickup,
		Dropoff:         r.Dropoff,
		Category:        r.Category,
		SurgeMultiplier: surge,
		Timestamp:       r.Timestamp.Time(now),
	}
}

// Estimate is the JSON form of a successful allocation.
type Estimate struct {
	Request    Request `json:"request"`
	DriverID   string  `json:"driver_id"`
	DistanceKm float64 `json:"distance_km"`
	PickupKm   float64 `json:"pickup_km"`
	EtaMin     float64 `json:"eta_min"`
	Fare       float64 `json:"fare"`
}

// FromEstimate converts a core estimate for output.
func FromEstimate(e model.RideEstimate) Estimate {
	surge := e.Request.SurgeMultiplier
	return Estimate{
		Request: Request{
			ID:              e.Request.ID,
			Pickup:          e.Request.Pickup,
			Dropoff:         e.Request.Dropoff,
			Category:        e.Request.Category,
			SurgeMultiplier: &surge,
			Timestamp:       wire.FromTime(e.Request.Timestamp),
		},
		DriverID:   e.DriverID,
		DistanceKm: e.DistanceKm,
		PickupKm:   e.PickupKm,
		EtaMin:     e.EtaMin,
		Fare:       e.Fare,
	}
}

// Handler serves allocation and fare quotes.
type Handler struct {
	alloc  Allocator
	fare   FareQuoter
	logger logger.Logger
	now    func() time.Time
}

// NewHandler returns a handler using alloc for matches and fare for quotes.
func NewHandler(alloc Allocator, fare FareQuoter, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{alloc: alloc, fare: fare, logger: log, now: time.Now}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/request", h.allocate).Methods(http.MethodPost)
	r.HandleFunc("/rides", h.allocate).Methods(http.MethodPost)
	r.HandleFunc("/fare", h.quote).Methods(http.MethodGet)
}

// allocate answers 200 with the estimate, or 200 with null when no driver
// qualifies.
func (h *Handler) allocate(w http.ResponseWriter, r *http.Request) {
	var in Request
	if err := wire.Decode(r, &in); err != nil {
		wire.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req := in.ToModel(h.now())
	if err := req.Validate(); err != nil {
		wire.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	est, ok := h.alloc.Allocate(req)
	if !ok {
		h.logger.Infof("no driver for request %s (%s)", req.ID, req.Category)
		wire.JSON(w, http.StatusOK, nil)
		return
	}
	wire.JSON(w, http.StatusOK, FromEstimate(est))
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dist, err := strconv.ParseFloat(q.Get("distance_km"), 64)
	if err != nil || dist < 0 {
		wire.Error(w, http.StatusBadRequest, "distance_km must be a non-negative number")
		return
	}
	surge := model.DefaultSurgeMultiplier
	if s := q.Get("surge"); s != "" {
		if surge, err = strconv.ParseFloat(s, 64); err != nil {
			wire.Error(w, http.StatusBadRequest, "surge must be a number")
			return
		}
	}
	wire.JSON(w, http.StatusOK, map[string]float64{
		"distance_km": dist,
		"surge":       surge,
		"fare":        h.fare.Calculate(dist, surge),
	})
}
