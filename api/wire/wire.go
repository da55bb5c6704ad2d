// Package wire holds the JSON helpers shared by the HTTP handlers.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Epoch is a timestamp in fractional seconds since the Unix epoch. Zero
// means unset.
type Epoch float64

// FromTime converts t, mapping the zero time to 0.
func FromTime(t time.Time) Epoch {
	if t.IsZero() {
		return 0
	}
	return Epoch(float64(t.UnixNano()) / 1e9)
}

// Time converts e, or returns fallback when e is unset.
func (e Epoch) Time(fallback time.Time) time.Time {
	if e == 0 {
		return fallback
	}
	sec, frac := math.Modf(float64(e))
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// Decode reads a single JSON document into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}
