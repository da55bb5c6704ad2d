package registry

import (
	"context"
	"errors"

	"github.com/kilianp07/cabmatch/core/logger"
)

// ConsumeHeartbeats applies heartbeats from in to store until ctx is canceled
// or in is closed. Heartbeats for unknown drivers are logged and dropped.
func ConsumeHeartbeats(ctx context.Context, store Store, in <-chan Heartbeat, log logger.Logger) {
	if log == nil {
		log = logger.NopLogger{}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case hb, ok := <-in:
			if !ok {
				return
			}
			if _, err := store.Heartbeat(hb); err != nil {
				if errors.Is(err, ErrNotFound) {
					log.Debugf("heartbeat for unregistered driver %s", hb.DriverID)
					continue
				}
				log.Warnf("heartbeat %s: %v", hb.DriverID, err)
			}
		}
	}
}
