// Package events defines the events published on the internal event bus.
//
// Available event types:
//   - DriverTimeoutEvent: a driver was moved to the timed out state
package events
