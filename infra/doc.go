// Package infra contains technical adapters such as the MQTT heartbeat
// subscriber, metrics sinks, the SQLite KPI store and Sentry monitoring.
// These packages should depend only on the interfaces defined in the core
// packages.
package infra
