// Package metrics defines the sinks allocation results are recorded to.
// Sinks such as PromSink and InfluxSink live in infra/metrics and register
// themselves by name; NewMetricsSink builds one from configuration and wraps
// several in a MultiSink. Optional recorder interfaces (timeouts, fleet size)
// are detected with type assertions.
package metrics
