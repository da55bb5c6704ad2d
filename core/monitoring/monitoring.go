package monitoring

import "time"

// Monitor reports unexpected errors and panics to an external service.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the process-wide monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the process-wide monitor.
func Current() Monitor { return current }

// CaptureException records err tagged with the module that observed it.
func CaptureException(err error, module string, tags map[string]string) {
	if err == nil {
		return
	}
	merged := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		merged[k] = v
	}
	merged["module"] = module
	current.CaptureException(err, merged)
}

// Recover reports a panic in the calling goroutine and re-panics.
func Recover() { current.Recover() }

// Flush waits for buffered reports to be sent.
func Flush(d time.Duration) { current.Flush(d) }
