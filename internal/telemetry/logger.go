// Package telemetry wraps structured logging (logrus) for the assignment
// engine, adding per-passenger trace gating from the run configuration
// (spec.md §7's TRACE_PASSENGER_IDS).
package telemetry

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the run's root logger: info level, full-timestamp text
// output on stdout. Callers may swap the formatter via SetFormatter.
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Tracer emits verbose per-passenger debug lines only for passenger ids
// named in the run configuration, so a production run can be traced without
// drowning every passenger's search in log output.
type Tracer struct {
	log   *logrus.Logger
	watch map[int]bool
}

func NewTracer(log *logrus.Logger, watch map[int]bool) *Tracer {
	return &Tracer{log: log, watch: watch}
}

// Debugf logs at debug level only if passengerID is in the watch set.
func (t *Tracer) Debugf(passengerID int, format string, args ...interface{}) {
	if !t.watch[passengerID] {
		return
	}
	t.log.WithField("passenger_id", passengerID).Debugf(format, args...)
}
