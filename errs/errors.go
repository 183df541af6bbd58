// Package errs defines the typed error taxonomy the engine raises,
// mirroring the wrap-and-annotate style the teacher uses throughout
// engine/engine.go ("%w"-wrapped causes, no bespoke error framework).
package errs

import (
	"errors"
	"fmt"
)

// InitError reports that a Task's Init call failed.
type InitError struct {
	Cause error
}

func (e *InitError) Error() string { return fmt.Sprintf("task init failed: %v", e.Cause) }
func (e *InitError) Unwrap() error { return e.Cause }

// TeardownError reports that a Task's Teardown call failed. It never
// prevents the run from being considered complete; it is surfaced so
// callers can decide how to treat resource-leak risk.
type TeardownError struct {
	Cause error
}

func (e *TeardownError) Error() string { return fmt.Sprintf("task teardown failed: %v", e.Cause) }
func (e *TeardownError) Unwrap() error { return e.Cause }

// ExporterError reports that an Exporter.Export call failed. Exporter
// failures never abort a run; the reporter logs them and does not
// count them.
type ExporterError struct {
	Exporter string
	Cause    error
}

func (e *ExporterError) Error() string {
	return fmt.Sprintf("exporter %q failed: %v", e.Exporter, e.Cause)
}
func (e *ExporterError) Unwrap() error { return e.Cause }

// ShutdownCallbackError aggregates every shutdown callback that
// returned an error during a drain, rather than surfacing only the
// first.
type ShutdownCallbackError struct {
	Suppressed []error
}

func (e *ShutdownCallbackError) Error() string {
	return fmt.Sprintf("%d shutdown callback(s) failed", len(e.Suppressed))
}
func (e *ShutdownCallbackError) Unwrap() []error { return e.Suppressed }

// ConfigError reports that configuration loading or validation
// failed; Cause is typically a *ValidationError aggregating every
// rejected field in one pass.
type ConfigError struct {
	Cause error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration error: %v", e.Cause) }
func (e *ConfigError) Unwrap() error { return e.Cause }

// BackpressureRejectError is returned to a caller submitting work when
// the REJECT backpressure strategy is in effect and the queue is full.
var BackpressureRejectError = errors.New("submission rejected: execution queue is full")

// BackpressureDropError marks an iteration that was silently dropped
// under the DROP backpressure strategy; it is recorded in metrics but
// never returned to a blocking caller.
var BackpressureDropError = errors.New("iteration dropped: execution queue is full")
