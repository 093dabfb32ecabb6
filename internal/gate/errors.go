package gate

import (
	"fmt"

	"github.com/sprite-ai/diffgate/internal/model"
)

// Process exit codes.
const (
	ExitPassed = 0
	ExitFailed = 1
	ExitError  = 2
)

// ExitCoder is implemented by errors that choose the process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ConfigError means the run could not start: unreadable rules, a bad
// option, no repository. No report is produced.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "configuration: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }
func (e *ConfigError) ExitCode() int { return ExitError }

// SerializationError means the report could not be written.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("writing report %s: %v", e.Path, e.Err)
}
func (e *SerializationError) Unwrap() error { return e.Err }
func (e *SerializationError) ExitCode() int { return ExitError }

// GateFailedError is returned after a complete run whose verdict is a
// failure. The report has been written.
type GateFailedError struct {
	Summary model.Summary
}

func (e *GateFailedError) Error() string {
	return fmt.Sprintf("gate failed: %d error(s), %d warning(s)", e.Summary.Errors, e.Summary.Warnings)
}
func (e *GateFailedError) ExitCode() int { return ExitFailed }
