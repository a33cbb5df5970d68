package pyramid

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ConfigurationError collects every problem found while validating filter
// options. Problems that can be corrected are logged as warnings instead.
type ConfigurationError struct {
	Err *multierror.Error
}

func (e *ConfigurationError) Error() string {
	return "invalid pyramid configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Problems returns the individual validation failures.
func (e *ConfigurationError) Problems() []error { return e.Err.WrappedErrors() }

func listFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// problems accumulates configuration failures.
type problems struct {
	result *multierror.Error
}

func (p *problems) addf(format string, args ...interface{}) {
	p.result = multierror.Append(p.result, fmt.Errorf(format, args...))
}

func (p *problems) err() error {
	if p.result == nil {
		return nil
	}
	p.result.ErrorFormat = listFormat
	return &ConfigurationError{Err: p.result}
}

// LevelError reports the level at which a run failed. Levels finished
// before the failure are discarded; Completed says how many there were.
type LevelError struct {
	Level     int
	Completed int
	Err       error
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("pyramid level %d failed (%d levels completed): %v", e.Level, e.Completed, e.Err)
}

func (e *LevelError) Unwrap() error { return e.Err }
