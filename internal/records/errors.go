// Package records loads the director and nurse pools from tabular sources.
package records

import "fmt"

// LoadError represents a source that could not be read or decoded.
// A LoadError is fatal for the session: no partial dataset is returned.
type LoadError struct {
	Source  string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error: %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("load error: %s: %s", e.Source, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
