// Package selection narrows the director and nurse pools to the bounded,
// ordered candidate set that is serialized into a match prompt.
package selection

import "fmt"

// NotFoundError indicates that a query did not resolve to any record.
type NotFoundError struct {
	Kind  string // "director" or "nurse"
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in database: %q", e.Kind, e.Query)
}
