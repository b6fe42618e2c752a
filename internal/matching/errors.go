// Package matching turns a selected candidate set into an LLM prompt, sends it
// and interprets the reply.
package matching

import "fmt"

// ServiceError is returned when the LLM call fails (network, auth, quota,
// timeout or a missing credential). The same request can be retried.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// ParseError is returned when the LLM reply is not the expected JSON object.
// Raw holds the reply exactly as received.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to parse LLM reply: %v", e.Cause)
	}
	return "failed to parse LLM reply"
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
