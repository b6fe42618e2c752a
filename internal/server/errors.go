package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/provider-matcher/internal/matching"
	"github.com/jonathan/provider-matcher/internal/records"
	"github.com/jonathan/provider-matcher/internal/selection"
)

// ErrInvalidSecret indicates a failed access gate login.
var ErrInvalidSecret = errors.New("invalid access secret")

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Raw     *string           `json:"raw,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErrs validator.ValidationErrors
		notFound       *selection.NotFoundError
		loadErr        *records.LoadError
		serviceErr     *matching.ServiceError
		parseErr       *matching.ParseError
	)
	switch {
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidSecret):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &serviceErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toErrorResponse builds the reply body for err. Internal errors do not
// leak their message.
func toErrorResponse(err error) ErrorResponse {
	var (
		validationErrs validator.ValidationErrors
		notFound       *selection.NotFoundError
		loadErr        *records.LoadError
		serviceErr     *matching.ServiceError
		parseErr       *matching.ParseError
	)
	switch {
	case errors.As(err, &validationErrs):
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Namespace()] = fe.Tag()
		}
		return ErrorResponse{Error: "validation_failed", Message: "request validation failed", Fields: fields}
	case errors.Is(err, ErrInvalidSecret):
		return ErrorResponse{Error: "unauthorized", Message: err.Error()}
	case errors.As(err, &notFound):
		return ErrorResponse{Error: "not_found", Message: notFound.Error()}
	case errors.As(err, &loadErr):
		return ErrorResponse{Error: "data_unavailable", Message: loadErr.Error()}
	case errors.As(err, &serviceErr):
		return ErrorResponse{Error: "llm_unavailable", Message: serviceErr.Error()}
	case errors.As(err, &parseErr):
		raw := parseErr.Raw
		return ErrorResponse{Error: "llm_reply_unparseable", Message: parseErr.Error(), Raw: &raw}
	default:
		return ErrorResponse{Error: "internal_error", Message: "internal server error"}
	}
}
