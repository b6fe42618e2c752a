package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AccessRequest is the shared-secret login request for the access gate.
type AccessRequest struct {
	Secret string `json:"secret" validate:"required,min=1"`
}

// AccessResponse carries the session token issued after a successful login.
type AccessResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate validates the AccessRequest using the validator.
func (r *AccessRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
