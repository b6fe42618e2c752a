package types

import "github.com/go-playground/validator/v10"

// MatchRequest is one match query in any direction.
// Query is the director name substring or nurse ticket; Text is the free-text
// entry for the manual direction.
type MatchRequest struct {
	Direction Direction      `json:"direction" validate:"required,oneof=director nurse manual"`
	Query     string         `json:"query,omitempty" validate:"required_unless=Direction manual,max=200"`
	Text      string         `json:"text,omitempty" validate:"required_if=Direction manual,max=5000"`
	Filters   FilterCriteria `json:"filters"`
	Hints     ManualHints    `json:"hints"`
}

// Validate validates the MatchRequest using the validator.
func (r *MatchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Stats summarizes the loaded pools and the LLM configuration.
type Stats struct {
	Directors        int    `json:"directors"`
	Nurses           int    `json:"nurses"`
	APIKeyConfigured bool   `json:"api_key_configured"`
	Model            string `json:"model,omitempty"`
}
