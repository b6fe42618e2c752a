package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// LocationMode controls how strictly candidates must share the subject's jurisdiction.
type LocationMode string

const (
	// LocationSameOnly keeps same-jurisdiction candidates only.
	LocationSameOnly LocationMode = "Same State Only"
	// LocationPreferSame keeps same-jurisdiction candidates first, then others.
	LocationPreferSame LocationMode = "Prefer Same State"
	// LocationAny places no jurisdiction constraint. This is the default.
	LocationAny LocationMode = "Any Location"
)

// AnyPreference is the sentinel for "no preference" on free-text filter fields.
const AnyPreference = "Any"

// FilterCriteria narrows a candidate pool. Every field is optional and the zero
// value of each field has no effect on selection.
type FilterCriteria struct {
	Experience        string       `json:"experience,omitempty"`
	Location          LocationMode `json:"location,omitempty" validate:"omitempty,oneof='Same State Only' 'Prefer Same State' 'Any Location'"`
	Requirements      string       `json:"requirements,omitempty" validate:"max=500"`
	OnboardingSupport string       `json:"onboarding_support,omitempty" validate:"max=200"`
}

// Validate validates the FilterCriteria using the validator.
func (f *FilterCriteria) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}

// ExperiencePreference returns the experience filter, or "" when unset.
func (f FilterCriteria) ExperiencePreference() string {
	return activePreference(f.Experience)
}

// OnboardingPreference returns the onboarding support preference, or "" when unset.
func (f FilterCriteria) OnboardingPreference() string {
	return activePreference(f.OnboardingSupport)
}

// EffectiveLocation returns the location mode, treating empty as LocationAny.
func (f FilterCriteria) EffectiveLocation() LocationMode {
	if strings.TrimSpace(string(f.Location)) == "" {
		return LocationAny
	}
	return f.Location
}

// Keywords splits the requirements on whitespace and lowercases each token.
func (f FilterCriteria) Keywords() []string {
	return strings.Fields(strings.ToLower(f.Requirements))
}

func activePreference(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, AnyPreference) {
		return ""
	}
	return value
}

// ManualHints carries optional hints for the free-text direction.
type ManualHints struct {
	PersonType string `json:"person_type,omitempty" validate:"omitempty,oneof=doctor nurse"`
	Priorities string `json:"priorities,omitempty" validate:"max=500"`
}

// Validate validates the ManualHints using the validator.
func (h *ManualHints) Validate() error {
	validate := validator.New()
	return validate.Struct(h)
}
