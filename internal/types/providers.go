// Package types provides type definitions for the records, filters and match
// results shared across the provider-matcher packages.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
)

// OnboardedStage is the only lifecycle stage that admits a director into the pool.
const OnboardedStage = "Medical Director Onboarded"

// EligibleLicenseMarkers are the license substrings that admit a nurse into the pool.
var EligibleLicenseMarkers = []string{"RN", "NP"}

// Director is a medical director row from the directors source.
type Director struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email,omitempty"`
	Jurisdiction   string `json:"jurisdiction,omitempty"`
	OnboardedAt    string `json:"onboarded_at,omitempty"`
	LifecycleStage string `json:"lifecycle_stage"`
}

// FullName returns "first last" with surrounding whitespace removed.
func (d Director) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
}

// Eligible reports whether the director is fully onboarded.
func (d Director) Eligible() bool {
	return d.LifecycleStage == OnboardedStage
}

// Nurse is a nurse row from the nurses source. Empty fields are absent in the source.
type Nurse struct {
	Ticket          string `json:"ticket"`
	Email           string `json:"email,omitempty"`
	LicenseType     string `json:"license_type"`
	ExperienceLevel string `json:"experience_level,omitempty"`
	Jurisdiction    string `json:"jurisdiction,omitempty"`
	Services        string `json:"services,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Eligible reports whether the nurse holds one of the recognized license types.
// The check is a case-sensitive substring match.
func (n Nurse) Eligible() bool {
	if strings.TrimSpace(n.LicenseType) == "" {
		return false
	}
	for _, marker := range EligibleLicenseMarkers {
		if strings.Contains(n.LicenseType, marker) {
			return true
		}
	}
	return false
}

// Dataset is the eligible director and nurse pools loaded for one session.
type Dataset struct {
	Directors []Director `json:"directors"`
	Nurses    []Nurse    `json:"nurses"`
}
