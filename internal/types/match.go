package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Direction identifies which way a match request runs.
type Direction string

const (
	// DirectionDirector matches a director against nurses.
	DirectionDirector Direction = "director"
	// DirectionNurse matches a nurse against directors.
	DirectionNurse Direction = "nurse"
	// DirectionManual matches free text; the LLM classifies the person.
	DirectionManual Direction = "manual"
)

// MaxCandidates bounds the number of records serialized into one prompt.
const MaxCandidates = 20

// Person types a manual reply may classify the submitter as.
const (
	PersonDoctor = "doctor"
	PersonNurse  = "nurse"
)

// PersonTypes lists the person_type values a manual reply may use. The manual
// response schema carries the same enum.
var PersonTypes = []string{PersonDoctor, PersonNurse}

// DefaultPersonType labels a manual result when the reply omits person_type.
const DefaultPersonType = "professional"

// CandidateSet is the ordered, bounded list of records sent in one prompt.
// Only the slice matching the direction's opposite collection is populated,
// except for the manual direction which may carry both.
type CandidateSet struct {
	Directors       []Director `json:"directors,omitempty"`
	Nurses          []Nurse    `json:"nurses,omitempty"`
	FallbackApplied bool       `json:"fallback_applied"`
}

// Len returns the total number of candidates.
func (c CandidateSet) Len() int {
	return len(c.Directors) + len(c.Nurses)
}

// MatchEntry is one ranked match returned by the LLM.
// Missing lists the contract fields absent from the reply entry.
type MatchEntry struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	MatchScore float64  `json:"match_score"`
	Reasoning  string   `json:"reasoning"`
	Missing    []string `json:"missing,omitempty"`
}

// UnmarshalJSON decodes an entry leniently: values are coerced to text and
// match_score accepts either a number or a numeric string.
func (e *MatchEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = MatchEntry{}
	var ok bool
	if e.Name, ok = textField(fields, "name"); !ok {
		e.Missing = append(e.Missing, "name")
	}
	if e.Email, ok = textField(fields, "email"); !ok {
		e.Missing = append(e.Missing, "email")
	}
	if e.MatchScore, ok = scoreField(fields, "match_score"); !ok {
		e.Missing = append(e.Missing, "match_score")
	}
	if e.Reasoning, ok = textField(fields, "reasoning"); !ok {
		e.Missing = append(e.Missing, "reasoning")
	}
	return nil
}

func textField(fields map[string]any, key string) (string, bool) {
	value, exists := fields[key]
	if !exists || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), true
	}
}

func scoreField(fields map[string]any, key string) (float64, bool) {
	value, exists := fields[key]
	if !exists || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		score, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "/10")), 64)
		if err != nil {
			return 0, false
		}
		return score, true
	default:
		return 0, false
	}
}

// MatchResult is the interpreted LLM reply.
type MatchResult struct {
	PersonType string       `json:"person_type,omitempty"`
	Matches    []MatchEntry `json:"matches"`
	Warnings   []string     `json:"warnings,omitempty"`
	Raw        string       `json:"raw,omitempty"`
}

// MatchResponse is the JSON contract the LLM is asked to return. The prompt
// example is marshalled from this type and replies are decoded into it.
type MatchResponse struct {
	PersonType *string      `json:"person_type,omitempty"`
	Matches    []MatchEntry `json:"matches"`
}

// ExampleResponse returns the schema example embedded in prompts for a direction.
func ExampleResponse(dir Direction) MatchResponse {
	entry := MatchEntry{
		Name:       "Nurse Name",
		Email:      "nurse@email.com",
		MatchScore: 8.5,
		Reasoning:  "Detailed explanation of why this is a good match",
	}
	switch dir {
	case DirectionNurse:
		entry.Name = "Dr. Name"
		entry.Email = "doctor@email.com"
	case DirectionManual:
		entry.Name = "Name"
		entry.Email = "email@example.com"
	}

	resp := MatchResponse{Matches: []MatchEntry{entry}}
	if dir == DirectionManual {
		personType := PersonDoctor
		resp.PersonType = &personType
	}
	return resp
}
