package matching

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonathan/provider-matcher/internal/prompts"
	"github.com/jonathan/provider-matcher/internal/types"
)

const promptFile = "matching.json"

// DefaultOrganization is the staffing organization named in the persona.
const DefaultOrganization = "Moxie"

// Field placeholders for absent source values.
const (
	placeholderUnknown = "Unknown"
	placeholderEmail   = "No email"
	placeholderNone    = "None specified"
)

// PromptBuilder renders the embedded templates for each match direction.
type PromptBuilder struct {
	Organization string
}

// NewPromptBuilder returns a builder naming organization in the persona.
func NewPromptBuilder(organization string) *PromptBuilder {
	if strings.TrimSpace(organization) == "" {
		organization = DefaultOrganization
	}
	return &PromptBuilder{Organization: organization}
}

// SystemPrompt returns the fixed persona sent as the system message.
func (b *PromptBuilder) SystemPrompt() string {
	return prompts.Format(prompts.MustGet(promptFile, "system-persona"), map[string]string{
		"Organization": b.organization(),
	})
}

// DirectorPrompt builds the prompt asking for nurse matches for director.
func (b *PromptBuilder) DirectorPrompt(director types.Director, candidates types.CandidateSet, filters types.FilterCriteria) string {
	var prefs []string
	if exp := filters.ExperiencePreference(); exp != "" {
		prefs = append(prefs, sentence("filter-experience", exp))
	}
	prefs = appendLocation(prefs, filters.EffectiveLocation(), "nurses", "doctor")
	if req := strings.TrimSpace(filters.Requirements); req != "" {
		prefs = append(prefs, sentence("filter-requirements", req))
	}

	return prompts.Format(prompts.MustGet(promptFile, "director-to-nurses"), map[string]string{
		"Organization":   b.organization(),
		"Name":           orPlaceholder(director.FullName(), placeholderUnknown),
		"Email":          orPlaceholder(director.Email, placeholderEmail),
		"State":          orPlaceholder(director.Jurisdiction, placeholderUnknown),
		"Onboarded":      orPlaceholder(director.OnboardedAt, placeholderUnknown),
		"Preferences":    preferenceBlock(prefs),
		"Criteria":       prompts.MustGet(promptFile, "ranking-criteria"),
		"Candidates":     candidateBlock(candidates, nurseBlocks(candidates.Nurses)),
		"ResponseFormat": responseFormat(types.DirectionDirector),
	})
}

// NursePrompt builds the prompt asking for director matches for nurse.
func (b *PromptBuilder) NursePrompt(nurse types.Nurse, candidates types.CandidateSet, filters types.FilterCriteria) string {
	var prefs []string
	prefs = appendLocation(prefs, filters.EffectiveLocation(), "medical directors", "nurse")
	if req := strings.TrimSpace(filters.Requirements); req != "" {
		prefs = append(prefs, sentence("filter-requirements", req))
	}
	if support := filters.OnboardingPreference(); support != "" {
		prefs = append(prefs, sentence("filter-onboarding", support))
	}

	return prompts.Format(prompts.MustGet(promptFile, "nurse-to-directors"), map[string]string{
		"Organization":   b.organization(),
		"Name":           orPlaceholder(nurse.Ticket, placeholderUnknown),
		"Email":          orPlaceholder(nurse.Email, placeholderEmail),
		"License":        orPlaceholder(nurse.LicenseType, placeholderUnknown),
		"Experience":     orPlaceholder(nurse.ExperienceLevel, placeholderUnknown),
		"State":          orPlaceholder(nurse.Jurisdiction, placeholderUnknown),
		"Services":       orPlaceholder(nurse.Services, placeholderNone),
		"Notes":          orPlaceholder(nurse.Notes, placeholderNone),
		"Preferences":    preferenceBlock(prefs),
		"Criteria":       prompts.MustGet(promptFile, "ranking-criteria"),
		"Candidates":     candidateBlock(candidates, directorBlocks(candidates.Directors)),
		"ResponseFormat": responseFormat(types.DirectionNurse),
	})
}

// ManualPrompt builds the free-text prompt. The input is passed through
// verbatim and the LLM classifies the person.
func (b *PromptBuilder) ManualPrompt(input string, hints types.ManualHints, candidates types.CandidateSet) string {
	var prefs []string
	if personType := strings.TrimSpace(hints.PersonType); personType != "" {
		prefs = append(prefs, sentence("manual-person-type", personType))
	}
	if priorities := strings.TrimSpace(hints.Priorities); priorities != "" {
		prefs = append(prefs, sentence("manual-priorities", priorities))
	}

	return prompts.Format(prompts.MustGet(promptFile, "manual-entry"), map[string]string{
		"Organization":       b.organization(),
		"Input":              input,
		"Preferences":        preferenceBlock(prefs),
		"Criteria":           prompts.MustGet(promptFile, "ranking-criteria"),
		"DirectorCandidates": directorBlocks(candidates.Directors),
		"NurseCandidates":    nurseBlocks(candidates.Nurses),
		"PersonTypes":        quotedChoices(types.PersonTypes),
		"ResponseFormat":     responseFormat(types.DirectionManual),
	})
}

func (b *PromptBuilder) organization() string {
	if b == nil || strings.TrimSpace(b.Organization) == "" {
		return DefaultOrganization
	}
	return b.Organization
}

func appendLocation(prefs []string, mode types.LocationMode, candidates, subject string) []string {
	var key string
	switch mode {
	case types.LocationSameOnly:
		key = "filter-location-same-only"
	case types.LocationPreferSame:
		key = "filter-location-prefer-same"
	default:
		return prefs
	}
	return append(prefs, prompts.Format(prompts.MustGet(promptFile, key), map[string]string{
		"Candidates": candidates,
		"Subject":    subject,
	}))
}

func sentence(key, value string) string {
	return prompts.Format(prompts.MustGet(promptFile, key), map[string]string{"Value": value})
}

func preferenceBlock(prefs []string) string {
	if len(prefs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nMatching Preferences:\n")
	for _, p := range prefs {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

func candidateBlock(candidates types.CandidateSet, blocks string) string {
	if !candidates.FallbackApplied {
		return blocks
	}
	return prompts.MustGet(promptFile, "fallback-note") + "\n\n" + blocks
}

func nurseBlocks(nurses []types.Nurse) string {
	if len(nurses) == 0 {
		return prompts.MustGet(promptFile, "no-candidates")
	}
	tmpl := prompts.MustGet(promptFile, "nurse-candidate")
	blocks := make([]string, 0, len(nurses))
	for _, n := range nurses {
		blocks = append(blocks, prompts.Format(tmpl, map[string]string{
			"Name":       orPlaceholder(n.Ticket, placeholderUnknown),
			"Email":      orPlaceholder(n.Email, placeholderEmail),
			"License":    orPlaceholder(n.LicenseType, placeholderUnknown),
			"Experience": orPlaceholder(n.ExperienceLevel, placeholderUnknown),
			"State":      orPlaceholder(n.Jurisdiction, placeholderUnknown),
			"Services":   orPlaceholder(n.Services, placeholderNone),
			"Notes":      orPlaceholder(n.Notes, placeholderNone),
		}))
	}
	return strings.Join(blocks, "\n")
}

func directorBlocks(directors []types.Director) string {
	if len(directors) == 0 {
		return prompts.MustGet(promptFile, "no-candidates")
	}
	tmpl := prompts.MustGet(promptFile, "director-candidate")
	blocks := make([]string, 0, len(directors))
	for _, d := range directors {
		blocks = append(blocks, prompts.Format(tmpl, map[string]string{
			"Name":      orPlaceholder(d.FullName(), placeholderUnknown),
			"Email":     orPlaceholder(d.Email, placeholderEmail),
			"State":     orPlaceholder(d.Jurisdiction, placeholderUnknown),
			"Onboarded": orPlaceholder(d.OnboardedAt, placeholderUnknown),
		}))
	}
	return strings.Join(blocks, "\n")
}

// responseFormat embeds the marshalled example of the same type the reply
// is decoded into.
func responseFormat(dir types.Direction) string {
	example, err := json.MarshalIndent(types.ExampleResponse(dir), "", "  ")
	if err != nil {
		panic("matching: example response is not serializable: " + err.Error())
	}
	return prompts.Format(prompts.MustGet(promptFile, "response-format"), map[string]string{
		"Schema": string(example),
	})
}

// orPlaceholder returns value, or placeholder when value is blank or one of
// the null markers spreadsheet exports leave behind.
func orPlaceholder(value, placeholder string) string {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "nan", "null", "none", "<nil>":
		return placeholder
	}
	return value
}

// quotedChoices renders values as "a" or "b".
func quotedChoices(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " or ")
}
