package selection

import (
	"sort"
	"strings"

	"github.com/jonathan/provider-matcher/internal/types"
)

// partitionSize is the per-partition cap when same and other jurisdiction
// candidates are concatenated.
const partitionSize = types.MaxCandidates / 2

// Result is the resolved subject plus the candidates chosen for it.
type Result struct {
	Direction  types.Direction
	Director   *types.Director // subject for DirectionDirector
	Nurse      *types.Nurse    // subject for DirectionNurse
	Candidates types.CandidateSet
}

// ResolveDirector returns the first director, in source order, whose full
// name contains query case-insensitively.
func ResolveDirector(query string, directors []types.Director) (*types.Director, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, &NotFoundError{Kind: "director", Query: query}
	}
	for i := range directors {
		if strings.Contains(strings.ToLower(directors[i].FullName()), needle) {
			d := directors[i]
			return &d, nil
		}
	}
	return nil, &NotFoundError{Kind: "director", Query: query}
}

// ResolveNurse returns the nurse whose ticket equals query case-insensitively,
// or failing that the first nurse whose ticket contains query.
func ResolveNurse(query string, nurses []types.Nurse) (*types.Nurse, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, &NotFoundError{Kind: "nurse", Query: query}
	}

	match := -1
	for i := range nurses {
		ticket := strings.ToLower(nurses[i].Ticket)
		if ticket == "" {
			continue
		}
		if ticket == needle {
			match = i
			break
		}
		if match < 0 && strings.Contains(ticket, needle) {
			match = i
		}
	}
	if match < 0 {
		return nil, &NotFoundError{Kind: "nurse", Query: query}
	}
	n := nurses[match]
	return &n, nil
}

// SelectNurses resolves the director named by query and picks nurse candidates.
//
// Order of operations: experience filter, location step, keyword ranking,
// then the empty-set fallback to the head of the unfiltered pool.
// Keyword ranking reorders candidates and never drops one on its own.
func SelectNurses(query string, directors []types.Director, nurses []types.Nurse, filters types.FilterCriteria) (*Result, error) {
	director, err := ResolveDirector(query, directors)
	if err != nil {
		return nil, err
	}

	same, other := partitionNurses(director.Jurisdiction, nurses)

	if pref := filters.ExperiencePreference(); pref != "" {
		same = filterNurses(same, experienceContains(pref))
		other = filterNurses(other, experienceContains(pref))
	}

	var selected []types.Nurse
	if filters.EffectiveLocation() == types.LocationSameOnly {
		selected = take(same, types.MaxCandidates)
	} else {
		selected = append(take(same, partitionSize), take(other, partitionSize)...)
	}

	if keywords := filters.Keywords(); len(keywords) > 0 {
		selected = take(rankByKeywords(selected, keywords, nurseText), types.MaxCandidates)
	}

	result := &Result{Direction: types.DirectionDirector, Director: director}
	if len(selected) == 0 {
		selected = take(nurses, types.MaxCandidates)
		result.Candidates.FallbackApplied = true
	}
	result.Candidates.Nurses = selected
	return result, nil
}

// SelectDirectors resolves the nurse named by ticket and picks director candidates.
//
// Requirement keywords exclude directors that match none of the tokens,
// unlike SelectNurses where keywords only rank. Onboarding support is not a
// pool filter; the prompt builder renders it.
func SelectDirectors(ticket string, nurses []types.Nurse, directors []types.Director, filters types.FilterCriteria) (*Result, error) {
	nurse, err := ResolveNurse(ticket, nurses)
	if err != nil {
		return nil, err
	}

	var selected []types.Director
	state := strings.TrimSpace(nurse.Jurisdiction)
	switch {
	case state == "" && filters.EffectiveLocation() == types.LocationSameOnly:
		// no jurisdiction to match against
	case state == "":
		selected = take(directors, types.MaxCandidates)
	default:
		same, other := partitionDirectors(state, directors)
		if filters.EffectiveLocation() == types.LocationSameOnly {
			selected = take(same, types.MaxCandidates)
		} else {
			selected = append(take(same, partitionSize), take(other, partitionSize)...)
		}
	}

	if keywords := filters.Keywords(); len(keywords) > 0 {
		selected = excludeUnmatched(selected, keywords, directorText)
	}

	result := &Result{Direction: types.DirectionNurse, Nurse: nurse}
	if len(selected) == 0 {
		selected = take(directors, types.MaxCandidates)
		result.Candidates.FallbackApplied = true
	}
	result.Candidates.Directors = selected
	return result, nil
}

// SelectManual picks candidates for a free-text query without filtering.
// A declared doctor gets nurse candidates, a declared nurse gets director
// candidates, and an undeclared type gets half of each pool.
func SelectManual(hints types.ManualHints, directors []types.Director, nurses []types.Nurse) *Result {
	result := &Result{Direction: types.DirectionManual}
	switch strings.ToLower(strings.TrimSpace(hints.PersonType)) {
	case "doctor":
		result.Candidates.Nurses = take(nurses, types.MaxCandidates)
	case "nurse":
		result.Candidates.Directors = take(directors, types.MaxCandidates)
	default:
		result.Candidates.Directors = take(directors, partitionSize)
		result.Candidates.Nurses = take(nurses, partitionSize)
	}
	return result
}

func partitionNurses(jurisdiction string, nurses []types.Nurse) (same, other []types.Nurse) {
	state := strings.TrimSpace(jurisdiction)
	for _, n := range nurses {
		if state != "" && strings.EqualFold(strings.TrimSpace(n.Jurisdiction), state) {
			same = append(same, n)
		} else {
			other = append(other, n)
		}
	}
	return same, other
}

func partitionDirectors(state string, directors []types.Director) (same, other []types.Director) {
	needle := strings.ToLower(state)
	for _, d := range directors {
		if strings.Contains(strings.ToLower(d.Jurisdiction), needle) {
			same = append(same, d)
		} else {
			other = append(other, d)
		}
	}
	return same, other
}

func experienceContains(pref string) func(types.Nurse) bool {
	needle := strings.ToLower(pref)
	return func(n types.Nurse) bool {
		return n.ExperienceLevel != "" && strings.Contains(strings.ToLower(n.ExperienceLevel), needle)
	}
}

func filterNurses(nurses []types.Nurse, keep func(types.Nurse) bool) []types.Nurse {
	var out []types.Nurse
	for _, n := range nurses {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// take returns a copy of at most n leading elements.
func take[T any](s []T, n int) []T {
	if len(s) < n {
		n = len(s)
	}
	out := make([]T, n)
	copy(out, s[:n])
	return out
}

func nurseText(n types.Nurse) string {
	return strings.Join([]string{n.LicenseType, n.ExperienceLevel, n.Services, n.Notes}, " ")
}

func directorText(d types.Director) string {
	return strings.Join([]string{d.FullName(), d.Email, d.Jurisdiction, d.OnboardedAt}, " ")
}

// KeywordScore counts how many keywords occur as substrings of text, case-insensitively.
func KeywordScore(text string, keywords []string) int {
	haystack := strings.ToLower(text)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			score++
		}
	}
	return score
}

// rankByKeywords sorts records by descending keyword score. Ties keep their
// prior relative order.
func rankByKeywords[T any](records []T, keywords []string, text func(T) string) []T {
	type scored struct {
		record T
		score  int
	}
	ranked := make([]scored, len(records))
	for i, r := range records {
		ranked[i] = scored{record: r, score: KeywordScore(text(r), keywords)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]T, len(ranked))
	for i, s := range ranked {
		out[i] = s.record
	}
	return out
}

func excludeUnmatched[T any](records []T, keywords []string, text func(T) string) []T {
	var out []T
	for _, r := range records {
		if KeywordScore(text(r), keywords) > 0 {
			out = append(out, r)
		}
	}
	return out
}
