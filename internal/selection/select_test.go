package selection

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jonathan/provider-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioDirectors() []types.Director {
	return []types.Director{
		{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Jurisdiction: "CA", LifecycleStage: types.OnboardedStage},
	}
}

func scenarioNurses() []types.Nurse {
	return []types.Nurse{
		{Ticket: "T1", LicenseType: "RN", Jurisdiction: "CA"},
		{Ticket: "T2", LicenseType: "NP", Jurisdiction: "NY", Notes: "Fluent in Spanish"},
	}
}

func ticketsOf(nurses []types.Nurse) []string {
	out := make([]string, 0, len(nurses))
	for _, n := range nurses {
		out = append(out, n.Ticket)
	}
	return out
}

func namesOf(directors []types.Director) []string {
	out := make([]string, 0, len(directors))
	for _, d := range directors {
		out = append(out, d.FullName())
	}
	return out
}

func TestSelectNurses_SameStateFirst(t *testing.T) {
	result, err := SelectNurses("Jane", scenarioDirectors(), scenarioNurses(), types.FilterCriteria{})
	require.NoError(t, err)

	assert.Equal(t, types.DirectionDirector, result.Direction)
	require.NotNil(t, result.Director)
	assert.Equal(t, "Jane Doe", result.Director.FullName())
	assert.Equal(t, []string{"T1", "T2"}, ticketsOf(result.Candidates.Nurses))
	assert.False(t, result.Candidates.FallbackApplied)
}

func TestSelectNurses_SameStateOnly(t *testing.T) {
	filters := types.FilterCriteria{Location: types.LocationSameOnly}
	result, err := SelectNurses("Jane", scenarioDirectors(), scenarioNurses(), filters)
	require.NoError(t, err)

	assert.Equal(t, []string{"T1"}, ticketsOf(result.Candidates.Nurses))
}

func TestSelectNurses_KeywordsRankAheadWithoutDropping(t *testing.T) {
	filters := types.FilterCriteria{Requirements: "spanish"}
	result, err := SelectNurses("Jane", scenarioDirectors(), scenarioNurses(), filters)
	require.NoError(t, err)

	assert.Equal(t, []string{"T2", "T1"}, ticketsOf(result.Candidates.Nurses))
	assert.False(t, result.Candidates.FallbackApplied)
}

func TestSelectNurses_DefaultFiltersAreIdentity(t *testing.T) {
	base, err := SelectNurses("jane", scenarioDirectors(), scenarioNurses(), types.FilterCriteria{})
	require.NoError(t, err)

	explicit, err := SelectNurses("jane", scenarioDirectors(), scenarioNurses(), types.FilterCriteria{
		Experience:   "Any",
		Location:     types.LocationAny,
		Requirements: "",
	})
	require.NoError(t, err)

	assert.Equal(t, base, explicit)
}

func TestSelectNurses_NotFound(t *testing.T) {
	for _, query := range []string{"Nobody", "", "   "} {
		t.Run(fmt.Sprintf("query %q", query), func(t *testing.T) {
			result, err := SelectNurses(query, scenarioDirectors(), scenarioNurses(), types.FilterCriteria{})
			require.Error(t, err)
			assert.Nil(t, result)

			var notFound *NotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Equal(t, "director", notFound.Kind)
		})
	}
}

func TestSelectNurses_FirstMatchInSourceOrder(t *testing.T) {
	directors := []types.Director{
		{FirstName: "Sam", LastName: "Lee", Jurisdiction: "WA"},
		{FirstName: "Samantha", LastName: "Cruz", Jurisdiction: "CA"},
	}

	result, err := SelectNurses("SAM", directors, scenarioNurses(), types.FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", result.Director.FullName())
}

func TestSelectNurses_ExperienceFilter(t *testing.T) {
	nurses := []types.Nurse{
		{Ticket: "A", LicenseType: "RN", ExperienceLevel: "New Grad", Jurisdiction: "CA"},
		{Ticket: "B", LicenseType: "RN", ExperienceLevel: "5+ years", Jurisdiction: "CA"},
		{Ticket: "C", LicenseType: "NP", Jurisdiction: "NY"},
		{Ticket: "D", LicenseType: "NP", ExperienceLevel: "new grad", Jurisdiction: "NY"},
	}

	result, err := SelectNurses("Jane", scenarioDirectors(), nurses, types.FilterCriteria{Experience: "New Grad"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D"}, ticketsOf(result.Candidates.Nurses))
}

func TestSelectNurses_FallbackWhenFiltersMatchNothing(t *testing.T) {
	filters := types.FilterCriteria{Experience: "Veteran", Location: types.LocationSameOnly}
	result, err := SelectNurses("Jane", scenarioDirectors(), scenarioNurses(), filters)
	require.NoError(t, err)

	assert.True(t, result.Candidates.FallbackApplied)
	assert.Equal(t, []string{"T1", "T2"}, ticketsOf(result.Candidates.Nurses))
}

func TestSelectNurses_DirectorWithoutJurisdiction(t *testing.T) {
	directors := []types.Director{{FirstName: "Jane", LastName: "Doe"}}
	nurses := []types.Nurse{
		{Ticket: "T1", LicenseType: "RN"},
		{Ticket: "T2", LicenseType: "RN", Jurisdiction: "CA"},
	}

	result, err := SelectNurses("Jane", directors, nurses, types.FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, ticketsOf(result.Candidates.Nurses))

	strict, err := SelectNurses("Jane", directors, nurses, types.FilterCriteria{Location: types.LocationSameOnly})
	require.NoError(t, err)
	assert.True(t, strict.Candidates.FallbackApplied)
}

func bigNursePool(same, other int) []types.Nurse {
	var nurses []types.Nurse
	for i := 0; i < other; i++ {
		nurses = append(nurses, types.Nurse{Ticket: fmt.Sprintf("O%02d", i), LicenseType: "RN", Jurisdiction: "NY"})
	}
	for i := 0; i < same; i++ {
		nurses = append(nurses, types.Nurse{Ticket: fmt.Sprintf("S%02d", i), LicenseType: "NP", Jurisdiction: "CA"})
	}
	return nurses
}

func TestSelectNurses_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		same      int
		other     int
		filters   types.FilterCriteria
		wantLen   int
		wantFirst string
	}{
		{name: "ten plus ten", same: 30, other: 30, wantLen: 20, wantFirst: "S00"},
		{name: "few same", same: 3, other: 30, wantLen: 13, wantFirst: "S00"},
		{name: "same only capped at twenty", same: 30, other: 30, filters: types.FilterCriteria{Location: types.LocationSameOnly}, wantLen: 20, wantFirst: "S00"},
		{name: "prefer same", same: 2, other: 2, filters: types.FilterCriteria{Location: types.LocationPreferSame}, wantLen: 4, wantFirst: "S00"},
		{name: "no same state", same: 0, other: 5, wantLen: 5, wantFirst: "O00"},
		{name: "keywords cap", same: 30, other: 30, filters: types.FilterCriteria{Requirements: "np"}, wantLen: 20, wantFirst: "S00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SelectNurses("Jane", scenarioDirectors(), bigNursePool(tt.same, tt.other), tt.filters)
			require.NoError(t, err)

			nurses := result.Candidates.Nurses
			assert.Len(t, nurses, tt.wantLen)
			assert.LessOrEqual(t, len(nurses), types.MaxCandidates)
			assert.GreaterOrEqual(t, len(nurses), 1)
			assert.Equal(t, tt.wantFirst, nurses[0].Ticket)
		})
	}
}

func TestSelectNurses_DoesNotMutatePool(t *testing.T) {
	pool := bigNursePool(15, 15)
	snapshot := append([]types.Nurse(nil), pool...)

	_, err := SelectNurses("Jane", scenarioDirectors(), pool, types.FilterCriteria{Requirements: "np rn"})
	require.NoError(t, err)
	assert.Equal(t, snapshot, pool)
}

func TestRankByKeywords_Stable(t *testing.T) {
	nurses := []types.Nurse{
		{Ticket: "A", Services: "Botox"},
		{Ticket: "B", Services: "Laser"},
		{Ticket: "C", Services: "Botox, Fillers"},
		{Ticket: "D", Services: "Laser"},
		{Ticket: "E", Services: "Fillers"},
	}

	ranked := rankByKeywords(nurses, []string{"botox", "fillers"}, nurseText)
	assert.Equal(t, []string{"C", "A", "E", "B", "D"}, ticketsOf(ranked))
}

func TestKeywordScore(t *testing.T) {
	assert.Equal(t, 2, KeywordScore("RN New Grad Botox Weekend", []string{"botox", "weekend", "laser"}))
	assert.Equal(t, 0, KeywordScore("", []string{"botox"}))
	assert.Equal(t, 0, KeywordScore("anything", nil))
}

func TestResolveNurse(t *testing.T) {
	nurses := []types.Nurse{
		{Ticket: "T10"},
		{Ticket: ""},
		{Ticket: "T1"},
	}

	exact, err := ResolveNurse("t1", nurses)
	require.NoError(t, err)
	assert.Equal(t, "T1", exact.Ticket)

	partial, err := ResolveNurse("10", nurses)
	require.NoError(t, err)
	assert.Equal(t, "T10", partial.Ticket)

	_, err = ResolveNurse("T99", nurses)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nurse", notFound.Kind)
	assert.Equal(t, `nurse not found in database: "T99"`, err.Error())
}

func reverseDirectors() []types.Director {
	return []types.Director{
		{FirstName: "Ann", LastName: "West", Email: "ann@example.com", Jurisdiction: "NY"},
		{FirstName: "Bob", LastName: "Ray", Email: "bob@example.com", Jurisdiction: "CA, NV"},
		{FirstName: "Cal", LastName: "Fox", Jurisdiction: "CA", OnboardedAt: "2024-05-01"},
	}
}

func TestSelectDirectors_SameStateFirst(t *testing.T) {
	result, err := SelectDirectors("T1", scenarioNurses(), reverseDirectors(), types.FilterCriteria{})
	require.NoError(t, err)

	assert.Equal(t, types.DirectionNurse, result.Direction)
	require.NotNil(t, result.Nurse)
	assert.Equal(t, "T1", result.Nurse.Ticket)
	assert.Equal(t, []string{"Bob Ray", "Cal Fox", "Ann West"}, namesOf(result.Candidates.Directors))
}

func TestSelectDirectors_SameStateOnly(t *testing.T) {
	filters := types.FilterCriteria{Location: types.LocationSameOnly}
	result, err := SelectDirectors("T2", scenarioNurses(), reverseDirectors(), filters)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ann West"}, namesOf(result.Candidates.Directors))
}

func TestSelectDirectors_KeywordsExclude(t *testing.T) {
	filters := types.FilterCriteria{Requirements: "bob@example.com"}
	result, err := SelectDirectors("T1", scenarioNurses(), reverseDirectors(), filters)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bob Ray"}, namesOf(result.Candidates.Directors))
	assert.False(t, result.Candidates.FallbackApplied)
}

func TestSelectDirectors_KeywordsMatchNothingFallsBack(t *testing.T) {
	filters := types.FilterCriteria{Requirements: "dermatology"}
	result, err := SelectDirectors("T1", scenarioNurses(), reverseDirectors(), filters)
	require.NoError(t, err)

	assert.True(t, result.Candidates.FallbackApplied)
	assert.Equal(t, []string{"Ann West", "Bob Ray", "Cal Fox"}, namesOf(result.Candidates.Directors))
}

func TestSelectDirectors_OnboardingSupportIsNotAFilter(t *testing.T) {
	base, err := SelectDirectors("T1", scenarioNurses(), reverseDirectors(), types.FilterCriteria{})
	require.NoError(t, err)
	withSupport, err := SelectDirectors("T1", scenarioNurses(), reverseDirectors(), types.FilterCriteria{OnboardingSupport: "Needs hands-on onboarding"})
	require.NoError(t, err)

	assert.Equal(t, base.Candidates, withSupport.Candidates)
}

func TestSelectDirectors_NurseWithoutJurisdiction(t *testing.T) {
	nurses := []types.Nurse{{Ticket: "T9", LicenseType: "RN"}}

	result, err := SelectDirectors("T9", nurses, reverseDirectors(), types.FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann West", "Bob Ray", "Cal Fox"}, namesOf(result.Candidates.Directors))
	assert.False(t, result.Candidates.FallbackApplied)

	strict, err := SelectDirectors("T9", nurses, reverseDirectors(), types.FilterCriteria{Location: types.LocationSameOnly})
	require.NoError(t, err)
	assert.True(t, strict.Candidates.FallbackApplied)
	assert.Len(t, strict.Candidates.Directors, 3)
}

func TestSelectDirectors_NotFound(t *testing.T) {
	_, err := SelectDirectors("missing", scenarioNurses(), reverseDirectors(), types.FilterCriteria{})
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestSelectManual(t *testing.T) {
	directors := reverseDirectors()
	nurses := bigNursePool(15, 15)

	doctor := SelectManual(types.ManualHints{PersonType: "doctor"}, directors, nurses)
	assert.Empty(t, doctor.Candidates.Directors)
	assert.Len(t, doctor.Candidates.Nurses, types.MaxCandidates)

	nurse := SelectManual(types.ManualHints{PersonType: "Nurse"}, directors, nurses)
	assert.Len(t, nurse.Candidates.Directors, 3)
	assert.Empty(t, nurse.Candidates.Nurses)

	unknown := SelectManual(types.ManualHints{}, directors, nurses)
	assert.Equal(t, types.DirectionManual, unknown.Direction)
	assert.Len(t, unknown.Candidates.Directors, 3)
	assert.Len(t, unknown.Candidates.Nurses, 10)
	assert.LessOrEqual(t, unknown.Candidates.Len(), types.MaxCandidates)
}
