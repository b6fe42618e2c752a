package matching

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/llm"
	"github.com/jonathan/provider-matcher/internal/llm/llmtest"
	"github.com/jonathan/provider-matcher/internal/records"
	"github.com/jonathan/provider-matcher/internal/selection"
	"github.com/jonathan/provider-matcher/internal/types"
)

func testStore() *records.Store {
	return records.NewStaticStore(&types.Dataset{
		Directors: []types.Director{jane},
		Nurses:    []types.Nurse{nurseT1, nurseT2},
	})
}

func directorRequest(query string, filters types.FilterCriteria) types.MatchRequest {
	return types.MatchRequest{Direction: types.DirectionDirector, Query: query, Filters: filters}
}

const oneMatch = `{"matches":[{"name":"T1","email":"t1@mail.com","match_score":9,"reasoning":"Same state"}]}`

func TestMatcher_MatchDirector(t *testing.T) {
	client := &llmtest.MockClient{GenerateJSONFunc: llmtest.Reply(oneMatch)}
	m := NewMatcher(testStore(), client, Options{}, zap.NewNop())

	outcome, err := m.Match(t.Context(), directorRequest("jane", types.FilterCriteria{}))
	require.NoError(t, err)

	assert.Equal(t, types.DirectionDirector, outcome.Direction)
	require.NotNil(t, outcome.Director)
	assert.Equal(t, "Jane Doe", outcome.Director.FullName())
	assert.Equal(t, []types.Nurse{nurseT1, nurseT2}, outcome.Candidates.Nurses)
	require.NotNil(t, outcome.Result)
	require.Len(t, outcome.Result.Matches, 1)
	assert.Equal(t, "T1", outcome.Result.Matches[0].Name)

	requests := client.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, outcome.Prompt, requests[0].Prompt)
	assert.Contains(t, requests[0].System, "medical staffing expert")
	assert.Equal(t, 4000, requests[0].MaxOutputTokens)
	require.NotNil(t, requests[0].Temperature)
	assert.InDelta(t, 0.2, *requests[0].Temperature, 1e-6)
}

func TestMatcher_MatchNurse(t *testing.T) {
	client := &llmtest.MockClient{GenerateJSONFunc: llmtest.Reply(`{"matches":[]}`)}
	m := NewMatcher(testStore(), client, DefaultOptions(), nil)

	outcome, err := m.Match(t.Context(), types.MatchRequest{Direction: types.DirectionNurse, Query: "t2"})
	require.NoError(t, err)

	require.NotNil(t, outcome.Nurse)
	assert.Equal(t, "T2", outcome.Nurse.Ticket)
	assert.Equal(t, []types.Director{jane}, outcome.Candidates.Directors)
	assert.Empty(t, outcome.Result.Matches)
}

func TestMatcher_MatchManual(t *testing.T) {
	client := &llmtest.MockClient{GenerateJSONFunc: llmtest.Reply(`{"person_type":"doctor","matches":[]}`)}
	m := NewMatcher(testStore(), client, DefaultOptions(), nil)

	outcome, err := m.Match(t.Context(), types.MatchRequest{
		Direction: types.DirectionManual,
		Text:      "MD in CA looking for injectors",
		Hints:     types.ManualHints{PersonType: "doctor"},
	})
	require.NoError(t, err)

	assert.Equal(t, "doctor", outcome.Result.PersonType)
	assert.Len(t, outcome.Candidates.Nurses, 2)
	assert.Empty(t, outcome.Candidates.Directors)
	assert.Contains(t, outcome.Prompt, "MD in CA looking for injectors")
}

func TestMatcher_NotFound(t *testing.T) {
	client := &llmtest.MockClient{}
	m := NewMatcher(testStore(), client, DefaultOptions(), nil)

	_, err := m.Match(t.Context(), directorRequest("Nobody", types.FilterCriteria{}))

	var notFound *selection.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Empty(t, client.Requests())
}

func TestMatcher_ValidationError(t *testing.T) {
	m := NewMatcher(testStore(), &llmtest.MockClient{}, DefaultOptions(), nil)

	_, err := m.Match(t.Context(), directorRequest("", types.FilterCriteria{}))
	var validationErrs validator.ValidationErrors
	assert.True(t, errors.As(err, &validationErrs))

	_, err = m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{Location: "Anywhere"}))
	assert.True(t, errors.As(err, &validationErrs))
}

func TestMatcher_LoadError(t *testing.T) {
	store := records.NewStore(records.FileSource{Path: "missing.csv"}, records.FileSource{Path: "missing.csv"})
	m := NewMatcher(store, &llmtest.MockClient{}, DefaultOptions(), nil)

	_, err := m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))
	var loadErr *records.LoadError
	assert.True(t, errors.As(err, &loadErr))

	_, err = m.Stats(t.Context())
	assert.True(t, errors.As(err, &loadErr))
}

func TestMatcher_ServiceError(t *testing.T) {
	cause := errors.New("401 unauthorized")
	client := &llmtest.MockClient{GenerateJSONFunc: func(context.Context, llm.Request) (string, error) {
		return "", cause
	}}
	m := NewMatcher(testStore(), client, DefaultOptions(), nil)

	_, err := m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.ErrorIs(t, err, cause)
	assert.Len(t, client.Requests(), 1, "no automatic retry")
}

func TestMatcher_Timeout(t *testing.T) {
	client := &llmtest.MockClient{GenerateJSONFunc: func(ctx context.Context, _ llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	m := NewMatcher(testStore(), client, Options{RequestTimeout: 10 * time.Millisecond}, nil)

	_, err := m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Contains(t, serviceErr.Message, "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMatcher_MissingClient(t *testing.T) {
	m := NewMatcher(testStore(), nil, DefaultOptions(), nil)

	_, err := m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))
	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)

	outcome, err := m.Preview(t.Context(), types.MatchRequest{Direction: types.DirectionDirector, Query: "Jane"})
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Prompt)
	assert.Nil(t, outcome.Result)
}

func TestMatcher_ParseError(t *testing.T) {
	raw := `{"matches": [{"name": "T1"`
	client := &llmtest.MockClient{GenerateJSONFunc: llmtest.Reply(raw)}
	m := NewMatcher(testStore(), client, DefaultOptions(), nil)

	_, err := m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, raw, parseErr.Raw)
}

func TestMatcher_Stats(t *testing.T) {
	m := NewMatcher(testStore(), &llmtest.MockClient{ModelName: "gemini-2.5-flash"}, DefaultOptions(), nil)

	stats, err := m.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &types.Stats{Directors: 1, Nurses: 2, APIKeyConfigured: true, Model: "gemini-2.5-flash"}, stats)

	stats, err = NewMatcher(testStore(), nil, DefaultOptions(), nil).Stats(t.Context())
	require.NoError(t, err)
	assert.False(t, stats.APIKeyConfigured)
}

func TestMatcher_ParseErrorKeepsReplyFromOpenAI(t *testing.T) {
	reply := "```json\n{\"matches\": [{\"name\": \"T1\"\n```\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	defer srv.Close()

	config := llm.DefaultConfigFor(llm.ProviderOpenAI)
	config.BaseURL = srv.URL + "/v1"
	client, err := llm.NewOpenAIClient(config, "sk-test")
	require.NoError(t, err)

	m := NewMatcher(testStore(), client, DefaultOptions(), nil)
	_, err = m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, reply, parseErr.Raw)
}

func TestMatcher_ZeroTemperature(t *testing.T) {
	client := &llmtest.MockClient{}
	m := NewMatcher(testStore(), client, Options{Temperature: llm.Float32(0)}, nil)

	_, err := m.Match(t.Context(), directorRequest("Jane", types.FilterCriteria{}))
	require.NoError(t, err)

	requests := client.Requests()
	require.Len(t, requests, 1)
	require.NotNil(t, requests[0].Temperature)
	assert.Zero(t, *requests[0].Temperature)
}
