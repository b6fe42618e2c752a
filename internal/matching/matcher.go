package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/llm"
	"github.com/jonathan/provider-matcher/internal/records"
	"github.com/jonathan/provider-matcher/internal/selection"
	"github.com/jonathan/provider-matcher/internal/types"
)

// DefaultRequestTimeout bounds a single LLM call.
const DefaultRequestTimeout = 90 * time.Second

// Options configures a Matcher.
type Options struct {
	RequestTimeout  time.Duration
	MaxOutputTokens int
	// Temperature is nil for the default; zero is honored.
	Temperature  *float32
	Organization string
}

// DefaultOptions returns the default matcher options.
func DefaultOptions() Options {
	return Options{
		RequestTimeout:  DefaultRequestTimeout,
		MaxOutputTokens: llm.DefaultMaxOutputTokens,
		Temperature:     llm.Float32(llm.DefaultTemperature),
		Organization:    DefaultOrganization,
	}
}

// Outcome is the selection, prompt and (unless previewed) interpreted reply
// for one request.
type Outcome struct {
	Direction  types.Direction    `json:"direction"`
	Director   *types.Director    `json:"director,omitempty"`
	Nurse      *types.Nurse       `json:"nurse,omitempty"`
	Candidates types.CandidateSet `json:"candidates"`
	Prompt     string             `json:"prompt,omitempty"`
	Result     *types.MatchResult `json:"result,omitempty"`
}

// Matcher runs match requests against a record store and an LLM client.
// A nil client is allowed; Preview still works and Match fails with a
// *ServiceError wrapping llm.ErrMissingAPIKey.
type Matcher struct {
	store   *records.Store
	client  llm.Client
	prompts *PromptBuilder
	opts    Options
	logger  *zap.Logger
}

// NewMatcher creates a Matcher. Zero option fields take their defaults.
func NewMatcher(store *records.Store, client llm.Client, opts Options, logger *zap.Logger) *Matcher {
	defaults := DefaultOptions()
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaults.RequestTimeout
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if opts.Temperature == nil {
		opts.Temperature = defaults.Temperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		store:   store,
		client:  client,
		prompts: NewPromptBuilder(opts.Organization),
		opts:    opts,
		logger:  logger,
	}
}

// Preview resolves the subject, selects candidates and builds the prompt
// without calling the LLM.
func (m *Matcher) Preview(ctx context.Context, req types.MatchRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dataset, err := m.store.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	var sel *selection.Result
	switch req.Direction {
	case types.DirectionDirector:
		sel, err = selection.SelectNurses(req.Query, dataset.Directors, dataset.Nurses, req.Filters)
	case types.DirectionNurse:
		sel, err = selection.SelectDirectors(req.Query, dataset.Nurses, dataset.Directors, req.Filters)
	case types.DirectionManual:
		sel = selection.SelectManual(req.Hints, dataset.Directors, dataset.Nurses)
	default:
		err = fmt.Errorf("unsupported direction %q", req.Direction)
	}
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Direction:  req.Direction,
		Director:   sel.Director,
		Nurse:      sel.Nurse,
		Candidates: sel.Candidates,
	}
	switch req.Direction {
	case types.DirectionDirector:
		outcome.Prompt = m.prompts.DirectorPrompt(*sel.Director, sel.Candidates, req.Filters)
	case types.DirectionNurse:
		outcome.Prompt = m.prompts.NursePrompt(*sel.Nurse, sel.Candidates, req.Filters)
	case types.DirectionManual:
		outcome.Prompt = m.prompts.ManualPrompt(req.Text, req.Hints, sel.Candidates)
	}
	return outcome, nil
}

// Match runs a request end to end. The LLM is called once, never retried.
func (m *Matcher) Match(ctx context.Context, req types.MatchRequest) (*Outcome, error) {
	outcome, err := m.Preview(ctx, req)
	if err != nil {
		return nil, err
	}

	log := m.logger.With(
		zap.String("direction", string(req.Direction)),
		zap.Int("candidates", outcome.Candidates.Len()),
		zap.Bool("fallback_applied", outcome.Candidates.FallbackApplied),
	)

	if m.client == nil {
		return nil, &ServiceError{Message: "LLM client unavailable", Cause: llm.ErrMissingAPIKey}
	}

	callCtx, cancel := context.WithTimeout(ctx, m.opts.RequestTimeout)
	defer cancel()

	start := time.Now()
	reply, err := m.client.GenerateJSON(callCtx, llm.Request{
		System:          m.prompts.SystemPrompt(),
		Prompt:          outcome.Prompt,
		MaxOutputTokens: m.opts.MaxOutputTokens,
		Temperature:     m.opts.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		message := "LLM request failed"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			message = fmt.Sprintf("LLM request timed out after %s", m.opts.RequestTimeout)
		}
		log.Error(message, zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, &ServiceError{Message: message, Cause: err}
	}

	result, err := ParseResponse(reply, req.Direction)
	if err != nil {
		log.Warn("LLM reply could not be parsed", zap.Duration("elapsed", elapsed), zap.Int("raw_bytes", len(reply)))
		return nil, err
	}
	if len(result.Warnings) > 0 {
		log.Warn("LLM reply deviates from response schema", zap.Strings("warnings", result.Warnings))
	}

	log.Info("match completed",
		zap.String("model", m.client.Model()),
		zap.Int("matches", len(result.Matches)),
		zap.Duration("elapsed", elapsed),
	)
	outcome.Result = result
	return outcome, nil
}

// Stats reports pool sizes and whether an LLM client is configured.
func (m *Matcher) Stats(ctx context.Context) (*types.Stats, error) {
	dataset, err := m.store.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	stats := &types.Stats{
		Directors:        len(dataset.Directors),
		Nurses:           len(dataset.Nurses),
		APIKeyConfigured: m.client != nil,
	}
	if m.client != nil {
		stats.Model = m.client.Model()
	}
	return stats, nil
}

// Dataset exposes the loaded pools for listing endpoints.
func (m *Matcher) Dataset(ctx context.Context) (*types.Dataset, error) {
	return m.store.Dataset(ctx)
}
