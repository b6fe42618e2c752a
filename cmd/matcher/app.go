package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/config"
	"github.com/jonathan/provider-matcher/internal/llm"
	"github.com/jonathan/provider-matcher/internal/matching"
	"github.com/jonathan/provider-matcher/internal/observability"
	"github.com/jonathan/provider-matcher/internal/records"
)

// app bundles the components shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  llm.Client
	matcher *matching.Matcher
}

// newApp resolves configuration and wires the record store, LLM client and
// matcher. A missing API key leaves the client nil so previews still work.
func newApp(ctx context.Context, root *rootOptions) (*app, error) {
	cfg, err := config.Resolve(root.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	s3opts := records.S3Options{Region: cfg.AWSRegion}
	directors, err := records.NewSource(ctx, cfg.DirectorsSource, s3opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open directors source: %w", err)
	}
	nurses, err := records.NewSource(ctx, cfg.NursesSource, s3opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open nurses source: %w", err)
	}

	var client llm.Client
	llmCfg := cfg.LLMConfig()
	if root.model != "" {
		llmCfg = llmCfg.WithModel(root.model)
	}
	client, err = llm.NewClient(ctx, llmCfg, cfg.ResolveAPIKey())
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("no API key configured; match requests will fail",
			zap.String("provider", string(llmCfg.Provider)),
			zap.String("env", llm.APIKeyEnv(llmCfg.Provider)),
		)
		client = nil
	case err != nil:
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := matching.Options{
		RequestTimeout:  cfg.RequestTimeout(),
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
		Organization:    cfg.Organization,
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		matcher: matching.NewMatcher(records.NewStore(directors, nurses), client, opts, logger),
	}, nil
}

func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Warn("failed to close LLM client", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
