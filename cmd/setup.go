package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyerim-cho/techterview/internal/grading"
	"github.com/hyerim-cho/techterview/internal/grading/gemini"
	"github.com/hyerim-cho/techterview/internal/interview"
	"github.com/hyerim-cho/techterview/internal/logger"
	"github.com/hyerim-cho/techterview/internal/question"
	"github.com/hyerim-cho/techterview/internal/secrets"
	"github.com/hyerim-cho/techterview/internal/session"
	"github.com/hyerim-cho/techterview/internal/transcript"
)

// newConductor wires the full interview core from configuration: question
// bank, grading oracle, session store, and optional transcript writer.
func newConductor(ctx context.Context, config *Config, log *zap.Logger) (*interview.Conductor, func(), error) {
	if config == nil {
		return nil, nil, errors.New("config is required")
	}
	if config.Questions == nil || strings.TrimSpace(config.Questions.File) == "" {
		return nil, nil, errors.New("question bank file is required under questions.file")
	}

	bank, err := question.LoadFile(config.Questions.File, log)
	if err != nil {
		return nil, nil, err
	}

	grader, err := newGrader(ctx, config.AI, log)
	if err != nil {
		return nil, nil, fmt.Errorf("building grader: %w", err)
	}

	cleanup := func() {}
	var tw *transcript.Writer
	if path := strings.TrimSpace(config.Transcript); path != "" {
		tw, err = transcript.NewWriter(path)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := tw.Close(); err != nil {
				log.Warn("closing transcript writer", zap.Error(err))
			}
		}
	}

	cfg := &interview.Config{}
	if config.Interview != nil {
		cfg.FollowUpThreshold = config.Interview.FollowUpThreshold
	}

	conductor := interview.NewConductor(bank, grader, session.NewStore(), tw, cfg, log)
	return conductor, cleanup, nil
}

// newGrader builds the grading oracle from the AI configuration.
func newGrader(ctx context.Context, cfg *AIConfig, log *zap.Logger) (grading.Grader, error) {
	if cfg == nil {
		return nil, errors.New("ai configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE, or GEMINI_API_KEY)", err)
	}

	oracleLogger := logger.WithOracleFields(log, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, oracleLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewGrader(generator, cfg.Gemini.MaxLogLength, oracleLogger), nil
}
