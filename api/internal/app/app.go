// Package app assembles the transform pipeline from configuration. Both
// binaries start from here.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vibeshift/api/internal/config"
	"vibeshift/api/internal/lens"
	"vibeshift/api/internal/llm"
	"vibeshift/api/internal/llm/anthropic"
	"vibeshift/api/internal/llm/gemini"
	"vibeshift/api/internal/transform"
)

func Registry(cfg *config.Config) (*lens.Registry, error) {
	if cfg.LensFile == "" {
		return lens.Default(), nil
	}
	return lens.LoadFile(cfg.LensFile)
}

func Engines(cfg *config.Config) *llm.Engines {
	a := anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicModel).WithMaxTokens(cfg.MaxOutputTokens)
	if cfg.AnthropicBaseURL != "" {
		a = a.WithBaseURL(cfg.AnthropicBaseURL)
	}
	return &llm.Engines{
		Anthropic: a,
		Gemini:    gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel).WithMaxTokens(cfg.MaxOutputTokens),
	}
}

// NewPipeline registers transform metrics on reg when it is non-nil.
func NewPipeline(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*transform.Pipeline, error) {
	lenses, err := Registry(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := Engines(cfg).GetEngine(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	var m *transform.Metrics
	if reg != nil {
		m = transform.NewMetrics(reg)
	}
	log.Info("pipeline ready",
		zap.String("provider", gen.Name()),
		zap.String("model", gen.GetModel()),
		zap.Strings("lenses", lenses.IDs()),
	)
	return transform.New(lenses, gen, transform.Options{
		MaxInputLength: cfg.MaxInputLength,
		Timeout:        cfg.UpstreamTimeout,
		Logger:         log,
		Metrics:        m,
	}), nil
}
