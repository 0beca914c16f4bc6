// Package llm is the seam between the transform pipeline and the upstream
// text-generation services.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Classification sentinels. Adapters wrap them with %w so callers can use errors.Is.
var (
	ErrRateLimited       = errors.New("upstream rate limited")
	ErrContractViolation = errors.New("upstream contract violation")
	ErrUnavailable       = errors.New("upstream unavailable")
)

// Generator issues a single generation call: system is followed as a
// directive, user is the only user content.
type Generator interface {
	Name() string
	GetModel() string
	Generate(ctx context.Context, system, user string) (string, error)
}

type Engines struct {
	Anthropic Generator
	Gemini    Generator
}

func (e *Engines) GetEngine(name string) (Generator, error) {
	var g Generator
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "anthropic", "claude":
		g = e.Anthropic
	case "gemini", "google":
		g = e.Gemini
	default:
		return nil, errors.New("unknown upstream provider; use 'anthropic' or 'gemini'")
	}
	if g == nil {
		return nil, errors.New("upstream provider " + name + " is not configured")
	}
	return g, nil
}
