package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named string

func (n named) Name() string     { return string(n) }
func (n named) GetModel() string { return "m" }
func (n named) Generate(context.Context, string, string) (string, error) {
	return "", nil
}

func TestGetEngine(t *testing.T) {
	e := &Engines{Anthropic: named("anthropic"), Gemini: named("gemini")}

	for name, want := range map[string]string{
		"":          "anthropic",
		"anthropic": "anthropic",
		"Claude":    "anthropic",
		"gemini":    "gemini",
		" google ":  "gemini",
	} {
		g, err := e.GetEngine(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, g.Name(), name)
	}

	_, err := e.GetEngine("openai")
	assert.Error(t, err)

	_, err = (&Engines{Anthropic: named("anthropic")}).GetEngine("gemini")
	assert.Error(t, err)
}
