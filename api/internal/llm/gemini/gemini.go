package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vibeshift/api/internal/llm"
)

const DefaultModel = "gemini-2.5-flash"

type Engine struct {
	APIKey    string
	Model     string
	MaxTokens int32
	opts      []option.ClientOption
}

func New(apiKey, model string) *Engine {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:    strings.TrimSpace(apiKey),
		Model:     strings.TrimSpace(model),
		MaxTokens: 4096,
	}
}

func (e *Engine) WithMaxTokens(n int) *Engine {
	if n > 0 {
		e.MaxTokens = int32(n)
	}
	return e
}

// WithClientOptions appends options used when dialing (endpoint overrides, HTTP client).
func (e *Engine) WithClientOptions(opts ...option.ClientOption) *Engine {
	e.opts = append(e.opts, opts...)
	return e
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Generate(ctx context.Context, system, user string) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is empty", llm.ErrUnavailable)
	}
	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: new client: %w", llm.ErrUnavailable, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("%w: gemini: model is nil", llm.ErrUnavailable)
	}
	parts := e.prepare(m, system, user)

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classify(err)
	}
	return firstText(resp)
}

// prepare sets the output ceiling and system instruction on m and returns the
// user content, passed through unchanged.
func (e *Engine) prepare(m *genai.GenerativeModel, system, user string) []genai.Part {
	m.SetMaxOutputTokens(e.MaxTokens)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	return []genai.Part{genai.Text(user)}
}

// classify wraps a GenerateContent error with the matching llm sentinel.
func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: gemini: %w", llm.ErrContractViolation, err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: gemini: %w", llm.ErrRateLimited, err)
	}
	if status.Code(err) == codes.ResourceExhausted {
		return fmt.Errorf("%w: gemini: %w", llm.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: gemini: %w", llm.ErrUnavailable, err)
}

// firstText requires the first part of the first candidate to be text.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: gemini: no candidates", llm.ErrContractViolation)
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini: empty content", llm.ErrContractViolation)
	}
	txt, ok := c.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("%w: gemini: first part is %T", llm.ErrContractViolation, c.Parts[0])
	}
	return string(txt), nil
}
