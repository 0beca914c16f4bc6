package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"vibeshift/api/internal/llm"
)

const (
	apiVersion       = "2023-06-01"
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 4096
)

type Engine struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	httpc     *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:    strings.TrimSpace(key),
		Model:     strings.TrimSpace(model),
		BaseURL:   DefaultBaseURL,
		MaxTokens: DefaultMaxTokens,
		// Deadlines come from the caller's context.
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for tests or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimSpace(u); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) WithMaxTokens(n int) *Engine {
	if n > 0 {
		e.MaxTokens = n
	}
	return e
}

func (e *Engine) Name() string     { return "anthropic" }
func (e *Engine) GetModel() string { return e.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one Messages API call. Only the first content block is
// read, and it must be text.
func (e *Engine) Generate(ctx context.Context, system, user string) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", llm.ErrUnavailable)
	}

	payload, err := json.Marshal(messagesRequest{
		Model:     e.Model,
		MaxTokens: e.MaxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	url := strings.TrimRight(e.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: build request: %w", llm.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %w", llm.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: read body: %w", llm.ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(raw)
		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("retry-after"); ra != "" {
				detail += " (retry-after " + ra + ")"
			}
			return "", fmt.Errorf("%w: anthropic %d: %s", llm.ErrRateLimited, resp.StatusCode, detail)
		}
		return "", fmt.Errorf("%w: anthropic %d: %s", llm.ErrUnavailable, resp.StatusCode, detail)
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: anthropic: bad JSON: %w", llm.ErrContractViolation, err)
	}
	if len(out.Content) == 0 {
		return "", fmt.Errorf("%w: anthropic: no content blocks", llm.ErrContractViolation)
	}
	if first := out.Content[0]; first.Type != "text" {
		return "", fmt.Errorf("%w: anthropic: first content block is %q", llm.ErrContractViolation, first.Type)
	}
	return out.Content[0].Text, nil
}

func errorDetail(raw []byte) string {
	var ae apiError
	if err := json.Unmarshal(raw, &ae); err == nil && ae.Error.Message != "" {
		return ae.Error.Type + ": " + ae.Error.Message
	}
	return truncateBytes(raw, 512)
}

func truncateBytes(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
