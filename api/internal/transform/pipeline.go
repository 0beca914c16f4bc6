// Package transform validates a request, resolves its lens preset and issues
// exactly one upstream generation call.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vibeshift/api/internal/config"
	"vibeshift/api/internal/lens"
	"vibeshift/api/internal/llm"
	"vibeshift/api/internal/util"
)

type Request struct {
	Text string `json:"text"`
	Lens string `json:"filter"`
}

type Result struct {
	Transformed string
	Lens        string
	Model       string
	RequestID   string
}

type Options struct {
	// MaxInputLength is counted in characters (runes).
	MaxInputLength int
	Timeout        time.Duration
	Logger         *zap.Logger
	Metrics        *Metrics
}

// Pipeline is stateless apart from its immutable collaborators and may be
// shared by any number of goroutines.
type Pipeline struct {
	reg     *lens.Registry
	gen     llm.Generator
	maxLen  int
	timeout time.Duration
	log     *zap.Logger
	metrics *Metrics
}

func New(reg *lens.Registry, gen llm.Generator, opt Options) *Pipeline {
	p := &Pipeline{
		reg:     reg,
		gen:     gen,
		maxLen:  opt.MaxInputLength,
		timeout: opt.Timeout,
		log:     opt.Logger,
		metrics: opt.Metrics,
	}
	if p.maxLen <= 0 {
		p.maxLen = config.DefaultMaxInputLength
	}
	if p.timeout <= 0 {
		p.timeout = config.DefaultUpstreamTimeout
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

type requestIDKey struct{}

// WithRequestID makes Transform log and return id instead of minting one, so
// its log line matches the caller's.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func (p *Pipeline) Registry() *lens.Registry { return p.reg }
func (p *Pipeline) MaxInputLength() int      { return p.maxLen }

// Transform returns either a Result or a *Error, never both.
func (p *Pipeline) Transform(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	rid := requestID(ctx)

	res, err := p.run(ctx, rid, req)

	kind := Kind("ok")
	if err != nil {
		kind = KindOf(err)
	}
	lensLabel := req.Lens
	if !p.reg.Has(lensLabel) {
		lensLabel = "unknown"
	}
	p.metrics.observe(lensLabel, kind)

	fields := []zap.Field{
		zap.String("request_id", rid),
		zap.String("lens", lensLabel),
		zap.String("kind", string(kind)),
		zap.Int("input_chars", utf8.RuneCountInString(req.Text)),
		zap.String("input_sha", util.ShortHash(req.Text)),
		zap.Duration("took", time.Since(start)),
	}
	switch {
	case err == nil:
		p.log.Info("transform", fields...)
	case kind.Validation():
		p.log.Debug("transform rejected", fields...)
	default:
		p.log.Warn("transform failed", append(fields, zap.Error(err))...)
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, rid string, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, &Error{Kind: KindEmptyInput, Message: MsgTextRequired}
	}
	if n := utf8.RuneCountInString(req.Text); n > p.maxLen {
		return Result{}, &Error{
			Kind:    KindInputTooLong,
			Message: fmt.Sprintf("Text exceeds maximum length of %d characters", p.maxLen),
		}
	}
	preset, err := p.reg.Get(req.Lens)
	if err != nil {
		return Result{}, &Error{
			Kind:    KindUnknownPreset,
			Message: fmt.Sprintf("Valid filter is required (%s)", p.reg.Choices()),
			Err:     err,
		}
	}

	out, err := p.invoke(ctx, preset.Instructions, req.Text)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Transformed: out,
		Lens:        preset.ID,
		Model:       p.gen.GetModel(),
		RequestID:   rid,
	}, nil
}

// invoke makes the single upstream call. The call is detached from caller
// cancellation and bounded only by the pipeline timeout.
func (p *Pipeline) invoke(ctx context.Context, system, user string) (out string, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		p.metrics.observeUpstream(p.gen.Name(), time.Since(start))
		if r := recover(); r != nil {
			out, err = "", &Error{Kind: KindInternal, Message: MsgGeneric, Err: fmt.Errorf("generator panic: %v", r)}
		}
	}()

	out, err = p.gen.Generate(ctx, system, user)
	if err != nil {
		return "", classify(ctx, err)
	}
	if out == "" {
		return "", &Error{
			Kind:    KindUpstreamContractViolation,
			Message: MsgGeneric,
			Err:     fmt.Errorf("%w: empty text", llm.ErrContractViolation),
		}
	}
	return out, nil
}

func classify(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUpstreamTimeout, Message: MsgGeneric, Err: err}
	case errors.Is(err, llm.ErrRateLimited):
		return &Error{Kind: KindUpstreamRateLimited, Message: MsgRateLimited, Err: err}
	case errors.Is(err, llm.ErrContractViolation):
		return &Error{Kind: KindUpstreamContractViolation, Message: MsgGeneric, Err: err}
	default:
		return &Error{Kind: KindUpstreamUnavailable, Message: MsgGeneric, Err: err}
	}
}
