package transform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"vibeshift/api/internal/lens"
	"vibeshift/api/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct{ system, user string }

type fakeGen struct {
	mu    sync.Mutex
	calls []call
	fn    func(ctx context.Context, system, user string) (string, error)
}

func (f *fakeGen) Name() string     { return "fake" }
func (f *fakeGen) GetModel() string { return "fake-1" }

func (f *fakeGen) Generate(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{system, user})
	f.mu.Unlock()
	return f.fn(ctx, system, user)
}

func (f *fakeGen) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func reply(s string) *fakeGen {
	return &fakeGen{fn: func(context.Context, string, string) (string, error) { return s, nil }}
}

func fail(err error) *fakeGen {
	return &fakeGen{fn: func(context.Context, string, string) (string, error) { return "", err }}
}

func newPipeline(gen llm.Generator) *Pipeline {
	return New(lens.Default(), gen, Options{MaxInputLength: 8000, Timeout: time.Second})
}

func requireKind(t *testing.T, err error, want Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var te *Error
	require.True(t, errors.As(err, &te), "not a *transform.Error: %v", err)
	assert.Equal(t, want, te.Kind)
	return te
}

func TestCorporateScenario(t *testing.T) {
	gen := reply("It was determined that a greeting occurred.")
	p := newPipeline(gen)

	res, err := p.Transform(context.Background(), Request{Text: "Hello world", Lens: "corporate"})
	require.NoError(t, err)
	assert.Equal(t, "It was determined that a greeting occurred.", res.Transformed)
	assert.Equal(t, "corporate", res.Lens)
	assert.Equal(t, "fake-1", res.Model)
	assert.NotEmpty(t, res.RequestID)

	preset, _ := lens.Default().Get("corporate")
	require.Equal(t, 1, gen.count())
	assert.Equal(t, call{system: preset.Instructions, user: "Hello world"}, gen.calls[0])
}

func TestInputPassedVerbatim(t *testing.T) {
	gen := reply("ok")
	p := newPipeline(gen)
	in := "  line one\n\n\tline two ```code```  "

	_, err := p.Transform(context.Background(), Request{Text: in, Lens: "sales"})
	require.NoError(t, err)
	require.Equal(t, 1, gen.count())
	assert.Equal(t, in, gen.calls[0].user)
}

func TestEmptyInput(t *testing.T) {
	for _, text := range []string{"", " ", "\n\t  \r\n"} {
		for _, id := range []string{"corporate", "haiku", ""} {
			gen := reply("x")
			_, err := newPipeline(gen).Transform(context.Background(), Request{Text: text, Lens: id})
			te := requireKind(t, err, KindEmptyInput)
			assert.Equal(t, "Text is required", te.Message)
			assert.Equal(t, http.StatusBadRequest, te.Kind.HTTPStatus())
			assert.Zero(t, gen.count())
		}
	}
}

func TestInputTooLong(t *testing.T) {
	gen := reply("x")
	p := newPipeline(gen)

	_, err := p.Transform(context.Background(), Request{Text: strings.Repeat("a", 8001), Lens: "hotdog"})
	te := requireKind(t, err, KindInputTooLong)
	assert.Contains(t, te.Message, "8000")
	assert.Zero(t, gen.count())

	_, err = p.Transform(context.Background(), Request{Text: strings.Repeat("a", 8000), Lens: "hotdog"})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.count())
}

func TestInputLengthCountsCharacters(t *testing.T) {
	gen := reply("x")
	p := New(lens.Default(), gen, Options{MaxInputLength: 600})

	_, err := p.Transform(context.Background(), Request{Text: strings.Repeat("é", 600), Lens: "sales"})
	require.NoError(t, err)

	_, err = p.Transform(context.Background(), Request{Text: strings.Repeat("é", 601), Lens: "sales"})
	te := requireKind(t, err, KindInputTooLong)
	assert.Equal(t, "Text exceeds maximum length of 600 characters", te.Message)
}

func TestUnknownPreset(t *testing.T) {
	for _, id := range []string{"haiku", "", "CORPORATE", "corporate "} {
		gen := reply("x")
		_, err := newPipeline(gen).Transform(context.Background(), Request{Text: "Hello", Lens: id})
		te := requireKind(t, err, KindUnknownPreset)
		assert.Equal(t, "Valid filter is required (corporate, sales, or hotdog)", te.Message)
		assert.True(t, errors.Is(err, lens.ErrUnknownPreset))
		assert.Zero(t, gen.count(), id)
	}
}

func TestUpstreamFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		kind   Kind
		status int
		msg    string
	}{
		{"rate limited", fmt.Errorf("%w: anthropic 429", llm.ErrRateLimited), KindUpstreamRateLimited, 429, MsgRateLimited},
		{"contract", fmt.Errorf("%w: first block is image", llm.ErrContractViolation), KindUpstreamContractViolation, 500, MsgGeneric},
		{"unavailable", fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", llm.ErrUnavailable), KindUpstreamUnavailable, 500, MsgGeneric},
		{"unclassified", errors.New("boom"), KindUpstreamUnavailable, 500, MsgGeneric},
		{"deadline", fmt.Errorf("%w: %w", llm.ErrUnavailable, context.DeadlineExceeded), KindUpstreamTimeout, 500, MsgGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := fail(tc.err)
			res, err := newPipeline(gen).Transform(context.Background(), Request{Text: "Hello", Lens: "sales"})
			te := requireKind(t, err, tc.kind)
			assert.Equal(t, tc.status, te.Kind.HTTPStatus())
			assert.Equal(t, tc.msg, te.Message)
			assert.Equal(t, Result{}, res)
			assert.Equal(t, 1, gen.count())
			assert.True(t, errors.Is(err, tc.err))
		})
	}
}

func TestRateLimitMessageAsksToWait(t *testing.T) {
	_, err := newPipeline(fail(llm.ErrRateLimited)).Transform(context.Background(), Request{Text: "Hello", Lens: "hotdog"})
	assert.Equal(t, http.StatusTooManyRequests, KindOf(err).HTTPStatus())
	assert.Contains(t, MessageOf(err), "wait")
}

func TestEmptySuccessIsContractViolation(t *testing.T) {
	_, err := newPipeline(reply("")).Transform(context.Background(), Request{Text: "Hello", Lens: "corporate"})
	requireKind(t, err, KindUpstreamContractViolation)
}

func TestGeneratorPanicIsContained(t *testing.T) {
	gen := &fakeGen{fn: func(context.Context, string, string) (string, error) { panic("nil map") }}
	_, err := newPipeline(gen).Transform(context.Background(), Request{Text: "Hello", Lens: "corporate"})
	te := requireKind(t, err, KindInternal)
	assert.Equal(t, MsgGeneric, te.Message)
	assert.Equal(t, http.StatusInternalServerError, te.Kind.HTTPStatus())
}

func TestUpstreamTimeout(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", fmt.Errorf("%w: %w", llm.ErrUnavailable, ctx.Err())
	}}
	p := New(lens.Default(), gen, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := p.Transform(context.Background(), Request{Text: "Hello", Lens: "corporate"})
	requireKind(t, err, KindUpstreamTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCallerCancelDoesNotAbortUpstream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGen{fn: func(upCtx context.Context, _, _ string) (string, error) {
		cancel()
		time.Sleep(10 * time.Millisecond)
		if upCtx.Err() != nil {
			return "", upCtx.Err()
		}
		return "finished", nil
	}}

	res, err := newPipeline(gen).Transform(ctx, Request{Text: "Hello", Lens: "corporate"})
	require.NoError(t, err)
	assert.Equal(t, "finished", res.Transformed)
}

func TestConcurrentTransforms(t *testing.T) {
	gen := &fakeGen{fn: func(_ context.Context, system, user string) (string, error) {
		return strings.ToUpper(user), nil
	}}
	p := newPipeline(gen)
	ids := lens.Default().IDs()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := fmt.Sprintf("text %d", i)
			res, err := p.Transform(context.Background(), Request{Text: in, Lens: ids[i%len(ids)]})
			assert.NoError(t, err)
			assert.Equal(t, strings.ToUpper(in), res.Transformed)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, gen.count())
}

func TestMetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	core, logs := observer.New(zap.DebugLevel)
	p := New(lens.Default(), reply("ok"), Options{Metrics: m, Logger: zap.New(core)})

	_, _ = p.Transform(context.Background(), Request{Text: "secret words", Lens: "sales"})
	_, _ = p.Transform(context.Background(), Request{Text: "secret words", Lens: "limerick"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("sales", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unknown", string(KindUnknownPreset))))
	assert.Equal(t, 1, testutil.CollectAndCount(m.upstream))

	require.Equal(t, 2, logs.Len())
	for _, e := range logs.All() {
		for _, f := range e.Context {
			assert.NotContains(t, f.String, "secret")
		}
	}
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, MsgGeneric, MessageOf(errors.New("x")))
	assert.False(t, KindNetwork.Validation())
	assert.True(t, KindUnknownPreset.Validation())
}

func TestRequestIDFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := New(lens.Default(), reply("ok"), Options{Logger: zap.New(core)})

	ctx := WithRequestID(context.Background(), "host/abc-000001")
	res, err := p.Transform(ctx, Request{Text: "hi", Lens: "hotdog"})
	require.NoError(t, err)
	assert.Equal(t, "host/abc-000001", res.RequestID)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "host/abc-000001", logs.All()[0].ContextMap()["request_id"])

	res, err = p.Transform(WithRequestID(context.Background(), ""), Request{Text: "hi", Lens: "hotdog"})
	require.NoError(t, err)
	assert.Len(t, res.RequestID, 36)
}
