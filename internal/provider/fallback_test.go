package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxline/internal/port"
	"taxline/internal/provider"
)

type funcProvider struct {
	fn    func(context.Context, port.ExtractInput) (*port.ExtractOutput, error)
	calls int
}

func (f *funcProvider) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	f.calls++
	return f.fn(ctx, input)
}

func succeeding(model string) *funcProvider {
	return &funcProvider{fn: func(context.Context, port.ExtractInput) (*port.ExtractOutput, error) {
		return &port.ExtractOutput{RawText: "text", ModelUsed: model}, nil
	}}
}

func failing(err error) *funcProvider {
	return &funcProvider{fn: func(context.Context, port.ExtractInput) (*port.ExtractOutput, error) {
		return nil, err
	}}
}

func TestFallback_FirstSucceeds(t *testing.T) {
	p1 := succeeding("formrec-v3")
	p2 := succeeding("vision")

	fb := provider.NewFallback([]port.DocumentProvider{p1, p2}, []string{"formrec", "vision"})

	out, err := fb.Extract(context.Background(), port.ExtractInput{FileBytes: []byte("doc")})
	require.NoError(t, err)
	assert.Equal(t, "formrec-v3", out.ModelUsed)
	assert.Equal(t, 0, p2.calls)
}

func TestFallback_FirstFails_SecondSucceeds(t *testing.T) {
	p1 := failing(errors.New("upstream 500"))
	p2 := succeeding("vision")

	fb := provider.NewFallback([]port.DocumentProvider{p1, p2}, []string{"formrec", "vision"})

	out, err := fb.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, "vision", out.ModelUsed)
}

func TestFallback_RateLimitOpensCircuit(t *testing.T) {
	p1 := failing(provider.NewRateLimitError("formrec", errors.New("429"), 60))
	p2 := succeeding("vision")

	fb := provider.NewFallback([]port.DocumentProvider{p1, p2}, []string{"formrec", "vision"})

	_, err := fb.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, p1.calls)

	// Second call skips the rate-limited provider entirely.
	_, err = fb.Extract(context.Background(), port.ExtractInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 2, p2.calls)
}

func TestFallback_AllRateLimited(t *testing.T) {
	p1 := failing(provider.NewRateLimitError("formrec", errors.New("429"), 30))
	p2 := failing(provider.NewRateLimitError("vision", errors.New("429"), 90))

	fb := provider.NewFallback([]port.DocumentProvider{p1, p2}, []string{"formrec", "vision"})

	_, err := fb.Extract(context.Background(), port.ExtractInput{})
	require.Error(t, err)

	var rlErr *provider.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallback_AllFailGenerically(t *testing.T) {
	p1 := failing(errors.New("boom"))
	p2 := failing(errors.New("bang"))

	fb := provider.NewFallback([]port.DocumentProvider{p1, p2}, []string{"a", "b"})

	_, err := fb.Extract(context.Background(), port.ExtractInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")

	var rlErr *provider.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestRateLimitErrorDefaults(t *testing.T) {
	err := provider.NewRateLimitError("formrec", errors.New("429"), 0)
	assert.Equal(t, "formrec", err.Provider)
	assert.Equal(t, float64(60), err.RetryAfter.Seconds())
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, provider.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, provider.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, provider.ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
}
