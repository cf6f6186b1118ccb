package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotin/chatcotin/models"
)

// scriptedGenerator returns the queued outcomes in order and records the
// messages it was called with.
type scriptedGenerator struct {
	outcomes []outcome
	calls    [][]models.Message
}

type outcome struct {
	answer string
	err    error
}

func (g *scriptedGenerator) Generate(_ context.Context, msgs []models.Message, _ Params) (string, error) {
	g.calls = append(g.calls, msgs)
	if len(g.outcomes) == 0 {
		return "", errors.New("no scripted outcome")
	}
	out := g.outcomes[0]
	g.outcomes = g.outcomes[1:]
	return out.answer, out.err
}

func newTestInvoker(gen Generator) *Invoker {
	inv := NewInvoker(gen, 3, 2*time.Second, 12000, 6000, 4000)
	inv.sleep = func(context.Context, time.Duration) error { return nil }
	return inv
}

func overloadedErr() error {
	return &GenerationError{Kind: FailureOverloaded, Status: http.StatusServiceUnavailable, Message: "model is busy"}
}

func TestInvoke_Success(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{{answer: "resposta final"}}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "resposta final", res.Answer)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Waits)
}

func TestInvoke_OverloadTwiceThenSuccess(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{
		{err: overloadedErr()},
		{err: overloadedErr()},
		{answer: "terceira tentativa"},
	}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "terceira tentativa", res.Answer)
	assert.Equal(t, 3, res.Attempts)
	assert.False(t, res.Degraded)
	require.Len(t, res.Waits, 2)
	assert.Equal(t, 2*time.Second, res.Waits[0])
	assert.Equal(t, 4*time.Second, res.Waits[1])
}

func TestInvoke_OverloadExhaustsCeiling(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{
		{err: overloadedErr()},
		{err: overloadedErr()},
		{err: overloadedErr()},
	}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, msgOverloaded, res.Answer)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, res.Waits, 2)
}

func TestInvoke_AuthFailureImmediate(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{
		{err: &GenerationError{Kind: FailureUnauthenticated, Status: http.StatusUnauthorized, Message: "bad key"}},
	}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, msgUnauthenticated, res.Answer)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, res.Waits, "auth failures are never retried")
}

func TestInvoke_RateLimitImmediate(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{
		{err: &GenerationError{Kind: FailureRateLimited, Status: http.StatusTooManyRequests, Message: "quota"}},
	}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, msgRateLimited, res.Answer)
	assert.Equal(t, 1, res.Attempts)
}

func TestInvoke_ContextTooLargeShrinksOnce(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{
		{err: &GenerationError{Kind: FailureContextTooLarge, Status: http.StatusBadRequest, Message: "context length exceeded"}},
		{answer: "coube agora"},
	}}
	inv := NewInvoker(gen, 3, 0, 100, 20, 50)
	inv.sleep = func(context.Context, time.Duration) error { return nil }

	pc := models.PromptContext{
		Context:  strings.Repeat("x", 200),
		Question: "pergunta",
	}
	res, err := inv.Invoke(context.Background(), pc, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "coube agora", res.Answer)
	assert.True(t, res.Shrunk)
	assert.Equal(t, 2, res.Attempts)

	// First call got the 100-char cap, second call the shrunk 20-char cap.
	require.Len(t, gen.calls, 2)
	first := gen.calls[0][1].Content
	second := gen.calls[1][1].Content
	assert.Contains(t, first, strings.Repeat("x", 100))
	assert.NotContains(t, first, strings.Repeat("x", 101))
	assert.Contains(t, second, strings.Repeat("x", 20))
	assert.NotContains(t, second, strings.Repeat("x", 21))
}

func TestInvoke_ContextTooLargeTwiceGivesUp(t *testing.T) {
	tooLarge := &GenerationError{Kind: FailureContextTooLarge, Status: http.StatusBadRequest, Message: "context length exceeded"}
	gen := &scriptedGenerator{outcomes: []outcome{{err: tooLarge}, {err: tooLarge}}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Context: "ctx", Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, msgContextTooLarge, res.Answer)
}

func TestInvoke_UnknownFailureCarriesRawText(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{
		{err: errors.New("conexão recusada")},
	}}
	inv := newTestInvoker(gen)

	res, err := inv.Invoke(context.Background(), models.PromptContext{Question: "pergunta"}, DefaultParams())
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Answer, "conexão recusada")
	assert.Equal(t, 1, res.Attempts)
}

func TestInvoke_CancelledContextPropagates(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{{err: context.Canceled}}}
	inv := newTestInvoker(gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inv.Invoke(ctx, models.PromptContext{Question: "pergunta"}, DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvoke_PreemptiveTruncation(t *testing.T) {
	gen := &scriptedGenerator{outcomes: []outcome{{answer: "ok"}}}
	inv := NewInvoker(gen, 1, 0, 10, 5, 8)
	inv.sleep = func(context.Context, time.Duration) error { return nil }

	pc := models.PromptContext{
		Context:  strings.Repeat("c", 50),
		History:  strings.Repeat("h", 50),
		Question: "q",
	}
	_, err := inv.Invoke(context.Background(), pc, DefaultParams())
	require.NoError(t, err)

	user := gen.calls[0][1].Content
	assert.NotContains(t, user, strings.Repeat("c", 11))
	assert.NotContains(t, user, strings.Repeat("h", 9))
	assert.Contains(t, user, strings.Repeat("c", 10))
	assert.Contains(t, user, strings.Repeat("h", 8))
}
