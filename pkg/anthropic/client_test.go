package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "tool_use", Text: ""},
		{Type: "text", Text: "hello"},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "hello", resp.FirstText())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.FirstText())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	assert.InDelta(t, 0.80+2.00, usage.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.InDelta(t, 3.00+7.50, usage.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.Equal(t, 0.0, usage.EstimateCost("some-unknown-model"))
}

type countingClient struct {
	calls int
}

func (c *countingClient) CreateMessage(context.Context, MessageRequest) (*MessageResponse, error) {
	c.calls++
	return &MessageResponse{}, nil
}

func TestNewRateLimited_ZeroRPMIsPassthrough(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, Client(inner), NewRateLimited(inner, 0))
	assert.Same(t, Client(inner), NewRateLimited(inner, -5))
}

func TestNewRateLimited_DelegatesToInner(t *testing.T) {
	inner := &countingClient{}
	limited := NewRateLimited(inner, 600)

	_, err := limited.CreateMessage(context.Background(), MessageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestNewRateLimited_CancelledContext(t *testing.T) {
	inner := &countingClient{}
	limited := NewRateLimited(inner, 1)

	ctx, cancel := context.WithCancel(context.Background())
	// Drain the single burst token, then cancel so the next wait fails.
	_, err := limited.CreateMessage(ctx, MessageRequest{})
	require.NoError(t, err)
	cancel()

	_, err = limited.CreateMessage(ctx, MessageRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
