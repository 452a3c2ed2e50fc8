package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Options{Provider: "unknown", Model: "model"})
	assert.EqualError(t, err, "unknown provider: unknown")
}

func TestNew_Aliases(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")
	for _, name := range []string{"ollama", "lmstudio"} {
		e, err := New(Options{Provider: name, Model: "llama3"})
		require.NoError(t, err)
		assert.Equal(t, "ollama", e.Name())
	}

	e, err := New(Options{Provider: "google", Model: "gemini-2.0-flash", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", e.Name())

	e, err = New(Options{Model: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", e.Name())
}

func TestReply_Text(t *testing.T) {
	r := Reply{Blocks: []Block{
		{Kind: TextBlock, Text: "a"},
		{Kind: ToolUseBlock, ToolName: "x"},
		{Kind: TextBlock, Text: "b"},
	}}
	assert.Equal(t, "a\nb", r.Text())
	assert.Empty(t, Reply{}.Text())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(&authError{message: "test"}))
	assert.True(t, isRetryable(&rateLimitError{}))
	assert.True(t, isRetryable(&serverError{statusCode: 500}))
	assert.False(t, isRetryable(&statusError{statusCode: 400}))
	assert.False(t, isRetryable(context.Canceled))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "rate limited", (&rateLimitError{}).Error())
	assert.Equal(t, "server error: oops", (&serverError{statusCode: 500, body: "oops"}).Error())
	assert.Equal(t, "authentication error: bad key", (&authError{message: "bad key"}).Error())
	ne := &networkError{err: errors.New("refused")}
	assert.Equal(t, "network error: refused", ne.Error())
	assert.True(t, IsNetworkError(ne))
}

func TestStatusCode(t *testing.T) {
	code, ok := StatusCode(&serverError{statusCode: 502})
	assert.True(t, ok)
	assert.Equal(t, 502, code)

	_, ok = StatusCode(errors.New("plain"))
	assert.False(t, ok)
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryWithBackoff(ctx, 3, nil, func() error {
		return &rateLimitError{}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), 3, nil, func() error {
		attempts++
		return &authError{message: "bad"}
	})
	assert.Equal(t, 1, attempts)
	assert.True(t, IsAuthError(err))
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	fastRetries(t)
	attempts := 0
	err := retryWithBackoff(context.Background(), 2, nil, func() error {
		attempts++
		return &serverError{statusCode: 500}
	})
	assert.Equal(t, 3, attempts)
	_, ok := StatusCode(err)
	assert.True(t, ok)
}

func TestNetworkCause(t *testing.T) {
	cause := errors.New("connection refused")
	assert.Equal(t, cause, NetworkCause(&networkError{err: cause}))
	assert.Nil(t, NetworkCause(&authError{message: "x"}))
	assert.Equal(t, "x", ErrorBody(&authError{message: "x"}))
}
