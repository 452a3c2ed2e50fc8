package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dshills/codereviewer/internal/logging"
)

// Tool is a structured-output schema the engine is asked to fill in.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request contains the data sent to an engine.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	// Tool, when set, is forced on providers that support tool calling.
	Tool *Tool
}

// BlockKind distinguishes reply blocks.
type BlockKind string

const (
	TextBlock    BlockKind = "text"
	ToolUseBlock BlockKind = "tool_use"
)

// Block is one piece of an engine reply.
type Block struct {
	Kind     BlockKind
	Text     string
	ToolName string
	Input    json.RawMessage
}

// Reply is the raw engine response.
type Reply struct {
	Blocks     []Block
	TokensUsed int
}

// Text joins all text blocks with newlines.
func (r Reply) Text() string {
	var parts []string
	for _, b := range r.Blocks {
		if b.Kind == TextBlock {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Engine is the reasoning engine boundary.
type Engine interface {
	Complete(ctx context.Context, req Request) (Reply, error)
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	// APIKey overrides the provider's environment variable.
	APIKey string
	Log    *slog.Logger
}

// New creates a provider by name.
func New(opts Options) (Engine, error) {
	log := logging.OrDiscard(opts.Log)
	switch opts.Provider {
	case "anthropic", "":
		return NewAnthropic(opts.Model, opts.APIKey, log)
	case "openai":
		return NewOpenAI(opts.Model, opts.APIKey, log)
	case "gemini", "google":
		return NewGemini(opts.Model, opts.APIKey, log)
	case "ollama", "lmstudio":
		return NewOllama(opts.Model, opts.APIKey, log)
	default:
		return nil, fmt.Errorf("unknown provider: %s", opts.Provider)
	}
}

const defaultMaxTokens = 4096

func maxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}

// post sends one JSON request and classifies the response status.
func post(ctx context.Context, client *http.Client, url string, headers map[string]string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &networkError{err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &networkError{err: fmt.Errorf("reading response: %w", err)}
	}

	switch code := httpResp.StatusCode; {
	case code == http.StatusTooManyRequests:
		return nil, &rateLimitError{body: string(respBody)}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, &authError{message: string(respBody)}
	case code >= 500:
		return nil, &serverError{statusCode: code, body: string(respBody)}
	case code != http.StatusOK:
		return nil, &statusError{statusCode: code, body: string(respBody)}
	}
	return respBody, nil
}
