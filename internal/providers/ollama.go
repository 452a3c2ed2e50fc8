package providers

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements Engine for Ollama and LM Studio through their
// OpenAI-compatible endpoint. Replies are text only.
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewOllama creates a new Ollama provider. No API key is required by default.
func NewOllama(model, apiKey string, log *slog.Logger) (*Ollama, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	// Normalize URL: strip trailing /, /v1, /v1/chat/completions
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	if apiKey == "" {
		apiKey = os.Getenv("CODE_REVIEWER_OLLAMA_API_KEY")
	}

	return &Ollama{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL + "/v1/chat/completions",
		client:  &http.Client{Timeout: 600 * time.Second},
		log:     log,
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Complete(ctx context.Context, req Request) (Reply, error) {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}
	return completeChat(ctx, o.client, o.baseURL, headers, chatRequest(o.model, req), o.log)
}
