package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements Engine for Anthropic's Messages API. A request tool
// is forced through tool_choice.
type Anthropic struct {
	apiKey string
	model  string
	client *http.Client
	log    *slog.Logger
}

// NewAnthropic creates a new Anthropic provider. An empty key falls back to
// ANTHROPIC_API_KEY.
func NewAnthropic(model, apiKey string, log *slog.Logger) (*Anthropic, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set (run 'code-reviewer configure' or export it)")
	}
	return &Anthropic{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 300 * time.Second},
		log:    log,
	}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, req Request) (Reply, error) {
	body := anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens(req.MaxTokens),
		System:    req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.UserPrompt},
		},
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	if req.Tool != nil {
		body.Tools = []anthropicTool{{
			Name:        req.Tool.Name,
			Description: req.Tool.Description,
			InputSchema: req.Tool.InputSchema,
		}}
		body.ToolChoice = &anthropicToolChoice{Type: "tool", Name: req.Tool.Name}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("marshaling request: %w", err)
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}

	var reply Reply
	err = retryWithBackoff(ctx, 3, a.log, func() error {
		respBody, err := post(ctx, a.client, anthropicAPIURL, headers, payload)
		if err != nil {
			return err
		}

		var result anthropicResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		reply = Reply{TokensUsed: result.Usage.InputTokens + result.Usage.OutputTokens}
		for _, block := range result.Content {
			switch block.Type {
			case "text":
				reply.Blocks = append(reply.Blocks, Block{Kind: TextBlock, Text: block.Text})
			case "tool_use":
				reply.Blocks = append(reply.Blocks, Block{Kind: ToolUseBlock, ToolName: block.Name, Input: block.Input})
			}
		}
		if len(reply.Blocks) == 0 {
			return fmt.Errorf("empty content in API response")
		}
		return nil
	})

	return reply, err
}

type anthropicRequest struct {
	Model       string               `json:"model"`
	MaxTokens   int                  `json:"max_tokens"`
	System      string               `json:"system,omitempty"`
	Messages    []anthropicMessage   `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
