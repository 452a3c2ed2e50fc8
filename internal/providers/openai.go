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

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI implements Engine for OpenAI's chat completions API. Tools are
// sent as forced function calls.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewOpenAI creates a new OpenAI provider. An empty key falls back to
// OPENAI_API_KEY.
func NewOpenAI(model, apiKey string, log *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	baseURL := os.Getenv("CODE_REVIEWER_OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 300 * time.Second},
		log:     log,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, req Request) (Reply, error) {
	body := chatRequest(o.model, req)
	if req.Tool != nil {
		body.Tools = []openaiTool{{
			Type: "function",
			Function: openaiFunction{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.InputSchema,
			},
		}}
		body.ToolChoice = &openaiToolChoice{Type: "function", Function: openaiFunctionRef{Name: req.Tool.Name}}
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	return completeChat(ctx, o.client, o.baseURL, headers, body, o.log)
}

func chatRequest(model string, req Request) openaiRequest {
	body := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokens(req.MaxTokens),
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	return body
}

// completeChat runs an OpenAI-compatible chat completion.
func completeChat(ctx context.Context, client *http.Client, url string, headers map[string]string, body openaiRequest, log *slog.Logger) (Reply, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("marshaling request: %w", err)
	}

	var reply Reply
	err = retryWithBackoff(ctx, 3, log, func() error {
		respBody, err := post(ctx, client, url, headers, payload)
		if err != nil {
			return err
		}

		var result openaiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		msg := result.Choices[0].Message
		reply = Reply{TokensUsed: result.Usage.TotalTokens}
		if msg.Content != "" {
			reply.Blocks = append(reply.Blocks, Block{Kind: TextBlock, Text: msg.Content})
		}
		for _, call := range msg.ToolCalls {
			reply.Blocks = append(reply.Blocks, Block{
				Kind:     ToolUseBlock,
				ToolName: call.Function.Name,
				Input:    json.RawMessage(call.Function.Arguments),
			})
		}
		if len(reply.Blocks) == 0 {
			return fmt.Errorf("empty text content in API response")
		}
		return nil
	})

	return reply, err
}

type openaiRequest struct {
	Model       string            `json:"model"`
	Messages    []openaiMessage   `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature *float64          `json:"temperature,omitempty"`
	Tools       []openaiTool      `json:"tools,omitempty"`
	ToolChoice  *openaiToolChoice `json:"tool_choice,omitempty"`
}

type openaiMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []openaiToolCall `json:"tool_calls,omitempty"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type openaiToolChoice struct {
	Type     string            `json:"type"`
	Function openaiFunctionRef `json:"function"`
}

type openaiFunctionRef struct {
	Name string `json:"name"`
}

type openaiToolCall struct {
	Type     string             `json:"type"`
	Function openaiFunctionCall `json:"function"`
}

type openaiFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
