package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
)

// anthropicClient implements the Client interface for Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  newHTTPClient(cfg),
	}, nil
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicBlock struct {
	Source *anthropicSource `json:"source,omitempty"`
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

func (c *anthropicClient) body(req Request, stream bool) map[string]any {
	messages := make([]anthropicMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		role := "user"
		if m.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, anthropicMessage{Role: role, Content: []anthropicBlock{{Type: "text", Text: m.Text}}})
	}

	prompt := req.Prompt
	if req.Schema != nil {
		prompt += schemaInstruction(req.Schema)
	}
	blocks := make([]anthropicBlock, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropicBlock{
			Type: "image",
			Source: &anthropicSource{
				Type:      "base64",
				MediaType: img.MIMEType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	blocks = append(blocks, anthropicBlock{Type: "text", Text: prompt})
	messages = append(messages, anthropicMessage{Role: "user", Content: blocks})

	temperature := c.temperature
	if req.Temperature != nil {
		temperature = float64(*req.Temperature)
	}
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	body := map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  c.maxTokens,
		"temperature": temperature,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if stream {
		body["stream"] = true
	}
	return body
}

func (c *anthropicClient) do(ctx context.Context, body map[string]any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Provider: "Anthropic", Code: resp.StatusCode, Body: string(errBody)}
	}
	return resp, nil
}

// Generate implements Client.
func (c *anthropicClient) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := c.do(ctx, c.body(req, false))
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var response anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Response{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Response{}, fmt.Errorf("no content returned")
	}
	return Response{Text: text.String()}, nil
}

// Stream implements Client.
func (c *anthropicClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	resp, err := c.do(ctx, c.body(req, true))
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var text strings.Builder
	err = readSSE(resp.Body, func(data string) (bool, error) {
		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return false, fmt.Errorf("failed to parse stream event: %w", err)
		}
		switch event.Type {
		case "message_stop":
			return true, nil
		case "error":
			return false, &StatusError{Provider: "Anthropic", Code: http.StatusInternalServerError, Body: event.Error.Message}
		case "content_block_delta":
			if event.Delta.Text == "" {
				return false, nil
			}
			text.WriteString(event.Delta.Text)
			if onChunk != nil {
				return false, onChunk(event.Delta.Text)
			}
		}
		return false, nil
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text.String()}, nil
}

// Close implements Client.
func (c *anthropicClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
