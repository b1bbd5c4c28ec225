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

const openAIBaseURL = "https://api.openai.com/v1"

// openAIClient implements the Client interface for OpenAI API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
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
		baseURL = openAIBaseURL
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  newHTTPClient(cfg),
	}, nil
}

// openAIContentPart is one element of a multimodal user message.
type openAIContentPart struct {
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type openAIMessage struct {
	Content any    `json:"content"`
	Role    string `json:"role"`
}

func (c *openAIClient) body(req Request, stream bool) map[string]any {
	messages := make([]openAIMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.History {
		role := "user"
		if m.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, openAIMessage{Role: role, Content: m.Text})
	}

	if len(req.Images) == 0 {
		messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})
	} else {
		parts := []openAIContentPart{{Type: "text", Text: req.Prompt}}
		for _, img := range req.Images {
			part := openAIContentPart{Type: "image_url"}
			part.ImageURL = &struct {
				URL string `json:"url"`
			}{URL: "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)}
			parts = append(parts, part)
		}
		messages = append(messages, openAIMessage{Role: "user", Content: parts})
	}

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
		"temperature": temperature,
		"max_tokens":  c.maxTokens,
	}
	if req.Schema != nil {
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": req.Schema.JSONSchema(),
			},
		}
	}
	if stream {
		body["stream"] = true
	}
	return body
}

func (c *openAIClient) do(ctx context.Context, body map[string]any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Provider: "OpenAI", Code: resp.StatusCode, Body: string(errBody)}
	}
	return resp, nil
}

// Generate implements Client.
func (c *openAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := c.do(ctx, c.body(req, false))
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var response openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Choices) == 0 {
		return Response{}, fmt.Errorf("no completion choices returned")
	}
	return Response{Text: response.Choices[0].Message.Content}, nil
}

// Stream implements Client.
func (c *openAIClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	resp, err := c.do(ctx, c.body(req, true))
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var text strings.Builder
	err = readSSE(resp.Body, func(data string) (bool, error) {
		if data == "[DONE]" {
			return true, nil
		}
		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return false, fmt.Errorf("failed to parse stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			return false, nil
		}
		delta := chunk.Choices[0].Delta.Content
		text.WriteString(delta)
		if onChunk != nil {
			return false, onChunk(delta)
		}
		return false, nil
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text.String()}, nil
}

// Close implements Client.
func (c *openAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
