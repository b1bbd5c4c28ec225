package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// geminiClient implements Client over the genai SDK.
type geminiClient struct {
	client      *genai.Client
	temperature *float32
	model       string
	maxTokens   int32
}

// newGeminiClient creates a Gemini API client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(cfg),
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := &geminiClient{
		client:    client,
		model:     model,
		maxTokens: int32(cfg.MaxTokens),
	}
	if cfg.Temperature > 0 {
		c.temperature = Temp(float32(cfg.Temperature))
	}
	return c, nil
}

func (c *geminiClient) modelFor(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

// build converts a request into genai contents and config.
func (c *geminiClient) build(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		contents = append(contents, &genai.Content{Role: string(m.Role), Parts: []*genai.Part{{Text: m.Text}}})
	}

	parts := []*genai.Part{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
		})
	}
	contents = append(contents, &genai.Content{Role: string(RoleUser), Parts: parts})

	cfg := &genai.GenerateContentConfig{Temperature: c.temperature}
	if req.Temperature != nil {
		cfg.Temperature = req.Temperature
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema.toGenai()
	}
	if req.Grounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return contents, cfg
}

// Generate implements Client.
func (c *geminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	contents, cfg := c.build(req)
	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(req), contents, cfg)
	if err != nil {
		return Response{}, geminiError(err)
	}
	return Response{Text: resp.Text(), Sources: dedupSources(groundingSources(resp))}, nil
}

// Stream implements Client.
func (c *geminiClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	contents, cfg := c.build(req)

	var text strings.Builder
	var sources []Source
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.modelFor(req), contents, cfg) {
		if err != nil {
			return Response{}, geminiError(err)
		}
		chunk := resp.Text()
		sources = append(sources, groundingSources(resp)...)
		if chunk == "" {
			continue
		}
		text.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return Response{}, err
			}
		}
	}
	return Response{Text: text.String(), Sources: dedupSources(sources)}, nil
}

// Close implements Client.
func (c *geminiClient) Close() error {
	return nil
}

func groundingSources(resp *genai.GenerateContentResponse) []Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}

// geminiError maps SDK API errors onto StatusError.
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return &StatusError{Provider: "Gemini", Code: code, Body: apiErr.Message}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
