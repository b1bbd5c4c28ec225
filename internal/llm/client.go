package llm

import (
	"context"
	"fmt"
)

// Client generates text from a hosted model.
type Client interface {
	// Generate returns the full response to req.
	Generate(ctx context.Context, req Request) (Response, error)
	// Stream calls onChunk with each text fragment as it arrives and returns
	// the accumulated response. An error from onChunk stops the stream.
	Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error)
	// Close releases background resources.
	Close() error
}

// Role identifies the author of a chat turn.
type Role string

// Chat roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a prior chat turn.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Image is inline image data sent with a prompt.
type Image struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Request is one generation call.
type Request struct {
	// Temperature overrides the client default when set.
	Temperature *float32 `json:"temperature,omitempty"`
	// Schema asks for JSON output matching it.
	Schema  *Schema   `json:"schema,omitempty"`
	Model   string    `json:"model,omitempty"`
	System  string    `json:"system,omitempty"`
	Prompt  string    `json:"prompt"`
	Images  []Image   `json:"images,omitempty"`
	History []Message `json:"history,omitempty"`
	// Grounding enables web search citations where the provider supports it.
	Grounding bool `json:"grounding,omitempty"`
}

// Temp returns a temperature pointer for Request literals.
func Temp(t float32) *float32 {
	return &t
}

// Source is a web citation returned with a grounded response.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Response is generated text plus any citations.
type Response struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// StatusError is a non-success reply from a provider.
type StatusError struct {
	Provider string
	Body     string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Code, e.Body)
}

// dedupSources drops repeated URIs, keeping the first title seen.
func dedupSources(sources []Source) []Source {
	seen := make(map[string]bool, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.URI == "" || seen[s.URI] {
			continue
		}
		seen[s.URI] = true
		out = append(out, s)
	}
	return out
}
