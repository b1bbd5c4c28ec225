package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiBuild(t *testing.T) {
	c := &geminiClient{model: DefaultGeminiModel, temperature: Temp(0.3), maxTokens: 512}

	contents, cfg := c.build(Request{
		System:      "sys",
		Prompt:      "read this receipt",
		Temperature: Temp(0),
		Schema:      Object(map[string]*Schema{"amount": Number("")}, "amount"),
		History:     []Message{{Role: RoleModel, Text: "earlier"}},
		Images:      []Image{{MIMEType: "image/jpeg", Data: []byte{0xff}}},
		Grounding:   true,
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "model", contents[0].Role)
	assert.Equal(t, "user", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "image/jpeg", contents[1].Parts[1].InlineData.MIMEType)

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0, *cfg.Temperature, 1e-9)
	assert.Equal(t, int32(512), cfg.MaxOutputTokens)
	assert.Equal(t, "sys", cfg.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, genai.Type("OBJECT"), cfg.ResponseSchema.Type)
	require.Len(t, cfg.Tools, 1)
	assert.NotNil(t, cfg.Tools[0].GoogleSearch)
}

func TestGeminiGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultGeminiModel+":generateContent"), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Index funds are "}, {"text": "diversified."}]},
				"groundingMetadata": {"groundingChunks": [
					{"web": {"uri": "https://a.example", "title": "A"}},
					{"web": {"uri": "https://a.example", "title": "A again"}},
					{"web": {"uri": "https://b.example", "title": "B"}}
				]}
			}]
		}`)
	}))
	defer server.Close()

	client, err := newGeminiClient(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), Request{Prompt: "what is an index fund", Grounding: true})
	require.NoError(t, err)
	assert.Equal(t, "Index funds are diversified.", resp.Text)
	assert.Equal(t, []Source{{URI: "https://a.example", Title: "A"}, {URI: "https://b.example", Title: "B"}}, resp.Sources)
}

func TestGeminiError(t *testing.T) {
	err := geminiError(genai.APIError{Code: 403, Message: "denied"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 403, statusErr.Code)
	assert.Equal(t, "Gemini", statusErr.Provider)

	err = geminiError(fmt.Errorf("dial tcp: refused"))
	assert.False(t, errors.As(err, &statusErr))
	assert.Contains(t, err.Error(), "gemini request failed")
}
