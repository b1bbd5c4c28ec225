package assistant

import (
	"context"
	"strings"
	"sync"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/metrics"
)

// ChatContextSize is how many recent transactions a chat sees.
const ChatContextSize = 50

// Greeting is the assistant's opening line in a new chat.
const Greeting = "Hello! I'm Zenith AI. How can I help you understand your finances today? For general questions, enable web search."

const chatAck = "Understood. I've reviewed your data and am ready to help. For broader financial questions, please enable web search."

// Reply is one answer in a chat.
type Reply struct {
	Text    string       `json:"text"`
	Sources []llm.Source `json:"sources,omitempty"`
}

// Chat is a conversation grounded in a ledger snapshot. Turns are
// serialized; a failed turn leaves the history unchanged.
type Chat struct {
	a       *Assistant
	system  string
	history []llm.Message
	mu      sync.Mutex
}

// NewChat starts a conversation about s.
func (a *Assistant) NewChat(s *ledger.State) *Chat {
	recent := s.Transactions
	if len(recent) > ChatContextSize {
		recent = recent[:ChatContextSize]
	}
	data := map[string]any{
		"transactions": recent,
		"budgets":      s.Budgets,
		"goals":        s.Goals,
		"accounts":     s.Accounts,
		"categories":   s.Categories,
		"summary":      metrics.Summarize(s, metrics.MockPrices{}),
	}

	system := "You are 'Zenith AI', a friendly and insightful personal finance assistant. " +
		"Your knowledge is strictly limited to the JSON data provided unless the user enables web search. " +
		"The user's expense categories are custom, so use the provided 'categories' list to map 'categoryId' in transactions and budgets to a human-readable name. " +
		"Analyze the data to answer user questions concisely. Do not mention you are an AI. " +
		"Current Date: " + a.now().Format("1/2/2006")

	return &Chat{
		a:      a,
		system: system,
		history: []llm.Message{
			{Role: llm.RoleUser, Text: "Here is my financial data. Please analyze it for my questions: " + compact(data)},
			{Role: llm.RoleModel, Text: chatAck},
		},
	}
}

// Send asks a question. Text fragments are passed to onChunk as they
// stream in; the accumulated reply carries sources deduplicated by URI
// when webSearch is on.
func (c *Chat) Send(ctx context.Context, message string, webSearch bool, onChunk func(string) error) (Reply, error) {
	const op = "chat"
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, insufficient(op, "message is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req := llm.Request{
		Model:     c.a.model,
		System:    c.system,
		Prompt:    message,
		History:   append([]llm.Message(nil), c.history...),
		Grounding: webSearch,
	}
	resp, err := c.a.client.Stream(ctx, req, onChunk)
	if err != nil {
		c.a.logger.Error("chat turn failed", "error", err)
		return Reply{}, callError(op, err)
	}

	c.history = append(c.history,
		llm.Message{Role: llm.RoleUser, Text: message},
		llm.Message{Role: llm.RoleModel, Text: resp.Text},
	)
	return Reply{Text: resp.Text, Sources: resp.Sources}, nil
}

// Turns returns the visible conversation, excluding the seeded data turn.
func (c *Chat) Turns() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []llm.Message{{Role: llm.RoleModel, Text: Greeting}}
	return append(out, c.history[2:]...)
}
