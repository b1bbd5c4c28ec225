package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/tui/themes"
)

type fakeSender struct {
	err      error
	reply    string
	sources  []llm.Source
	messages []string
	web      []bool
}

func (f *fakeSender) Send(_ context.Context, message string, webSearch bool, onChunk func(string) error) (assistant.Reply, error) {
	f.messages = append(f.messages, message)
	f.web = append(f.web, webSearch)
	if f.err != nil {
		return assistant.Reply{}, f.err
	}
	for _, part := range strings.SplitAfter(f.reply, " ") {
		if err := onChunk(part); err != nil {
			return assistant.Reply{}, err
		}
	}
	return assistant.Reply{Text: f.reply, Sources: f.sources}, nil
}

func newTestModel(sender Sender) *Model {
	cfg := defaultConfig()
	return newModel(context.Background(), sender, cfg)
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// drain feeds the running turn's events back into the model.
func drain(t *testing.T, m *Model) {
	t.Helper()
	for m.streaming {
		msg := waitForEvent(m.events)()
		m.Update(msg)
	}
}

func TestGreetingShown(t *testing.T) {
	m := newTestModel(&fakeSender{})
	require.Len(t, m.turns, 1)
	assert.Equal(t, assistant.Greeting, m.turns[0].text)
	assert.Contains(t, m.View(), "Zenith AI")
}

func TestSendStreamsReply(t *testing.T) {
	sender := &fakeSender{reply: "You spent $42 on food."}
	m := newTestModel(sender)

	typeText(m, "food?")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.streaming)
	assert.Empty(t, m.input.Value())

	drain(t, m)

	require.Len(t, m.turns, 3)
	assert.Equal(t, llm.RoleUser, m.turns[1].role)
	assert.Equal(t, "food?", m.turns[1].text)
	assert.Equal(t, "You spent $42 on food.", m.turns[2].text)
	assert.Equal(t, []string{"food?"}, sender.messages)
	assert.Contains(t, m.renderTranscript(), "You spent $42 on food.")
}

func TestEmptyInputIsIgnored(t *testing.T) {
	sender := &fakeSender{reply: "x"}
	m := newTestModel(sender)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.streaming)
	assert.Empty(t, sender.messages)
}

func TestFailedTurnIsRolledBack(t *testing.T) {
	sender := &fakeSender{err: errors.New("AI service error: chat: boom")}
	m := newTestModel(sender)

	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m)

	assert.Len(t, m.turns, 1)
	require.Error(t, m.lastError)
	assert.Contains(t, m.View(), "boom")
}

func TestWebSearchToggleAndSources(t *testing.T) {
	sender := &fakeSender{
		reply:   "Rates are up.",
		sources: []llm.Source{{URI: "https://example.com/rates", Title: "Rates"}},
	}
	m := newTestModel(sender)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.True(t, m.webSearch)

	typeText(m, "rates?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m)

	assert.Equal(t, []bool{true}, sender.web)
	assert.Contains(t, m.renderTranscript(), "[1] Rates https://example.com/rates")
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&fakeSender{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestResizeAndTheme(t *testing.T) {
	m := newModel(context.Background(), &fakeSender{}, Config{Theme: themes.ByName("mocha"), Width: 100, Height: 40})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	assert.Equal(t, 120, m.viewport.Width)
	assert.Greater(t, m.viewport.Height, 3)
	assert.Equal(t, themes.CatppuccinMocha.Primary, m.theme.Primary)
}
