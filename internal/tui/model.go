// Package tui is an interactive terminal chat with the finance assistant.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/tui/themes"
)

// turn is one rendered message in the transcript.
type turn struct {
	role    llm.Role
	text    string
	sources []llm.Source
}

// Model holds the chat TUI state.
type Model struct {
	ctx       context.Context
	sender    Sender
	lastError error
	events    <-chan tea.Msg
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	input     textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model
	turns     []turn
	partial   strings.Builder
	width     int
	height    int
	webSearch bool
	streaming bool
	showHelp  bool
}

func newModel(ctx context.Context, sender Sender, cfg Config) *Model {
	input := textarea.New()
	input.Placeholder = "Ask about your finances..."
	input.ShowLineNumbers = false
	input.SetHeight(2)
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = cfg.Theme.StatusPending

	m := &Model{
		ctx:       ctx,
		sender:    sender,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		input:     input,
		viewport:  viewport.New(cfg.Width, 1),
		spinner:   sp,
		webSearch: cfg.WebSearch,
		turns:     []turn{{role: llm.RoleModel, text: cfg.Greeting}},
	}
	m.resize(cfg.Width, cfg.Height)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.showHelp = !m.showHelp
			m.resize(m.width, m.height)
			return m, nil
		case key.Matches(msg, m.keymap.WebSearch):
			m.webSearch = !m.webSearch
			return m, nil
		case key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case key.Matches(msg, m.keymap.Send):
			return m, m.send()
		}

	case chunkMsg:
		m.partial.WriteString(msg.text)
		m.refresh()
		return m, waitForEvent(m.events)

	case replyMsg:
		m.finishTurn()
		m.turns = append(m.turns, turn{role: llm.RoleModel, text: msg.reply.Text, sources: msg.reply.Sources})
		m.refresh()
		return m, nil

	case errorMsg:
		m.finishTurn()
		m.turns = m.turns[:len(m.turns)-1]
		m.lastError = msg.err
		m.refresh()
		return m, nil

	case streamClosedMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.streaming {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// send starts a turn with the input text. The user's turn is shown at
// once and removed again if the request fails.
func (m *Model) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if m.streaming || text == "" {
		return nil
	}
	m.input.Reset()
	m.lastError = nil
	m.streaming = true
	m.partial.Reset()
	m.turns = append(m.turns, turn{role: llm.RoleUser, text: text})
	m.events = startTurn(m.ctx, m.sender, text, m.webSearch)
	m.refresh()
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m *Model) finishTurn() {
	m.streaming = false
	m.partial.Reset()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(max(width-2, 10))
	m.help.Width = width

	// title, status line, input and help
	chrome := 2 + 1 + m.input.Height() + 2 + 1
	if m.showHelp {
		chrome += 3
	}
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 3)
	m.refresh()
}

// refresh re-renders the transcript into the viewport and follows the
// newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
