package tui

import (
	"context"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/tui/themes"
)

// Sender is a conversation turn taker; *assistant.Chat implements it.
type Sender interface {
	Send(ctx context.Context, message string, webSearch bool, onChunk func(string) error) (assistant.Reply, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Greeting  string
	Width     int
	Height    int
	WebSearch bool
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Greeting:  assistant.Greeting,
		Width:     80,
		Height:    24,
		AltScreen: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) { c.Theme = theme }
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithWebSearch starts the chat with web search grounding on.
func WithWebSearch(enabled bool) Option {
	return func(c *Config) { c.WebSearch = enabled }
}

// WithAltScreen controls whether the TUI takes over the full terminal.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) { c.AltScreen = enabled }
}
