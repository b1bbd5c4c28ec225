package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// startTurn sends message in the background. Events arrive on the
// returned channel, ending with a replyMsg or errorMsg.
func startTurn(ctx context.Context, sender Sender, message string, webSearch bool) <-chan tea.Msg {
	events := make(chan tea.Msg, 16)
	go func() {
		defer close(events)
		reply, err := sender.Send(ctx, message, webSearch, func(chunk string) error {
			select {
			case events <- chunkMsg{text: chunk}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			events <- errorMsg{err: err}
			return
		}
		events <- replyMsg{reply: reply}
	}()
	return events
}

// waitForEvent reads the next event of a running turn.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return msg
	}
}
