package tui

import "github.com/Veraticus/zenith/internal/assistant"

// chunkMsg carries one streamed text fragment.
type chunkMsg struct {
	text string
}

// replyMsg ends a turn successfully.
type replyMsg struct {
	reply assistant.Reply
}

// errorMsg ends a turn with a failure; the conversation is unchanged.
type errorMsg struct {
	err error
}

// streamClosedMsg is sent when the event channel has been drained.
type streamClosedMsg struct{}
