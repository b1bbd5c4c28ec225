package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/zenith/internal/llm"
)

// Kind classifies an AI failure.
type Kind int

// Failure kinds.
const (
	// KindNetwork covers transport failures and cancellation.
	KindNetwork Kind = iota + 1
	// KindStatus is a non-success reply from the provider.
	KindStatus
	// KindMalformed is a reply that is not valid JSON.
	KindMalformed
	// KindSchema is valid JSON of the wrong shape.
	KindSchema
	// KindInsufficientData means the ledger holds too little to ask about.
	KindInsufficientData
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindSchema:
		return "schema"
	case KindInsufficientData:
		return "insufficient data"
	}
	return "unknown"
}

// Error is the only error type returned by the assistant.
type Error struct {
	Err  error
	Op   string
	Msg  string
	Kind Kind
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return "AI service error: " + msg
	}
	return fmt.Sprintf("AI service error: %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var aiErr *Error
	return errors.As(err, &aiErr) && aiErr.Kind == k
}

func insufficient(op, msg string) *Error {
	return &Error{Op: op, Kind: KindInsufficientData, Msg: msg}
}

// callError classifies a failure from the llm client.
func callError(op string, err error) *Error {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return &Error{Op: op, Kind: KindStatus, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Kind: KindNetwork, Err: err, Msg: "request canceled or timed out"}
	}
	return &Error{Op: op, Kind: KindNetwork, Err: err}
}
