package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/zenith/internal/llm"
)

// validator is implemented by results that check their own shape after
// decoding.
type validator interface {
	validate() error
}

// decodeStrict parses a model reply into T. Fences are stripped, unknown
// fields are rejected and the result is validated.
func decodeStrict[T any](op, raw string) (T, error) {
	var out T

	cleaned := llm.CleanJSON(raw)
	if cleaned == "" {
		return out, &Error{Op: op, Kind: KindMalformed, Msg: "empty response"}
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, decodeError(op, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return out, &Error{Op: op, Kind: KindMalformed, Msg: "trailing data after JSON value"}
	}

	if v, ok := any(&out).(validator); ok {
		if err := v.validate(); err != nil {
			return out, &Error{Op: op, Kind: KindSchema, Err: err}
		}
	}
	return out, nil
}

func decodeError(op string, err error) *Error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &Error{Op: op, Kind: KindMalformed, Err: err, Msg: "response was not valid JSON"}
	}
	return &Error{Op: op, Kind: KindSchema, Err: err, Msg: fmt.Sprintf("response did not match the expected format: %v", err)}
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("missing %s", name)
	}
	return nil
}
