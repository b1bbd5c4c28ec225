package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/export"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/storage"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ledger.ErrNotFound) || errors.Is(err, common.ErrNotFound) || errors.Is(err, export.ErrUnknownCollection)
}

func statusFor(err error) int {
	var aiErr *assistant.Error
	switch {
	case isNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInUse),
		errors.Is(err, ledger.ErrProtectedCategory),
		errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrBudgetLimit):
		return http.StatusForbidden
	case errors.Is(err, errBadRequest),
		errors.Is(err, ledger.ErrInvalid),
		errors.Is(err, storage.ErrInvalidEmail),
		errors.Is(err, storage.ErrEmptyString),
		errors.Is(err, metrics.ErrNoDebt),
		errors.Is(err, metrics.ErrMissingInterest),
		errors.Is(err, metrics.ErrUnknownStrategy),
		errors.Is(err, metrics.ErrInsufficientHistory),
		errors.Is(err, export.ErrNoData):
		return http.StatusBadRequest
	case errors.As(err, &aiErr):
		if aiErr.Kind == assistant.KindInsufficientData {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError maps err onto a status. Internal errors are logged and
// reported without detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		writeMessage(w, status, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}
