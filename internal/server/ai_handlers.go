package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
)

type suggestCategoryRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	var req suggestCategoryRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	id, err := s.assistant.SuggestCategory(r.Context(), req.Description, workspaceFrom(r.Context()).State().Categories)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"categoryId": id})
}

func (s *Server) handleSuggestBudgets(w http.ResponseWriter, r *http.Request) {
	out, err := s.assistant.SuggestBudgets(r.Context(), workspaceFrom(r.Context()).State())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	out, err := s.assistant.MonthlyBriefing(r.Context(), workspaceFrom(r.Context()).State())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAIForecast(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r, 3)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.assistant.Forecast(r.Context(), workspaceFrom(r.Context()).State(), months)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type receiptRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: image must be base64: %w", errBadRequest, err))
		return
	}
	if req.MIMEType == "" {
		req.MIMEType = "image/jpeg"
	}
	out, err := s.assistant.ParseReceipt(r.Context(), image, req.MIMEType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type healthAnalysisResponse struct {
	Analysis assistant.HealthAnalysis `json:"analysis"`
	Health   metrics.Health           `json:"health"`
}

func (s *Server) handleHealthAnalysis(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	h := metrics.ScoreHealth(ws.State(), ws.Now(), ws.HealthPolicy())
	out, err := s.assistant.HealthAnalysis(r.Context(), h)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthAnalysisResponse{Health: h, Analysis: out})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	out, err := s.assistant.FinancialReport(r.Context(), workspaceFrom(r.Context()).State())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := s.assistant.Dashboard(r.Context(), workspaceFrom(r.Context()).State())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type chatRequest struct {
	Message   string `json:"message"`
	WebSearch bool   `json:"webSearch"`
}

// chatFor returns the user's conversation, starting one over the current
// ledger if none is open.
func (s *Server) chatFor(email string, state *ledger.State) *assistant.Chat {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if c, ok := s.chats[email]; ok {
		return c
	}
	c := s.assistant.NewChat(state)
	s.chats[email] = c
	return c
}

func (s *Server) dropChat(email string) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	delete(s.chats, email)
}

// handleChat streams the reply as server-sent events: one "chunk" event
// per text fragment, then "done" with the full reply or "error".
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ws := workspaceFrom(r.Context())
	chat := s.chatFor(ws.User().Email, ws.State())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	reply, err := chat.Send(r.Context(), req.Message, req.WebSearch, func(chunk string) error {
		if err := writeEvent(w, "chunk", map[string]string{"text": chunk}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.logger.Warn("chat failed", "error", err)
		_ = writeEvent(w, "error", errorBody{Error: err.Error()})
		flusher.Flush()
		return
	}
	_ = writeEvent(w, "done", reply)
	flusher.Flush()
}

func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	s.dropChat(workspaceFrom(r.Context()).User().Email)
	w.WriteHeader(http.StatusNoContent)
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleFootage(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	out, err := s.assistant.AnalyzeFootage(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDrills(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	out, err := s.assistant.GenerateDrills(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearchTactics(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	out, err := s.assistant.SearchTactics(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var feedback []assistant.Feedback
	if !s.decodeInto(w, r, &feedback) {
		return
	}
	out, err := s.assistant.AnalyzePlayerFeedback(r.Context(), feedback)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
