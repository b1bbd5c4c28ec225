package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/zenith/internal/workspace"
)

type ctxKey struct{}

func workspaceFrom(ctx context.Context) *workspace.Workspace {
	w, _ := ctx.Value(ctxKey{}).(*workspace.Workspace)
	return w
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authenticate resolves the bearer email to the user's workspace.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		email, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(email) == "" {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		ws, err := s.manager.Get(r.Context(), strings.TrimSpace(email))
		if err != nil {
			if isNotFound(err) {
				writeMessage(w, http.StatusUnauthorized, "unknown user")
				return
			}
			s.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, ws)))
	})
}

func requirePremium(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !workspaceFrom(r.Context()).User().IsPremium() {
			writeMessage(w, http.StatusForbidden, "this feature requires the premium plan")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAssistant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.assistant == nil {
			writeMessage(w, http.StatusServiceUnavailable, "AI features are not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}
