package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/export"
	"github.com/Veraticus/zenith/internal/importer"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/ofx"
	"github.com/Veraticus/zenith/internal/storage"
)

type emailRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	user, err := s.store.CreateUser(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, Token: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	user, err := s.store.GetUser(r.Context(), req.Email)
	if err != nil {
		if isNotFound(err) {
			writeMessage(w, http.StatusUnauthorized, storage.ErrUserNotFound.Error())
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: user.Email})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).User())
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := ws.Upgrade(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.User())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := ws.Reset(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.dropChat(ws.User().Email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Summarize(workspaceFrom(r.Context()).State(), metrics.MockPrices{}))
}

type monthlyResponse struct {
	Months   []metrics.MonthTotal    `json:"months"`
	NetWorth []metrics.NetWorthPoint `json:"netWorth"`
	Expenses []metrics.CategoryTotal `json:"expensesByCategory"`
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	state := workspaceFrom(r.Context()).State()
	months := metrics.Monthly(state)
	writeJSON(w, http.StatusOK, monthlyResponse{
		Months:   months,
		NetWorth: metrics.NetWorthSeries(months),
		Expenses: metrics.ExpensesByCategory(state),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, metrics.ScoreHealth(ws.State(), ws.Now(), ws.HealthPolicy()))
}

// handleDebt plans card payoff: ?strategy=avalanche|snowball&extra=100.
func (s *Server) handleDebt(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	q := r.URL.Query()

	strategy := metrics.Strategy(q.Get("strategy"))
	if strategy == "" {
		strategy = metrics.Avalanche
	}
	extra := decimal.Zero
	if v := q.Get("extra"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			writeMessage(w, http.StatusBadRequest, "extra must be a non-negative amount")
			return
		}
		extra = d
	}

	plan, err := metrics.PlanDebt(ws.State(), strategy, extra, s.minPayment, ws.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func monthsParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("months")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 24 {
		return 0, fmt.Errorf("%w: months must be between 1 and 24", errBadRequest)
	}
	return n, nil
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r, 6)
	if err != nil {
		s.writeError(w, err)
		return
	}
	state := workspaceFrom(r.Context()).State()
	summary := metrics.Summarize(state, metrics.MockPrices{})
	p, err := metrics.Project(metrics.Monthly(state), summary.NetWorth, months)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	inbox := workspaceFrom(r.Context()).Notifications()
	list := []model.Notification(inbox)
	if list == nil {
		list = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: list, Unread: inbox.UnreadCount()})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := workspaceFrom(r.Context()).MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := workspaceFrom(r.Context()).MarkAllRead(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	table, err := export.Build(ws.State(), chi.URLParam(r, "collection"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, table); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(table.Name, ws.Now())))
	_, _ = w.Write(buf.Bytes())
}

type importResponse struct {
	Added       []model.Transaction `json:"added"`
	Skipped     int                 `json:"skipped"`
	Categorized int                 `json:"categorized"`
}

// handleImportOFX reads an OFX file from the body into ?account=.
// ?dryRun=true previews without saving.
func (s *Server) handleImportOFX(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		writeMessage(w, http.StatusBadRequest, "account is required")
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))

	stmt, err := ofx.NewParser().Parse(r.Context(), io.LimitReader(r.Body, 10<<20))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	res, err := s.importer.Import(r.Context(), workspaceFrom(r.Context()), importer.Request{
		Source:       ofx.Source,
		AccountID:    accountID,
		Transactions: stmt.Transactions,
		DryRun:       dryRun,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	added := res.Added
	if added == nil {
		added = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, importResponse{Added: added, Skipped: res.Skipped, Categorized: res.Categorized})
}
