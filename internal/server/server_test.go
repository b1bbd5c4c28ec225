package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/testutil"
	"github.com/Veraticus/zenith/internal/workspace"
)

const testUser = "ada@example.com"

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type scriptedLLM struct {
	reply string
}

func (s *scriptedLLM) Generate(context.Context, llm.Request) (llm.Response, error) {
	return llm.Response{Text: s.reply}, nil
}

func (s *scriptedLLM) Stream(_ context.Context, _ llm.Request, onChunk func(string) error) (llm.Response, error) {
	for _, part := range strings.SplitAfter(s.reply, " ") {
		if err := onChunk(part); err != nil {
			return llm.Response{}, err
		}
	}
	return llm.Response{Text: s.reply}, nil
}

func (s *scriptedLLM) Close() error { return nil }

func newTestServer(t *testing.T, client llm.Client) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	db.SeedUser(testUser, nil)

	clock := func() time.Time { return testNow }
	cfg := Config{
		Store:   db.Storage,
		Manager: workspace.NewManager(db.Storage, workspace.WithClock(clock)),
	}
	if client != nil {
		cfg.Assistant = assistant.New(client, assistant.WithClock(clock))
	}
	return New(cfg).Handler()
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/accounts", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/accounts", "nobody@example.com", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/accounts", testUser, nil).Code)
}

func TestSignupAndLogin(t *testing.T) {
	h := newTestServer(t, nil)

	rec := call(t, h, http.MethodPost, "/api/auth/signup", "", emailRequest{Email: "Grace@Example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, "grace@example.com", session.Token)
	assert.Equal(t, model.PlanFree, session.User.Plan)

	rec = call(t, h, http.MethodPost, "/api/auth/signup", "", emailRequest{Email: "grace@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/auth/signup", "", emailRequest{Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/auth/login", "", emailRequest{Email: "missing@example.com"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/auth/login", "", emailRequest{Email: "grace@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountAndTransactionFlow(t *testing.T) {
	h := newTestServer(t, nil)

	rec := call(t, h, http.MethodPost, "/api/accounts", testUser, map[string]any{
		"name": "Checking", "type": "checking", "balance": "1000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	acct := decodeBody[model.Account](t, rec)
	assert.Equal(t, model.AccountChecking, acct.Type)

	rec = call(t, h, http.MethodPost, "/api/transactions", testUser, map[string]any{
		"description": "Groceries",
		"amount":      "42.50",
		"type":        "Expense",
		"categoryId":  "cat-1",
		"accountId":   acct.ID,
		"date":        testNow.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	accounts := decodeBody[[]model.Account](t, call(t, h, http.MethodGet, "/api/accounts", testUser, nil))
	require.Len(t, accounts, 1)
	assert.Equal(t, "957.5", accounts[0].Balance.String())

	txns := decodeBody[[]model.Transaction](t, call(t, h, http.MethodGet, "/api/transactions?category=cat-1", testUser, nil))
	require.Len(t, txns, 1)
	assert.Equal(t, "Groceries", txns[0].Description)

	rec = call(t, h, http.MethodDelete, "/api/accounts/"+acct.ID, testUser, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "accounts with transactions cannot be deleted")

	rec = call(t, h, http.MethodDelete, "/api/transactions/"+txns[0].ID, testUser, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		body   any
		name   string
		method string
		path   string
		want   int
	}{
		{name: "unknown account type", method: http.MethodPost, path: "/api/accounts", body: map[string]any{"name": "X", "type": "boat"}, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/api/categories", body: map[string]any{"title": "X"}, want: http.StatusBadRequest},
		{name: "missing goal", method: http.MethodDelete, path: "/api/goals/nope", want: http.StatusNotFound},
		{name: "protected category", method: http.MethodDelete, path: "/api/categories/" + model.CategoryOtherID, want: http.StatusConflict},
		{name: "no debt", method: http.MethodGet, path: "/api/debt", want: http.StatusBadRequest},
		{name: "bad months", method: http.MethodGet, path: "/api/forecast?months=99", want: http.StatusBadRequest},
		{name: "export needs premium", method: http.MethodGet, path: "/api/export/transactions", want: http.StatusForbidden},
		{name: "ai not configured", method: http.MethodGet, path: "/api/ai/briefing", want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, h, tt.method, tt.path, testUser, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestBudgetLimitAndUpgrade(t *testing.T) {
	h := newTestServer(t, nil)

	for i := 1; i <= model.FreeBudgetLimit; i++ {
		rec := call(t, h, http.MethodPut, fmt.Sprintf("/api/budgets/cat-%d", i), testUser, map[string]any{"amount": "100"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := call(t, h, http.MethodPut, "/api/budgets/cat-5", testUser, map[string]any{"amount": "100"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/me/upgrade", testUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PlanPremium, decodeBody[model.User](t, rec).Plan)

	rec = call(t, h, http.MethodPut, "/api/budgets/cat-5", testUser, map[string]any{"amount": "100"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportCSV(t *testing.T) {
	h := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/api/me/upgrade", testUser, nil).Code)

	rec := call(t, h, http.MethodGet, "/api/export/categories", testUser, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "zenith_categories_2025-03-15.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id,name\n"))
	assert.Contains(t, rec.Body.String(), `"cat-1","Food"`)

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/export/widgets", testUser, nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodGet, "/api/export/goals", testUser, nil).Code)
}

func TestNotificationsEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	rec := call(t, h, http.MethodGet, "/api/notifications", testUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeBody[notificationsResponse](t, rec).Notifications)

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/api/notifications/nope/read", testUser, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodPost, "/api/notifications/read", testUser, nil).Code)

	body := decodeBody[notificationsResponse](t, call(t, h, http.MethodGet, "/api/notifications", testUser, nil))
	assert.Equal(t, 0, body.Unread)
}

func TestSuggestCategory(t *testing.T) {
	h := newTestServer(t, &scriptedLLM{reply: `{"categoryId":"cat-2"}`})

	rec := call(t, h, http.MethodPost, "/api/ai/suggest-category", testUser, suggestCategoryRequest{Description: "Uber ride"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cat-2", decodeBody[map[string]string](t, rec)["categoryId"])

	rec = call(t, h, http.MethodPost, "/api/ai/suggest-category", testUser, suggestCategoryRequest{Description: " "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMalformedAIReplyIsBadGateway(t *testing.T) {
	h := newTestServer(t, &scriptedLLM{reply: "not json"})

	rec := call(t, h, http.MethodPost, "/api/ai/tactics/drills", testUser, textRequest{Text: "defending rucks"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChatStreamsEvents(t *testing.T) {
	h := newTestServer(t, &scriptedLLM{reply: "You spent nothing."})

	rec := call(t, h, http.MethodPost, "/api/ai/chat", testUser, chatRequest{Message: "How much did I spend?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: chunk\n"))
	assert.Contains(t, body, `data: {"text":"You "}`)
	assert.Contains(t, body, "event: done\n"+`data: {"text":"You spent nothing."}`)

	rec = call(t, h, http.MethodPost, "/api/ai/chat", testUser, chatRequest{Message: ""})
	assert.Contains(t, rec.Body.String(), "event: error")

	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodDelete, "/api/ai/chat", testUser, nil).Code)
}
