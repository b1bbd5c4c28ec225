package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/model"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeClient answers every request with reply, or with the result of
// respond when set.
type fakeClient struct {
	respond  func(req llm.Request) (llm.Response, error)
	err      error
	reply    string
	requests []llm.Request
	mu       sync.Mutex
}

func (f *fakeClient) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(req)
	}
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.reply}, nil
}

func (f *fakeClient) Stream(ctx context.Context, req llm.Request, onChunk func(string) error) (llm.Response, error) {
	resp, err := f.Generate(ctx, req)
	if err != nil {
		return resp, err
	}
	if onChunk != nil {
		for _, word := range splitKeep(resp.Text) {
			if err := onChunk(word); err != nil {
				return llm.Response{}, err
			}
		}
	}
	return resp, nil
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) last() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// splitKeep splits after each space so the pieces concatenate back.
func splitKeep(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == ' ' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func newTestAssistant(client llm.Client) *Assistant {
	return New(client, WithClock(func() time.Time { return now }))
}

func dateAt(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expense(id, amount, cat string, date time.Time) model.Transaction {
	return model.Transaction{
		ID: id, Type: model.TransactionExpense, Amount: d(amount),
		CategoryID: cat, AccountID: "acc-1", Date: date, Description: "expense " + id,
	}
}

func stateWith(txns ...model.Transaction) *ledger.State {
	s := ledger.DefaultState()
	s.Accounts = []model.Account{{ID: "acc-1", Name: "Checking", Type: model.AccountChecking, Balance: d("1000")}}
	s.Transactions = txns
	return s
}
