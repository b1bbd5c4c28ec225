package plaid

import (
	"context"
)

// MockClient is a scripted Fetcher for tests and offline runs.
type MockClient struct {
	SyncFn        func(ctx context.Context, cursor string) (SyncResult, error)
	GetAccountsFn func(ctx context.Context) ([]Account, error)

	SyncCalls        []string
	GetAccountsCalls int
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Sync implements Fetcher.
func (m *MockClient) Sync(ctx context.Context, cursor string) (SyncResult, error) {
	m.SyncCalls = append(m.SyncCalls, cursor)
	if m.SyncFn != nil {
		return m.SyncFn(ctx, cursor)
	}
	return SyncResult{NextCursor: cursor}, nil
}

// GetAccounts implements Fetcher.
func (m *MockClient) GetAccounts(ctx context.Context) ([]Account, error) {
	m.GetAccountsCalls++
	if m.GetAccountsFn != nil {
		return m.GetAccountsFn(ctx)
	}
	return nil, nil
}

var _ Fetcher = (*MockClient)(nil)
