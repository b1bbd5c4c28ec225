package workspace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Veraticus/zenith/internal/service"
)

// Manager caches open workspaces by user for long-running processes.
type Manager struct {
	store  service.Storage
	open   map[string]*Workspace
	logger *slog.Logger
	opts   []Option
	mu     sync.Mutex
}

// NewManager creates a Manager that opens workspaces with opts.
func NewManager(store service.Storage, opts ...Option) *Manager {
	return &Manager{
		store:  store,
		open:   make(map[string]*Workspace),
		opts:   opts,
		logger: slog.Default().With("component", "workspace-manager"),
	}
}

// Get returns the workspace for email, opening it on first use.
func (m *Manager) Get(ctx context.Context, email string) (*Workspace, error) {
	user, err := m.store.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.open[user.Email]; ok {
		return w, nil
	}
	w, err := Open(ctx, m.store, user.Email, m.opts...)
	if err != nil {
		return nil, err
	}
	m.open[user.Email] = w
	return w, nil
}

// CatchUpAll runs recurring catch-up for every registered user. Failures
// are logged and do not stop the remaining users.
func (m *Manager) CatchUpAll(ctx context.Context) (int, error) {
	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, u := range users {
		w, err := m.Get(ctx, u.Email)
		if err != nil {
			m.logger.Error("failed to open workspace", "user", u.Email, "error", err)
			continue
		}
		added, err := w.CatchUp(ctx)
		if err != nil {
			m.logger.Error("catch-up failed", "user", u.Email, "error", err)
			continue
		}
		total += len(added)
	}
	return total, nil
}
