// Package workspace binds a user's ledger to storage. Opening a workspace
// catches up recurring transactions and refreshes notifications; every
// successful mutation is persisted before it is reported.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/notify"
	"github.com/Veraticus/zenith/internal/service"
)

// Workspace is one user's ledger, notifications and plan.
type Workspace struct {
	store   service.Storage
	book    *ledger.Book
	deriver *notify.Deriver
	clock   func() time.Time
	logger  *slog.Logger
	user    model.User
	inbox   notify.Inbox
	policy  metrics.HealthPolicy
	mu      sync.Mutex
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(w *Workspace) { w.clock = clock }
}

// WithHealthPolicy sets the thresholds used for the health notification.
func WithHealthPolicy(policy metrics.HealthPolicy) Option {
	return func(w *Workspace) { w.policy = policy }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) { w.logger = logger }
}

// Open loads email's ledger, creating a default one on first use.
func Open(ctx context.Context, store service.Storage, email string, opts ...Option) (*Workspace, error) {
	user, err := store.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		store:  store,
		user:   *user,
		clock:  time.Now,
		policy: metrics.DefaultHealthPolicy(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("component", "workspace", "user", user.Email)
	w.deriver = notify.NewDeriver(w.policy)

	state, found, err := store.LoadState(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	w.book = ledger.Open(state,
		ledger.WithClock(w.clock),
		ledger.WithPlan(user.Plan),
		ledger.WithLogger(w.logger))

	existing, err := store.LoadNotifications(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	w.inbox = notify.Inbox(existing)

	if !found {
		if err := w.persist(ctx, w.book.State()); err != nil {
			return nil, err
		}
	}

	if _, err := w.CatchUp(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// User returns the owner of the workspace.
func (w *Workspace) User() model.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

// State returns the current ledger snapshot.
func (w *Workspace) State() *ledger.State {
	return w.book.State()
}

// Book exposes the ledger for reads and for Mutate callbacks.
func (w *Workspace) Book() *ledger.Book {
	return w.book
}

// Now returns the workspace clock's current time.
func (w *Workspace) Now() time.Time {
	return w.clock()
}

// HealthPolicy returns the thresholds the workspace scores health with.
func (w *Workspace) HealthPolicy() metrics.HealthPolicy {
	return w.policy
}

// Mutate runs fn against the ledger. When fn succeeds the new state is
// saved and notifications are refreshed; a failed fn leaves storage alone.
// If the save fails the ledger is rolled back to the last saved snapshot.
func (w *Workspace) Mutate(ctx context.Context, fn func(b *ledger.Book) (*ledger.State, error)) (*ledger.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	saved := w.book.State()
	state, err := fn(w.book)
	if err != nil {
		return state, err
	}
	if err := w.persist(ctx, state); err != nil {
		w.book.Restore(saved)
		return saved, err
	}
	return state, w.refresh(ctx, state)
}

// CatchUp materializes due recurring transactions and persists them.
func (w *Workspace) CatchUp(ctx context.Context) ([]model.Transaction, error) {
	var added []model.Transaction
	_, err := w.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
		var (
			state *ledger.State
			err   error
		)
		added, state, err = b.CatchUp(w.clock())
		return state, err
	})
	return added, err
}

// Reset wipes the ledger back to the default categories and clears the
// inbox.
func (w *Workspace) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	saved := w.book.State()
	state := w.book.Reset()
	if err := w.persist(ctx, state); err != nil {
		w.book.Restore(saved)
		return err
	}
	if err := w.store.SaveNotifications(ctx, w.user.Email, nil); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	w.inbox = nil
	return nil
}

// Upgrade moves the user to the premium plan, lifting the budget limit.
func (w *Workspace) Upgrade(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.UpdateUserPlan(ctx, w.user.Email, model.PlanPremium); err != nil {
		return err
	}
	w.user.Plan = model.PlanPremium
	w.book.SetPlan(model.PlanPremium)
	w.logger.Info("plan upgraded")
	return nil
}

// Notifications returns the inbox, newest first.
func (w *Workspace) Notifications() notify.Inbox {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inbox
}

// MarkRead marks one notification read.
func (w *Workspace) MarkRead(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	inbox, ok := w.inbox.MarkRead(id)
	if !ok {
		return fmt.Errorf("notification %s: %w", id, ledger.ErrNotFound)
	}
	return w.saveInbox(ctx, inbox)
}

// MarkAllRead marks every notification read.
func (w *Workspace) MarkAllRead(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveInbox(ctx, w.inbox.MarkAllRead())
}

func (w *Workspace) persist(ctx context.Context, state *ledger.State) error {
	if err := w.store.SaveState(ctx, w.user.Email, state); err != nil {
		w.logger.Error("failed to save ledger", "error", err)
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// refresh derives new notifications for state. Callers hold mu.
func (w *Workspace) refresh(ctx context.Context, state *ledger.State) error {
	fresh := w.deriver.Derive(state, w.inbox, w.clock())
	if len(fresh) == 0 {
		return nil
	}
	w.logger.Debug("notifications derived", "count", len(fresh))
	return w.saveInbox(ctx, w.inbox.Add(fresh...))
}

func (w *Workspace) saveInbox(ctx context.Context, inbox notify.Inbox) error {
	if err := w.store.SaveNotifications(ctx, w.user.Email, inbox); err != nil {
		w.logger.Error("failed to save notifications", "error", err)
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	w.inbox = inbox
	return nil
}
