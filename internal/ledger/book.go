// Package ledger owns a user's financial state and keeps account balances
// consistent with the transactions recorded against them.
package ledger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/recurrence"
	"github.com/google/uuid"
)

// Book is the single writer of a ledger. It is safe for concurrent use:
// mutations are serialized and each publishes a new immutable State.
type Book struct {
	state       *State
	clock       func() time.Time
	newID       func() string
	processor   *recurrence.Processor
	logger      *slog.Logger
	budgetLimit int
	mu          sync.Mutex
}

// Option configures a Book.
type Option func(*Book)

// WithClock sets the time source used for default dates.
func WithClock(clock func() time.Time) Option {
	return func(b *Book) { b.clock = clock }
}

// WithIDGenerator sets the generator for new entity ids.
func WithIDGenerator(gen func() string) Option {
	return func(b *Book) { b.newID = gen }
}

// WithBudgetLimit caps the number of budgets. Zero means unlimited.
func WithBudgetLimit(n int) Option {
	return func(b *Book) { b.budgetLimit = n }
}

// WithPlan applies the budget limit of a subscription plan.
func WithPlan(plan model.Plan) Option {
	return func(b *Book) { b.budgetLimit = budgetLimitFor(plan) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Book) { b.logger = logger }
}

// WithProcessor replaces the recurrence processor used by CatchUp.
func WithProcessor(p *recurrence.Processor) Option {
	return func(b *Book) { b.processor = p }
}

func budgetLimitFor(plan model.Plan) int {
	if plan == model.PlanPremium {
		return 0
	}
	return model.FreeBudgetLimit
}

// New creates a Book holding the default state.
func New(opts ...Option) *Book {
	return Open(DefaultState(), opts...)
}

// Open creates a Book over a previously saved state.
func Open(state *State, opts ...Option) *Book {
	if state == nil {
		state = DefaultState()
	}
	b := &Book{
		state:       state.clone(),
		clock:       time.Now,
		newID:       uuid.NewString,
		budgetLimit: model.FreeBudgetLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "ledger")
	if b.processor == nil {
		b.processor = recurrence.NewProcessor(b.logger)
	}
	return b
}

// State returns the current snapshot.
func (b *Book) State() *State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetPlan changes the plan whose budget limit applies to later mutations.
func (b *Book) SetPlan(plan model.Plan) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgetLimit = budgetLimitFor(plan)
}

// Reset discards everything and restores the default categories.
func (b *Book) Reset() *State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = DefaultState()
	b.logger.Info("ledger reset")
	return b.state
}

// Restore replaces the current snapshot with s, undoing any commits made
// since s was taken.
func (b *Book) Restore(s *State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// commit runs fn against a private copy of the state and publishes the copy
// only when fn succeeds. A failed mutation leaves the Book untouched.
func (b *Book) commit(fn func(s *State) error) (*State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.clone()
	if err := fn(next); err != nil {
		return b.state, err
	}
	b.state = next
	return next, nil
}

func (b *Book) today() time.Time {
	return model.DateOf(b.clock())
}

func (b *Book) idOr(id string) string {
	if id != "" {
		return id
	}
	return b.newID()
}
