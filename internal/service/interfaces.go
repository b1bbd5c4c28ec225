// Package service defines the interfaces shared between the persistence
// layer and the code that drives a ledger.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Ledger collections
	LoadState(ctx context.Context, userID string) (*ledger.State, bool, error)
	SaveState(ctx context.Context, userID string, state *ledger.State) error
	DeleteState(ctx context.Context, userID string) error

	// Notifications
	LoadNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	SaveNotifications(ctx context.Context, userID string, notifications []model.Notification) error

	// Users and session
	CreateUser(ctx context.Context, email string) (*model.User, error)
	GetUser(ctx context.Context, email string) (*model.User, error)
	UpdateUserPlan(ctx context.Context, email string, plan model.Plan) error
	ListUsers(ctx context.Context) ([]model.User, error)
	CurrentUser(ctx context.Context) (string, error)
	SetCurrentUser(ctx context.Context, email string) error
	ClearCurrentUser(ctx context.Context) error

	// Bank import bookkeeping
	FilterImported(ctx context.Context, userID, source string, externalIDs []string) ([]string, error)
	MarkImported(ctx context.Context, userID, source string, externalIDs []string) error
	GetSyncCursor(ctx context.Context, userID, source string) (string, error)
	SaveSyncCursor(ctx context.Context, userID, source, cursor string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ExternalTransaction is a bank transaction before it enters the ledger.
// Amount is always positive; Inflow tells which way the money moved.
type ExternalTransaction struct {
	Date        time.Time
	ID          string
	Account     string
	Description string
	Amount      decimal.Decimal
	Inflow      bool
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
