package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/zenith/internal/ledger"
)

// Collection names as they appear in kv keys.
const (
	CollectionAccounts     = "accounts"
	CollectionTransactions = "transactions"
	CollectionCategories   = "categories"
	CollectionBudgets      = "budgets"
	CollectionRecurring    = "recurring_transactions"
	CollectionGoals        = "goals"
	CollectionInvestments  = "investments"
	CollectionBills        = "bills"
	CollectionLoans        = "loans"
)

const keyPrefix = "zenith_"

// CollectionKey returns the kv key for one of a user's collections.
func CollectionKey(collection, userID string) string {
	return keyPrefix + collection + "_" + userID
}

// binding pairs a collection with the State field that holds it.
type binding struct {
	field      func(s *ledger.State) any
	collection string
}

var bindings = []binding{
	{collection: CollectionAccounts, field: func(s *ledger.State) any { return &s.Accounts }},
	{collection: CollectionTransactions, field: func(s *ledger.State) any { return &s.Transactions }},
	{collection: CollectionCategories, field: func(s *ledger.State) any { return &s.Categories }},
	{collection: CollectionBudgets, field: func(s *ledger.State) any { return &s.Budgets }},
	{collection: CollectionRecurring, field: func(s *ledger.State) any { return &s.Recurring }},
	{collection: CollectionGoals, field: func(s *ledger.State) any { return &s.Goals }},
	{collection: CollectionInvestments, field: func(s *ledger.State) any { return &s.Holdings }},
	{collection: CollectionBills, field: func(s *ledger.State) any { return &s.Bills }},
	{collection: CollectionLoans, field: func(s *ledger.State) any { return &s.Loans }},
}

// LoadState reads every collection of a user. The bool is false when the
// user has never saved a ledger; missing collections of an existing
// ledger stay empty, except categories which fall back to the defaults.
func (s *SQLiteStorage) LoadState(ctx context.Context, userID string) (*ledger.State, bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, false, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, false, err
	}

	state := &ledger.State{}
	found := false
	categoriesFound := false
	for _, b := range bindings {
		var raw string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, CollectionKey(b.collection, userID)).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to load %s: %w", b.collection, err)
		}
		if err := json.Unmarshal([]byte(raw), b.field(state)); err != nil {
			return nil, false, fmt.Errorf("failed to decode %s: %w", b.collection, err)
		}
		found = true
		if b.collection == CollectionCategories {
			categoriesFound = true
		}
	}
	if !found {
		return nil, false, nil
	}
	if !categoriesFound {
		state.Categories = ledger.DefaultState().Categories
	}
	return state, true, nil
}

// SaveState writes every collection of a user in a single transaction.
func (s *SQLiteStorage) SaveState(ctx context.Context, userID string, state *ledger.State) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: state", ErrNilParameter)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, b := range bindings {
			raw, err := json.Marshal(b.field(state))
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", b.collection, err)
			}
			// Persist empty collections as [] rather than null.
			if string(raw) == "null" {
				raw = []byte("[]")
			}
			if _, err := stmt.ExecContext(ctx, CollectionKey(b.collection, userID), string(raw)); err != nil {
				return fmt.Errorf("failed to save %s: %w", b.collection, err)
			}
		}
		return nil
	})
}

// DeleteState removes every collection of a user.
func (s *SQLiteStorage) DeleteState(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, b := range bindings {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, CollectionKey(b.collection, userID)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", b.collection, err)
			}
		}
		return nil
	})
}
