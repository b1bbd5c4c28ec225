package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FilterImported returns the ids in ids not yet imported from source,
// preserving order.
func (s *SQLiteStorage) FilterImported(ctx context.Context, userID, source string, ids []string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(source, "source"); err != nil {
		return nil, err
	}

	stmt, err := s.db.PrepareContext(ctx,
		`SELECT 1 FROM imported WHERE user_id = ? AND source = ? AND external_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	fresh := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		var one int
		err := stmt.QueryRowContext(ctx, userID, source, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			fresh = append(fresh, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check import %s: %w", id, err)
		}
	}
	return fresh, nil
}

// MarkImported records external ids so later imports skip them.
func (s *SQLiteStorage) MarkImported(ctx context.Context, userID, source string, ids []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(source, "source"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO imported (user_id, source, external_id) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, userID, source, id); err != nil {
				return fmt.Errorf("failed to mark %s imported: %w", id, err)
			}
		}
		return nil
	})
}

// GetSyncCursor returns the saved sync cursor, or "" when none exists.
func (s *SQLiteStorage) GetSyncCursor(ctx context.Context, userID, source string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	var cursor string
	err := s.db.QueryRowContext(ctx,
		`SELECT cursor FROM sync_cursors WHERE user_id = ? AND source = ?`, userID, source).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync cursor: %w", err)
	}
	return cursor, nil
}

// SaveSyncCursor stores the cursor for the next incremental sync.
func (s *SQLiteStorage) SaveSyncCursor(ctx context.Context, userID, source, cursor string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (user_id, source, cursor, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, source) DO UPDATE SET cursor = excluded.cursor, updated_at = CURRENT_TIMESTAMP`,
		userID, source, cursor)
	if err != nil {
		return fmt.Errorf("failed to save sync cursor: %w", err)
	}
	return nil
}
