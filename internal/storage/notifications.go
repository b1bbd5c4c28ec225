package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/zenith/internal/model"
)

// LoadNotifications returns a user's notifications, newest first.
func (s *SQLiteStorage) LoadNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, message, COALESCE(related_id, ''), date, is_read
		FROM notifications
		WHERE user_id = ?
		ORDER BY date DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.Message, &n.RelatedID, &n.Date, &n.IsRead); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = model.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

// SaveNotifications replaces a user's notifications.
func (s *SQLiteStorage) SaveNotifications(ctx context.Context, userID string, notifications []model.Notification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to clear notifications: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO notifications (id, user_id, type, message, related_id, date, is_read)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, n := range notifications {
			if _, err := stmt.ExecContext(ctx, n.ID, userID, string(n.Type), n.Message, n.RelatedID, n.Date, n.IsRead); err != nil {
				return fmt.Errorf("failed to save notification %s: %w", n.ID, err)
			}
		}
		return nil
	})
}
