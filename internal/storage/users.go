package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/zenith/internal/model"
)

const currentUserKey = keyPrefix + "currentUser"

// CreateUser registers a new free-plan user.
func (s *SQLiteStorage) CreateUser(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        email,
		Email:     email,
		Plan:      model.PlanFree,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (email, plan, created_at) VALUES (?, ?, ?)`,
		user.Email, string(user.Plan), user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser looks a user up by email.
func (s *SQLiteStorage) GetUser(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user := &model.User{ID: email, Email: email}
	var plan string
	err = s.db.QueryRowContext(ctx,
		`SELECT plan, created_at FROM users WHERE email = ?`, email).Scan(&plan, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Plan = model.Plan(plan)
	return user, nil
}

// UpdateUserPlan changes a user's subscription plan.
func (s *SQLiteStorage) UpdateUserPlan(ctx context.Context, email string, plan model.Plan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if plan != model.PlanFree && plan != model.PlanPremium {
		return fmt.Errorf("unknown plan %q", plan)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE users SET plan = ? WHERE email = ?`, string(plan), email)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return nil
}

// ListUsers returns every registered user ordered by email.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT email, plan, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var u model.User
		var plan string
		if err := rows.Scan(&u.Email, &plan, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.ID = u.Email
		u.Plan = model.Plan(plan)
		users = append(users, u)
	}
	return users, rows.Err()
}

// CurrentUser returns the email of the logged-in user.
func (s *SQLiteStorage) CurrentUser(ctx context.Context) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	var email string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, currentUserKey).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return email, nil
}

// SetCurrentUser logs a registered user in.
func (s *SQLiteStorage) SetCurrentUser(ctx context.Context, email string) error {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		currentUserKey, user.Email)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearCurrentUser logs out.
func (s *SQLiteStorage) ClearCurrentUser(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, currentUserKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
