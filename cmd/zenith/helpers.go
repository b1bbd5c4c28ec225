package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/config"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/storage"
	"github.com/Veraticus/zenith/internal/workspace"
)

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// resolveUser picks the acting user: --user, then the logged-in user, then
// the configured local user, which is registered on first use.
func resolveUser(ctx context.Context, store *storage.SQLiteStorage) (string, error) {
	if email := viper.GetString("session.user"); email != "" {
		return email, nil
	}
	email, err := store.CurrentUser(ctx)
	if err == nil {
		return email, nil
	}
	if !errors.Is(err, storage.ErrNoSession) {
		return "", err
	}

	email = viper.GetString("user")
	if _, err := store.GetUser(ctx, email); errors.Is(err, storage.ErrUserNotFound) {
		if _, err := store.CreateUser(ctx, email); err != nil {
			return "", fmt.Errorf("failed to register local user: %w", err)
		}
		slog.Info("registered local user", "email", email)
	} else if err != nil {
		return "", err
	}
	return email, nil
}

// session is an open database plus the acting user's workspace.
type session struct {
	store *storage.SQLiteStorage
	ws    *workspace.Workspace
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

func workspaceOptions() ([]workspace.Option, error) {
	policy, err := config.HealthPolicy()
	if err != nil {
		return nil, err
	}
	return []workspace.Option{
		workspace.WithHealthPolicy(policy),
		workspace.WithLogger(slog.Default()),
	}, nil
}

// openSession opens the acting user's workspace. Opening catches up any
// recurring transactions that fell due since the last run.
func openSession(ctx context.Context) (*session, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}
	email, err := resolveUser(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	opts, err := workspaceOptions()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	ws, err := workspace.Open(ctx, store, email, opts...)
	if err != nil {
		_ = store.Close()
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, common.NewUserError(fmt.Sprintf("No user %s. Run 'zenith auth signup %s' first.", email, email), err)
		}
		return nil, err
	}
	return &session{store: store, ws: ws}, nil
}

// withSession runs fn against the acting user's workspace.
func withSession(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, args, s)
	}
}

// mutate applies fn to the ledger and persists the result.
func (s *session) mutate(ctx context.Context, fn func(b *ledger.Book) (*ledger.State, error)) error {
	_, err := s.ws.Mutate(ctx, fn)
	return err
}

// newAssistant builds the AI facade from llm.* settings.
func newAssistant(ctx context.Context) (*assistant.Assistant, func(), error) {
	cfg, err := config.LLMConfig()
	if err != nil {
		return nil, nil, common.NewUserError("AI features need an API key. Set llm.api_key or GEMINI_API_KEY.", err)
	}
	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	policy, err := config.HealthPolicy()
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	a := assistant.New(client,
		assistant.WithLogger(slog.Default()),
		assistant.WithHealthPolicy(policy))
	return a, func() { _ = client.Close() }, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

func printLine(cmd *cobra.Command, args ...any) {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), args...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

// amountFlag reads a required positive money flag.
func amountFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	return parseAmount(name, raw)
}

func parseAmount(name, raw string) (decimal.Decimal, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "$")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("--%s is required", name)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not an amount", name, raw)
	}
	return d, nil
}

// dateFlag reads a YYYY-MM-DD flag, defaulting to today.
func dateFlag(cmd *cobra.Command, name string, now time.Time) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return model.DateOf(now), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %q is not YYYY-MM-DD", name, raw)
	}
	return d, nil
}

func changed(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}

// lookupCategory resolves a category by ID or case-insensitive name.
func lookupCategory(s *ledger.State, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if c, ok := s.Category(ref); ok {
		return c.ID, nil
	}
	for _, c := range s.Categories {
		if strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", ref)
}

// lookupAccount resolves an account by ID or case-insensitive name.
func lookupAccount(s *ledger.State, ref string) (string, error) {
	if a, ok := s.Account(ref); ok {
		return a.ID, nil
	}
	for _, a := range s.Accounts {
		if strings.EqualFold(a.Name, ref) {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("unknown account %q", ref)
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(model.DateLayout)
}
