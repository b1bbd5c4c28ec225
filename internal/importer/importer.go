// Package importer turns external bank transactions into ledger entries.
// Each external id is imported at most once per user and source.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/service"
	"github.com/Veraticus/zenith/internal/workspace"
)

// Categorizer suggests a category id for a description. An empty id
// means no suggestion.
type Categorizer interface {
	SuggestCategory(ctx context.Context, description string, categories []model.Category) (string, error)
}

// Progress receives one tick per processed transaction.
type Progress interface {
	Add(n int) error
}

// Request describes one import batch.
type Request struct {
	Source       string
	AccountID    string
	Transactions []service.ExternalTransaction
	DryRun       bool
}

// Result summarizes an import.
type Result struct {
	Added       []model.Transaction
	Skipped     int
	Categorized int
}

// Importer feeds external transactions into a workspace.
type Importer struct {
	store       service.Storage
	categorizer Categorizer
	progress    Progress
	logger      *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithCategorizer enables AI categorization of imported transactions.
func WithCategorizer(c Categorizer) Option {
	return func(i *Importer) { i.categorizer = c }
}

// WithProgress reports progress while drafts are prepared.
func WithProgress(p Progress) Option {
	return func(i *Importer) { i.progress = p }
}

// New creates an Importer.
func New(store service.Storage, opts ...Option) *Importer {
	i := &Importer{
		store:  store,
		logger: slog.Default().With("component", "importer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import adds every not yet imported transaction in req to the account
// req.AccountID as one atomic batch.
func (i *Importer) Import(ctx context.Context, w *workspace.Workspace, req Request) (Result, error) {
	state := w.State()
	if _, ok := state.Account(req.AccountID); !ok {
		return Result{}, fmt.Errorf("account %q: %w", req.AccountID, ledger.ErrNotFound)
	}
	userID := w.User().Email

	ids := make([]string, 0, len(req.Transactions))
	for _, ext := range req.Transactions {
		ids = append(ids, ext.ID)
	}
	fresh, err := i.store.FilterImported(ctx, userID, req.Source, ids)
	if err != nil {
		return Result{}, err
	}
	wanted := make(map[string]bool, len(fresh))
	for _, id := range fresh {
		wanted[id] = true
	}

	result := Result{}
	drafts := make([]model.Transaction, 0, len(fresh))
	imported := make([]string, 0, len(fresh))
	for _, ext := range req.Transactions {
		if !wanted[ext.ID] {
			result.Skipped++
			continue
		}
		// Guards against the same id appearing twice in one batch.
		delete(wanted, ext.ID)

		draft := toDraft(ext, req.AccountID)
		if i.categorize(ctx, &draft, state.Categories) {
			result.Categorized++
		}
		drafts = append(drafts, draft)
		imported = append(imported, ext.ID)
		i.tick()
	}

	if req.DryRun || len(drafts) == 0 {
		result.Added = drafts
		return result, nil
	}

	_, err = w.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
		added, state, err := b.AddTransactions(drafts)
		result.Added = added
		return state, err
	})
	if err != nil {
		return Result{}, err
	}
	if err := i.store.MarkImported(ctx, userID, req.Source, imported); err != nil {
		return result, err
	}

	i.logger.Info("Import complete",
		"source", req.Source,
		"added", len(result.Added),
		"skipped", result.Skipped,
		"categorized", result.Categorized)
	return result, nil
}

func toDraft(ext service.ExternalTransaction, accountID string) model.Transaction {
	typ := model.TransactionExpense
	if ext.Inflow {
		typ = model.TransactionIncome
	}
	return model.Transaction{
		Date:        ext.Date,
		Description: ext.Description,
		Type:        typ,
		CategoryID:  model.CategoryOtherID,
		AccountID:   accountID,
		Amount:      ext.Amount,
	}
}

// categorize asks the categorizer for expenses only. Failures keep the
// default category.
func (i *Importer) categorize(ctx context.Context, draft *model.Transaction, categories []model.Category) bool {
	if i.categorizer == nil || draft.Type != model.TransactionExpense {
		return false
	}
	id, err := i.categorizer.SuggestCategory(ctx, draft.Description, categories)
	if err != nil {
		i.logger.Warn("Category suggestion failed", "description", draft.Description, "error", err)
		return false
	}
	if id == "" {
		return false
	}
	draft.CategoryID = id
	return true
}

func (i *Importer) tick() {
	if i.progress == nil {
		return
	}
	if err := i.progress.Add(1); err != nil {
		i.logger.Warn("Failed to update progress bar", "error", err)
	}
}
