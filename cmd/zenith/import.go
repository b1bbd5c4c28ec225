package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/config"
	"github.com/Veraticus/zenith/internal/importer"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/ofx"
	"github.com/Veraticus/zenith/internal/plaid"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank transactions",
		Long: `Import transactions from OFX/QFX statement files or from Plaid into one of
your accounts. Transactions seen before are skipped, so importing the same
file twice is safe. With --categorize the assistant picks categories for
new expenses.`,
	}
	cmd.PersistentFlags().String("account", "", "ledger account to import into")
	cmd.PersistentFlags().Bool("dry-run", false, "show what would be imported without saving")
	cmd.PersistentFlags().Bool("categorize", false, "categorize new expenses with the AI assistant")

	cmd.AddCommand(importOFXCmd(), importPlaidCmd())
	return cmd
}

func newImporter(cmd *cobra.Command, s *session, total int, description string) (*importer.Importer, func(), error) {
	opts := []importer.Option{
		importer.WithProgress(cli.NewProgressBar(cmd.ErrOrStderr(), total, description)),
	}
	cleanup := func() {}
	if categorize, _ := cmd.Flags().GetBool("categorize"); categorize {
		var (
			a   *assistant.Assistant
			err error
		)
		a, cleanup, err = newAssistant(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, importer.WithCategorizer(a))
	}
	return importer.New(s.store, opts...), cleanup, nil
}

func importAccount(cmd *cobra.Command, s *session) (string, error) {
	ref, _ := cmd.Flags().GetString("account")
	if ref == "" {
		return "", fmt.Errorf("--account is required")
	}
	return lookupAccount(s.ws.State(), ref)
}

func printImportResult(cmd *cobra.Command, label string, r importer.Result, dryRun bool) {
	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("%s: %s %d transaction(s), skipped %d already imported", label, verb, len(r.Added), r.Skipped)))
	if r.Categorized > 0 {
		printf(cmd, "%s\n", cli.FormatInfo(fmt.Sprintf("%d categorized by the assistant", r.Categorized)))
	}
	if dryRun && len(r.Added) > 0 {
		rows := make([][]string, 0, len(r.Added))
		for _, t := range r.Added {
			amount := t.Amount
			if t.Type == model.TransactionExpense {
				amount = amount.Neg()
			}
			rows = append(rows, []string{shortDate(t.Date), t.Description, cli.FormatAmount(amount)})
		}
		printf(cmd, "%s\n", cli.RenderTable([]string{"Date", "Description", "Amount"}, rows))
	}
}

func importOFXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import OFX/QFX statement files",
		Example: `  zenith import ofx ~/Downloads/chase_jan.qfx --account Checking
  zenith import ofx '~/Downloads/Chase/*.qfx' --account Checking --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			accountID, err := importAccount(cmd, s)
			if err != nil {
				return err
			}
			files, err := expandFiles(args)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import").
				WithHint("Files already imported stay imported; run again to continue.")
			ctx := interrupt.HandleInterrupts(cmd.Context())
			defer interrupt.Stop()

			parser := ofx.NewParser()
			for _, path := range files {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				stmt, err := parseOFX(cmd, parser, path)
				if err != nil {
					slog.Error("failed to parse OFX file", "file", path, "error", err)
					continue
				}
				if len(stmt.Transactions) == 0 {
					slog.Warn("no transactions found in file", "file", filepath.Base(path))
					continue
				}

				imp, cleanup, err := newImporter(cmd, s, len(stmt.Transactions), filepath.Base(path))
				if err != nil {
					return err
				}
				result, err := imp.Import(ctx, s.ws, importer.Request{
					Source:       ofx.Source,
					AccountID:    accountID,
					Transactions: stmt.Transactions,
					DryRun:       dryRun,
				})
				cleanup()
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				printImportResult(cmd, filepath.Base(path), result, dryRun)
			}
			return nil
		}),
	}
}

func parseOFX(cmd *cobra.Command, parser *ofx.Parser, path string) (*ofx.Statement, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.Parse(cmd.Context(), f)
}

// expandFiles resolves globs; patterns with no match are kept when they
// name an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		pattern = config.ExpandPath(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("no files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func importPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Sync new transactions from Plaid",
		Long: `Fetch everything new since the last sync from the linked Plaid item and
import it. Link a bank first with 'zenith auth plaid'.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			client, err := plaid.NewClient(config.PlaidConfig())
			if err != nil {
				return common.NewUserError("Plaid is not configured. Run 'zenith auth plaid' and set plaid.access_token.", err)
			}

			if list, _ := cmd.Flags().GetBool("list-accounts"); list {
				accounts, err := client.GetAccounts(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(accounts))
				for _, a := range accounts {
					rows = append(rows, []string{a.ID, a.Name, a.Type, model.FormatUSD(a.Balance)})
				}
				printf(cmd, "%s\n", cli.RenderTable([]string{"Plaid ID", "Name", "Type", "Balance"}, rows))
				return nil
			}

			accountID, err := importAccount(cmd, s)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			plaidAccount, _ := cmd.Flags().GetString("plaid-account")

			interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Plaid sync").
				WithHint("The sync cursor only moves after a completed import.")
			ctx := interrupt.HandleInterrupts(cmd.Context())
			defer interrupt.Stop()

			imp, cleanup, err := newImporter(cmd, s, -1, "Syncing")
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := imp.SyncPlaid(ctx, s.ws, client, accountID, plaidAccount, dryRun)
			if err != nil {
				return err
			}
			printImportResult(cmd, "Plaid", result, dryRun)
			return nil
		}),
	}
	cmd.Flags().String("plaid-account", "", "only import this Plaid account ID")
	cmd.Flags().Bool("list-accounts", false, "list the linked Plaid accounts and exit")
	return cmd
}
