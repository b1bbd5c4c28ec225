package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/config"
	"github.com/Veraticus/zenith/internal/export"
	"github.com/Veraticus/zenith/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledger data (Premium)",
		Long: `Export transactions, budgets, goals, recurring rules and categories as CSV
files or into a Google Sheets spreadsheet. Exporting is a Premium feature.`,
	}
	cmd.AddCommand(exportCSVCmd(), exportSheetsCmd())
	return cmd
}

func requirePremium(s *session, feature string) error {
	if s.ws.User().IsPremium() {
		return nil
	}
	return common.NewUserError(
		fmt.Sprintf("%s is a Premium feature. Run 'zenith auth upgrade' to unlock it.", feature),
		errors.New("premium plan required"))
}

func exportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "csv [collection]",
		Short:     "Write collections to CSV files",
		Example:   "  zenith export csv\n  zenith export csv transactions --dir ~/Documents",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: export.Names,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			if err := requirePremium(s, "Export"); err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			dir = config.ExpandPath(dir)
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			state := s.ws.State()
			var tables []export.Table
			if len(args) == 1 {
				t, err := export.Build(state, args[0])
				if errors.Is(err, export.ErrUnknownCollection) {
					return common.NewUserError(fmt.Sprintf("Unknown collection %q. Choose one of %v.", args[0], export.Names), err)
				}
				if err != nil {
					return err
				}
				tables = []export.Table{t}
			} else {
				tables = export.All(state)
			}

			written := 0
			for _, t := range tables {
				if len(t.Rows) == 0 {
					slog.Debug("skipping empty collection", "collection", t.Name)
					continue
				}
				path := filepath.Join(dir, export.Filename(t.Name, s.ws.Now()))
				if err := writeTable(path, t); err != nil {
					return err
				}
				printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("%s → %s (%d rows)", t.Title(), path, len(t.Rows))))
				written++
			}
			if written == 0 {
				return common.NewUserError("There is nothing to export yet.", export.ErrNoData)
			}
			return nil
		}),
	}
	cmd.Flags().String("dir", ".", "directory to write the files into")
	return cmd
}

func writeTable(path string, t export.Table) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.WriteCSV(f, t)
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Write every collection to Google Sheets",
		Long: `Write each collection to its own tab of a Google Sheets spreadsheet,
replacing earlier exports. Authorize once with 'zenith auth sheets' or set
sheets.service_account_path.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			if err := requirePremium(s, "Export"); err != nil {
				return err
			}
			tables := export.All(s.ws.State())
			if !hasRows(tables) {
				return common.NewUserError("There is nothing to export yet.", export.ErrNoData)
			}

			cfg, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError("Google Sheets is not set up. Run 'zenith auth sheets' first.", err)
			}

			interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Sheets export")
			ctx := interrupt.HandleInterrupts(cmd.Context())
			defer interrupt.Stop()

			writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Google Sheets: %w", err)
			}
			id, err := writer.Write(ctx, tables)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Exported to Google Sheets"))
			printf(cmd, "  https://docs.google.com/spreadsheets/d/%s\n", id)
			return nil
		}),
	}
}

func hasRows(tables []export.Table) bool {
	for _, t := range tables {
		if len(t.Rows) > 0 {
			return true
		}
	}
	return false
}
