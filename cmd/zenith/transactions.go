package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List and record transactions",
		Args:    cobra.NoArgs,
		RunE:    withSession(listTransactions),
	}
	cmd.Flags().Int("limit", 20, "show at most this many transactions (0 for all)")
	cmd.Flags().String("account", "", "only this account")

	add := &cobra.Command{
		Use:   "add <description>",
		Short: "Record income, an expense or a transfer",
		Example: `  zenith tx add "Groceries" --amount 54.20 --account Checking --category Food
  zenith tx add "Paycheck" --type income --amount 2500 --account Checking
  zenith tx add "To savings" --type transfer --amount 200 --account Checking --to Savings`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			t := model.Transaction{Description: args[0]}
			if err := applyTransactionFlags(cmd, s, &t, true); err != nil {
				return err
			}
			var added model.Transaction
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var (
					state *ledger.State
					err   error
				)
				added, state, err = b.AddTransaction(t)
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Recorded %s %s: %s (%s)",
				strings.ToLower(string(added.Type)), model.FormatUSD(added.Amount), added.Description, added.ID)))
			return nil
		}),
	}
	addTransactionFlags(add)
	add.Flags().String("type", "expense", "income, expense or transfer")

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			t, ok := s.ws.State().Transaction(args[0])
			if !ok {
				return fmt.Errorf("transaction %s: %w", args[0], ledger.ErrNotFound)
			}
			if changed(cmd, "description") {
				t.Description, _ = cmd.Flags().GetString("description")
			}
			if err := applyTransactionFlags(cmd, s, &t, false); err != nil {
				return err
			}
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.EditTransaction(t)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Updated transaction "+t.ID))
			return nil
		}),
	}
	addTransactionFlags(edit)
	edit.Flags().String("type", "", "income, expense or transfer")
	edit.Flags().String("description", "", "new description")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and reverse its effect",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteTransaction(args[0])
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted transaction "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, edit, del)
	return cmd
}

func addTransactionFlags(cmd *cobra.Command) {
	cmd.Flags().String("amount", "", "amount (positive)")
	cmd.Flags().String("account", "", "account name or ID")
	cmd.Flags().String("to", "", "destination account for transfers")
	cmd.Flags().String("category", "", "category name or ID")
	cmd.Flags().String("date", "", "date as YYYY-MM-DD (default today)")
}

// applyTransactionFlags copies flags onto t. On add every flag applies;
// on edit only flags the user set.
func applyTransactionFlags(cmd *cobra.Command, s *session, t *model.Transaction, adding bool) error {
	state := s.ws.State()
	var err error
	if adding || changed(cmd, "type") {
		raw, _ := cmd.Flags().GetString("type")
		if t.Type, err = model.ParseTransactionType(raw); err != nil {
			return fmt.Errorf("--type: %w", err)
		}
	}
	if adding || changed(cmd, "amount") {
		if t.Amount, err = amountFlag(cmd, "amount"); err != nil {
			return err
		}
	}
	if adding || changed(cmd, "account") {
		ref, _ := cmd.Flags().GetString("account")
		if ref == "" {
			return fmt.Errorf("--account is required")
		}
		if t.AccountID, err = lookupAccount(state, ref); err != nil {
			return err
		}
	}
	if changed(cmd, "to") {
		ref, _ := cmd.Flags().GetString("to")
		if t.ToAccountID, err = lookupAccount(state, ref); err != nil {
			return err
		}
	}
	if changed(cmd, "category") {
		ref, _ := cmd.Flags().GetString("category")
		if t.CategoryID, err = lookupCategory(state, ref); err != nil {
			return err
		}
	}
	if t.Type == model.TransactionTransfer {
		t.CategoryID = ""
	} else {
		t.ToAccountID = ""
	}
	if adding || changed(cmd, "date") {
		if t.Date, err = dateFlag(cmd, "date", s.ws.Now()); err != nil {
			return err
		}
	}
	return nil
}

func listTransactions(cmd *cobra.Command, _ []string, s *session) error {
	state := s.ws.State()
	limit, _ := cmd.Flags().GetInt("limit")
	accountRef, _ := cmd.Flags().GetString("account")
	accountID := ""
	if accountRef != "" {
		var err error
		if accountID, err = lookupAccount(state, accountRef); err != nil {
			return err
		}
	}

	var rows [][]string
	for _, t := range state.Transactions {
		if accountID != "" && t.AccountID != accountID && t.ToAccountID != accountID {
			continue
		}
		if limit > 0 && len(rows) >= limit {
			break
		}
		amount := t.Amount
		if t.Type == model.TransactionExpense {
			amount = amount.Neg()
		}
		account := state.AccountName(t.AccountID)
		if t.IsTransfer() {
			account += " → " + state.AccountName(t.ToAccountID)
		}
		rows = append(rows, []string{
			shortDate(t.Date), t.Description, account, state.CategoryName(t.CategoryID), cli.FormatAmount(amount), t.ID,
		})
	}
	if len(rows) == 0 {
		printf(cmd, "%s\n", cli.FormatInfo("No transactions"))
		return nil
	}
	printf(cmd, "%s\n", cli.RenderTable([]string{"Date", "Description", "Account", "Category", "Amount", "ID"}, rows))
	return nil
}
