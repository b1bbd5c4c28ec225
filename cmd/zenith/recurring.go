package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/recurrence"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring income and expenses",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			state := s.ws.State()
			if len(state.Recurring) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No recurring transactions"))
				return nil
			}
			rows := make([][]string, 0, len(state.Recurring))
			for _, r := range state.Recurring {
				next := "-"
				if due, err := recurrence.NextDueDate(r); err == nil {
					next = shortDate(due)
				}
				rows = append(rows, []string{
					r.ID, r.Description, string(r.Type), string(r.Frequency),
					model.FormatUSD(r.Amount), state.AccountName(r.AccountID), next,
				})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Description", "Type", "Every", "Amount", "Account", "Next"}, rows))
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a recurring rule",
		Long: `Add a recurring rule. Occurrences from --start up to today are posted
immediately; later ones are posted by 'zenith recurring catch-up', any
command that opens the ledger, or the server's daily job.`,
		Example: `  zenith recurring add Rent --amount 1200 --frequency monthly --account Checking --category Bills --start 2025-01-01`,
		Args:    cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			state := s.ws.State()
			r := model.RecurringTransaction{Description: args[0]}
			var err error

			rawType, _ := cmd.Flags().GetString("type")
			if r.Type, err = model.ParseTransactionType(rawType); err != nil {
				return fmt.Errorf("--type: %w", err)
			}
			rawFreq, _ := cmd.Flags().GetString("frequency")
			if r.Frequency, err = model.ParseFrequency(rawFreq); err != nil {
				return fmt.Errorf("--frequency: %w", err)
			}
			if r.Amount, err = amountFlag(cmd, "amount"); err != nil {
				return err
			}
			accountRef, _ := cmd.Flags().GetString("account")
			if r.AccountID, err = lookupAccount(state, accountRef); err != nil {
				return err
			}
			categoryRef, _ := cmd.Flags().GetString("category")
			if r.CategoryID, err = lookupCategory(state, categoryRef); err != nil {
				return err
			}
			if r.StartDate, err = dateFlag(cmd, "start", s.ws.Now()); err != nil {
				return err
			}

			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				r, state, err = b.AddRecurring(r)
				return state, err
			})
			if err != nil {
				return err
			}
			posted, err := s.ws.CatchUp(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added %s %s rule %s (%s)", r.Frequency, r.Type, r.Description, r.ID)))
			if len(posted) > 0 {
				printf(cmd, "%s\n", cli.FormatInfo(fmt.Sprintf("Posted %d occurrence(s) already due", len(posted))))
			}
			return nil
		}),
	}
	add.Flags().String("type", "expense", "income or expense")
	add.Flags().String("frequency", "monthly", "daily, weekly or monthly")
	add.Flags().String("amount", "", "amount per occurrence")
	add.Flags().String("account", "", "account name or ID")
	add.Flags().String("category", "", "category name or ID")
	add.Flags().String("start", "", "first occurrence as YYYY-MM-DD (default today)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule; posted transactions stay",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteRecurring(args[0])
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted recurring rule "+args[0]))
			return nil
		}),
	}

	catchUp := &cobra.Command{
		Use:   "catch-up",
		Short: "Post every occurrence due up to today",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			posted, err := s.ws.CatchUp(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Posted %d occurrence(s)", len(posted))))
			return nil
		}),
	}

	cmd.AddCommand(add, del, catchUp)
	return cmd
}
