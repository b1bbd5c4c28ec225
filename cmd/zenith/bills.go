package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

func billsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bills",
		Aliases: []string{"bill"},
		Short:   "Monthly bills",
		Args:    cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			state, now := s.ws.State(), s.ws.Now()
			if len(state.Bills) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No bills"))
				return nil
			}
			rows := make([][]string, 0, len(state.Bills))
			for _, b := range state.Bills {
				status := "due " + shortDate(b.DueDate(now))
				if b.PaidIn(now) {
					status = "paid"
				}
				rows = append(rows, []string{b.ID, b.Name, model.FormatUSD(b.Amount), fmt.Sprint(b.DueDay), state.CategoryName(b.CategoryID), status})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Bill", "Amount", "Day", "Category", "This month"}, rows))
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a monthly bill",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			state := s.ws.State()
			bill := model.Bill{Name: args[0]}
			var err error
			if bill.Amount, err = amountFlag(cmd, "amount"); err != nil {
				return err
			}
			bill.DueDay, _ = cmd.Flags().GetInt("day")
			categoryRef, _ := cmd.Flags().GetString("category")
			if bill.CategoryID, err = lookupCategory(state, categoryRef); err != nil {
				return err
			}
			if ref, _ := cmd.Flags().GetString("account"); ref != "" {
				if bill.AccountID, err = lookupAccount(state, ref); err != nil {
					return err
				}
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				bill, state, err = b.AddBill(bill)
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added bill %s due on day %d (%s)", bill.Name, bill.DueDay, bill.ID)))
			return nil
		}),
	}
	add.Flags().String("amount", "", "amount due each month")
	add.Flags().Int("day", 1, "day of month the bill is due (1-31)")
	add.Flags().String("category", "Bills", "category name or ID")
	add.Flags().String("account", "", "default account to pay from")

	pay := &cobra.Command{
		Use:   "pay <bill-id>",
		Short: "Pay this month's bill",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			state := s.ws.State()
			bill, ok := state.Bill(args[0])
			if !ok {
				return fmt.Errorf("bill %s: %w", args[0], ledger.ErrNotFound)
			}
			from := bill.AccountID
			if ref, _ := cmd.Flags().GetString("from"); ref != "" {
				var err error
				if from, err = lookupAccount(state, ref); err != nil {
					return err
				}
			}
			if from == "" {
				return fmt.Errorf("--from is required: %s has no default account", bill.Name)
			}
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.PayBill(bill.ID, from)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Paid %s (%s)", bill.Name, model.FormatUSD(bill.Amount))))
			return nil
		}),
	}
	pay.Flags().String("from", "", "account to pay from")

	del := &cobra.Command{
		Use:   "delete <bill-id>",
		Short: "Delete a bill",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteBill(args[0])
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted bill "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, pay, del)
	return cmd
}
