package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

func loansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "loans",
		Aliases: []string{"loan"},
		Short:   "Mortgages, auto, student and personal loans",
		Args:    cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			loans := s.ws.State().Loans
			if len(loans) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No loans"))
				return nil
			}
			rows := make([][]string, 0, len(loans))
			for _, l := range loans {
				rows = append(rows, []string{
					l.ID, l.Name, string(l.Type), model.FormatUSD(l.CurrentBalance),
					model.FormatUSD(l.OriginalPrincipal), l.InterestRate.String() + "%", model.FormatUSD(l.MonthlyPayment),
				})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Loan", "Type", "Balance", "Principal", "APR", "Payment"}, rows))
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a loan",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			l := model.Loan{Name: args[0]}
			var err error
			rawType, _ := cmd.Flags().GetString("type")
			if l.Type, err = model.ParseLoanType(rawType); err != nil {
				return fmt.Errorf("--type: %w", err)
			}
			if l.OriginalPrincipal, err = amountFlag(cmd, "principal"); err != nil {
				return err
			}
			if l.InterestRate, err = amountFlag(cmd, "apr"); err != nil {
				return err
			}
			if changed(cmd, "payment") {
				if l.MonthlyPayment, err = amountFlag(cmd, "payment"); err != nil {
					return err
				}
			}
			l.TermInMonths, _ = cmd.Flags().GetInt("term")
			if ref, _ := cmd.Flags().GetString("account"); ref != "" {
				if l.LinkedAccountID, err = lookupAccount(s.ws.State(), ref); err != nil {
					return err
				}
			}
			if l.StartDate, err = dateFlag(cmd, "start", s.ws.Now()); err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				l, state, err = b.AddLoan(l)
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added %s loan %s (%s)", l.Type, l.Name, l.ID)))
			return nil
		}),
	}
	add.Flags().String("type", "other", "mortgage, auto, student, personal or other")
	add.Flags().String("principal", "", "original principal")
	add.Flags().String("apr", "0", "annual interest rate in percent")
	add.Flags().String("payment", "", "monthly payment")
	add.Flags().Int("term", 0, "term in months")
	add.Flags().String("account", "", "account payments come from")
	add.Flags().String("start", "", "start date as YYYY-MM-DD (default today)")

	pay := &cobra.Command{
		Use:   "pay <loan-id> [amount]",
		Short: "Make a loan payment",
		Long: `Pay toward a loan. The month's interest is charged on the outstanding
balance and the rest reduces principal. The amount defaults to the loan's
monthly payment.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			state := s.ws.State()
			loan, ok := state.Loan(args[0])
			if !ok {
				return fmt.Errorf("loan %s: %w", args[0], ledger.ErrNotFound)
			}
			amount := loan.MonthlyPayment
			if len(args) == 2 {
				var err error
				if amount, err = parseAmount("amount", args[1]); err != nil {
					return err
				}
			}
			if !amount.IsPositive() {
				return fmt.Errorf("%s has no monthly payment; give an amount", loan.Name)
			}
			from := ""
			if ref, _ := cmd.Flags().GetString("from"); ref != "" {
				var err error
				if from, err = lookupAccount(state, ref); err != nil {
					return err
				}
			}

			var payment ledger.LoanPayment
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var (
					state *ledger.State
					err   error
				)
				payment, state, err = b.PayLoan(loan.ID, amount, from)
				return state, err
			})
			if err != nil {
				return err
			}
			loan, _ = s.ws.State().Loan(loan.ID)
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Paid %s toward %s", model.FormatUSD(amount), loan.Name)))
			printf(cmd, "  interest  %s\n  principal %s\n  remaining %s\n",
				model.FormatUSD(payment.Interest), model.FormatUSD(payment.Principal), model.FormatUSD(loan.CurrentBalance))
			if loan.CurrentBalance.Equal(decimal.Zero) {
				printf(cmd, "%s\n", cli.FormatSuccess("Loan paid off!"))
			}
			return nil
		}),
	}
	pay.Flags().String("from", "", "account to pay from (default the linked account)")

	del := &cobra.Command{
		Use:   "delete <loan-id>",
		Short: "Delete a loan with no payments",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteLoan(args[0])
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted loan "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, pay, del)
	return cmd
}
