package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budgets",
		Aliases: []string{"budget"},
		Short:   "Monthly category budgets",
		Args:    cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			statuses := metrics.Budgets(s.ws.State(), s.ws.Now())
			if len(statuses) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No budgets. Set one with 'zenith budgets set <category> <amount>'."))
				return nil
			}
			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				rows = append(rows, []string{
					st.CategoryName,
					model.FormatUSD(st.Amount),
					model.FormatUSD(st.Spent),
					cli.FormatAmount(st.Remaining),
					fmt.Sprintf("%.0f%%", st.Ratio*100),
				})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"Category", "Budget", "Spent", "Remaining", "Used"}, rows))
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Create or change a category's monthly budget",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := lookupCategory(s.ws.State(), args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				_, state, err := b.SetBudget(id, amount)
				return state, err
			})
			if errors.Is(err, ledger.ErrBudgetLimit) {
				return common.NewUserError(fmt.Sprintf("The free plan allows %d budgets. Run 'zenith auth upgrade' for unlimited budgets.", model.FreeBudgetLimit), err)
			}
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Budget for %s set to %s", s.ws.State().CategoryName(id), model.FormatUSD(amount))))
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <category>",
		Short: "Remove a category's budget",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := lookupCategory(s.ws.State(), args[0])
			if err != nil {
				return err
			}
			budget, ok := s.ws.State().BudgetFor(id)
			if !ok {
				return fmt.Errorf("budget for %s: %w", args[0], ledger.ErrNotFound)
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteBudget(budget.ID)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Removed budget for "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(set, del)
	return cmd
}
