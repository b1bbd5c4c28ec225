package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goals",
		Aliases: []string{"goal"},
		Short:   "Savings goals",
		Args:    cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			goals := s.ws.State().Goals
			if len(goals) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No goals yet"))
				return nil
			}
			rows := make([][]string, 0, len(goals))
			for _, g := range goals {
				rows = append(rows, []string{
					g.ID, g.Name, model.FormatUSD(g.CurrentAmount), model.FormatUSD(g.TargetAmount),
					fmt.Sprintf("%.0f%%", g.Progress()*100), shortDate(g.TargetDate),
				})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Goal", "Saved", "Target", "Progress", "By"}, rows))
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			g := model.Goal{Name: args[0]}
			var err error
			if g.TargetAmount, err = amountFlag(cmd, "target"); err != nil {
				return err
			}
			if changed(cmd, "saved") {
				if g.CurrentAmount, err = amountFlag(cmd, "saved"); err != nil {
					return err
				}
			}
			if g.TargetDate, err = dateFlag(cmd, "by", s.ws.Now().AddDate(1, 0, 0)); err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				g, state, err = b.AddGoal(g)
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added goal %s (%s)", g.Name, g.ID)))
			return nil
		}),
	}
	add.Flags().String("target", "", "target amount")
	add.Flags().String("saved", "", "amount already saved")
	add.Flags().String("by", "", "target date as YYYY-MM-DD (default a year from now)")

	contribute := &cobra.Command{
		Use:   "contribute <goal-id> <amount>",
		Short: "Move money from an account into a goal",
		Long: `Contribute to a goal. The amount is recorded as a Savings expense on
--from and added to the goal's progress.`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			fromRef, _ := cmd.Flags().GetString("from")
			from, err := lookupAccount(s.ws.State(), fromRef)
			if err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.ContributeToGoal(args[0], amount, from)
			})
			if err != nil {
				return err
			}
			g, _ := s.ws.State().Goal(args[0])
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("%s now at %s of %s", g.Name, model.FormatUSD(g.CurrentAmount), model.FormatUSD(g.TargetAmount))))
			if g.Reached() {
				printf(cmd, "%s\n", cli.FormatSuccess("Goal reached!"))
			}
			return nil
		}),
	}
	contribute.Flags().String("from", "", "account to take the money from")

	del := &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteGoal(args[0])
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted goal "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, contribute, del)
	return cmd
}
