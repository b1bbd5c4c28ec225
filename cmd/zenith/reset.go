package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
)

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all of your data",
		Long: `Delete every account, transaction, budget, goal, bill, loan, holding and
notification and restore the default categories. Your user and plan stay.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			if force, _ := cmd.Flags().GetBool("force"); !force {
				ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
					Confirm(cmd.Context(), fmt.Sprintf("Erase all data for %s?", s.ws.User().Email))
				if err != nil {
					return err
				}
				if !ok {
					printf(cmd, "%s\n", cli.FormatInfo("Nothing was changed."))
					return nil
				}
			}
			if err := s.ws.Reset(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("All data erased."))
			return nil
		}),
	}
	cmd.Flags().BoolP("force", "f", false, "skip the confirmation prompt")
	return cmd
}
