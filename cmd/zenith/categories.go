package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage spending categories",
		Args:    cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			rows := make([][]string, 0, len(s.ws.State().Categories))
			for _, c := range s.ws.State().Categories {
				note := ""
				if model.IsProtectedCategory(c.ID) {
					note = "system"
				}
				rows = append(rows, []string{c.ID, c.Name, note})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Name", ""}, rows))
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			var c model.Category
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var (
					state *ledger.State
					err   error
				)
				c, state, err = b.AddCategory(args[0])
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Added category "+c.Name+" ("+c.ID+")"))
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename <category> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := lookupCategory(s.ws.State(), args[0])
			if err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.EditCategory(model.Category{ID: id, Name: args[1]})
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Renamed to "+args[1]))
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete an unused category",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := lookupCategory(s.ws.State(), args[0])
			if err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteCategory(id)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted category "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, rename, del)
	return cmd
}
