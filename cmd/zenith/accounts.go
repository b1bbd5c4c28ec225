package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
		Args:    cobra.NoArgs,
		RunE:    withSession(listAccounts),
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Long: `Add an account. A non-zero --balance is recorded as an opening
transaction so the balance can always be rebuilt from history.`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			typ, err := accountTypeFlag(cmd)
			if err != nil {
				return err
			}
			balance := decimal.Zero
			if changed(cmd, "balance") {
				if balance, err = amountFlag(cmd, "balance"); err != nil {
					return err
				}
			}
			rate, err := aprFlag(cmd)
			if err != nil {
				return err
			}

			var acct model.Account
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				acct, state, err = b.AddAccount(ledger.NewAccount{
					Name:           args[0],
					Type:           typ,
					InitialBalance: balance,
					InterestRate:   rate,
				})
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added %s account %s (%s)", acct.Type, acct.Name, acct.ID)))
			return nil
		}),
	}
	add.Flags().String("type", "checking", "checking, savings, credit-card, cash or investment")
	add.Flags().String("balance", "", "opening balance (debt owed for credit cards)")
	add.Flags().String("apr", "", "annual interest rate in percent (credit cards)")

	edit := &cobra.Command{
		Use:   "edit <account>",
		Short: "Rename an account or change its type or APR",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := lookupAccount(s.ws.State(), args[0])
			if err != nil {
				return err
			}
			acct, _ := s.ws.State().Account(id)
			if changed(cmd, "name") {
				acct.Name, _ = cmd.Flags().GetString("name")
			}
			if changed(cmd, "type") {
				if acct.Type, err = accountTypeFlag(cmd); err != nil {
					return err
				}
			}
			if changed(cmd, "apr") {
				if acct.InterestRate, err = aprFlag(cmd); err != nil {
					return err
				}
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.EditAccount(acct)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Updated account "+acct.Name))
			return nil
		}),
	}
	edit.Flags().String("name", "", "new name")
	edit.Flags().String("type", "", "new account type")
	edit.Flags().String("apr", "", "annual interest rate in percent")

	del := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account with no history",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			id, err := lookupAccount(s.ws.State(), args[0])
			if err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteAccount(id)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted account "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, edit, del)
	return cmd
}

func listAccounts(cmd *cobra.Command, _ []string, s *session) error {
	accounts := s.ws.State().Accounts
	if len(accounts) == 0 {
		printf(cmd, "%s\n", cli.FormatInfo("No accounts yet. Add one with 'zenith accounts add'."))
		return nil
	}
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		apr := ""
		if a.InterestRate != nil {
			apr = a.InterestRate.String() + "%"
		}
		rows = append(rows, []string{a.ID, a.Name, string(a.Type), cli.FormatAmount(a.Balance), apr})
	}
	printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Name", "Type", "Balance", "APR"}, rows))
	return nil
}

func accountTypeFlag(cmd *cobra.Command) (model.AccountType, error) {
	raw, _ := cmd.Flags().GetString("type")
	typ, err := model.ParseAccountType(raw)
	if err != nil {
		return "", fmt.Errorf("--type: %w", err)
	}
	return typ, nil
}

func aprFlag(cmd *cobra.Command) (*decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("apr")
	if raw == "" {
		return nil, nil
	}
	rate, err := parseAmount("apr", raw)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
