package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
)

func investmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "investments",
		Aliases: []string{"holdings"},
		Short:   "Investment holdings and portfolio value",
		Long: `List holdings valued at simulated prices. Quotes are deterministic
per ticker and day; they are not real market data.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			state := s.ws.State()
			portfolio := metrics.Value(state.Holdings, metrics.MockPrices{})
			if len(portfolio.Holdings) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No holdings"))
				return nil
			}
			rows := make([][]string, 0, len(portfolio.Holdings))
			for _, h := range portfolio.Holdings {
				rows = append(rows, []string{
					h.ID, h.Ticker, h.Name, string(h.Type), state.AccountName(h.AccountID), h.Quantity.String(),
					model.FormatUSD(h.CurrentPrice), model.FormatUSD(h.CurrentValue), cli.FormatAmount(h.GainLoss),
				})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"ID", "Ticker", "Name", "Type", "Account", "Qty", "Price", "Value", "Gain/Loss"}, rows))
			printf(cmd, "Total value %s  cost %s  gain/loss %s\n",
				model.FormatUSD(portfolio.TotalValue), model.FormatUSD(portfolio.TotalCost), cli.FormatAmount(portfolio.TotalGainLoss))
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <ticker>",
		Short: "Record a holding in an investment account",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			h := model.InvestmentHolding{Ticker: args[0]}
			var err error
			accountRef, _ := cmd.Flags().GetString("account")
			if h.AccountID, err = lookupAccount(s.ws.State(), accountRef); err != nil {
				return err
			}
			rawType, _ := cmd.Flags().GetString("type")
			if h.Type, err = model.ParseHoldingType(rawType); err != nil {
				return fmt.Errorf("--type: %w", err)
			}
			h.Name, _ = cmd.Flags().GetString("name")
			if h.Quantity, err = amountFlag(cmd, "quantity"); err != nil {
				return err
			}
			if h.AvgCost, err = amountFlag(cmd, "cost"); err != nil {
				return err
			}
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				h, state, err = b.AddHolding(h)
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Added %s %s (%s)", h.Quantity, h.Ticker, h.ID)))
			return nil
		}),
	}
	add.Flags().String("account", "", "investment account name or ID")
	add.Flags().String("type", "stock", "stock, etf, crypto or mutual-fund")
	add.Flags().String("name", "", "display name (default the ticker)")
	add.Flags().String("quantity", "", "units held")
	add.Flags().String("cost", "", "average cost per unit")

	del := &cobra.Command{
		Use:   "delete <holding-id>",
		Short: "Delete a holding",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				return b.DeleteHolding(args[0])
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Deleted holding "+args[0]))
			return nil
		}),
	}

	cmd.AddCommand(add, del)
	return cmd
}
