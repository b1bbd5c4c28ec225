package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/config"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
)

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Income, spending and net worth",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			state := s.ws.State()
			sum := metrics.Summarize(state, metrics.MockPrices{})

			printf(cmd, "%s\n\n", cli.FormatTitle("◆ Financial summary"))
			rows := [][]string{
				{"Total income", cli.FormatAmount(sum.TotalIncome)},
				{"Total expenses", cli.FormatAmount(sum.TotalExpenses.Neg())},
				{"Cash and savings", cli.FormatAmount(sum.AssetBalance)},
				{"Portfolio", cli.FormatAmount(sum.PortfolioValue)},
				{"Credit card debt", cli.FormatAmount(sum.CreditCardDebt.Neg())},
				{"Loan debt", cli.FormatAmount(sum.LoanDebt.Neg())},
				{"Net worth", cli.FormatAmount(sum.NetWorth)},
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"", "Amount"}, rows))

			months := metrics.Monthly(state)
			if len(months) > 0 {
				monthRows := make([][]string, 0, len(months))
				for _, m := range months {
					monthRows = append(monthRows, []string{m.Label, model.FormatUSD(m.Income), model.FormatUSD(m.Expenses), cli.FormatAmount(m.Net())})
				}
				printf(cmd, "\n%s\n", cli.RenderTable([]string{"Month", "Income", "Expenses", "Net"}, monthRows))
			}

			if byCategory := metrics.ExpensesByCategory(state); len(byCategory) > 0 {
				catRows := make([][]string, 0, len(byCategory))
				for _, c := range byCategory {
					catRows = append(catRows, []string{c.Name, model.FormatUSD(c.Value)})
				}
				printf(cmd, "\n%s\n", cli.RenderTable([]string{"Category", "Spent"}, catRows))
			}
			return nil
		}),
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Financial health score",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			h := metrics.ScoreHealth(s.ws.State(), s.ws.Now(), s.ws.HealthPolicy())
			printHealth(cmd, h)
			if h.Low(s.ws.HealthPolicy()) {
				printf(cmd, "\n%s\n", cli.FormatWarning("Your score is low. 'zenith ai health' explains how to improve it."))
			}
			return nil
		}),
	}
}

func printHealth(cmd *cobra.Command, h metrics.Health) {
	printf(cmd, "%s\n\n", cli.FormatTitle(fmt.Sprintf("◆ Health score %d/100", h.Overall)))
	line := func(name string, m metrics.Metric, unit string) []string {
		return []string{name, fmt.Sprintf("%.1f%s", m.Value, unit), fmt.Sprintf("%d/%d", m.Score, m.Max)}
	}
	rows := [][]string{
		line("Savings rate", h.SavingsRate, "%"),
		line("Debt to income", h.DebtToIncome, "%"),
		line("Emergency fund", h.EmergencyFund, " months"),
		line("Budget adherence", h.BudgetAdherence, "%"),
		line("Credit card burden", h.CreditCardBurden, "%"),
	}
	printf(cmd, "%s\n", cli.RenderTable([]string{"Metric", "Value", "Score"}, rows))
}

func debtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debt",
		Short: "Plan credit card payoff",
		Long: `Simulate paying off every credit card, putting --extra each month toward
one card chosen by strategy: avalanche (highest APR first) or snowball
(smallest balance first). The plan is compared with paying minimums only.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			strategy, _ := cmd.Flags().GetString("strategy")
			extra := decimal.Zero
			if changed(cmd, "extra") {
				var err error
				if extra, err = amountFlag(cmd, "extra"); err != nil {
					return err
				}
			}
			policy, err := config.MinPaymentPolicy()
			if err != nil {
				return err
			}

			plan, err := metrics.PlanDebt(s.ws.State(), metrics.Strategy(strings.ToLower(strategy)), extra, policy, s.ws.Now())
			switch {
			case errors.Is(err, metrics.ErrNoDebt):
				printf(cmd, "%s\n", cli.FormatSuccess("No credit card debt. Nothing to plan!"))
				return nil
			case errors.Is(err, metrics.ErrMissingInterest):
				return common.NewUserError("Every credit card needs an APR. Set one with 'zenith accounts edit <card> --apr 19.99'.", err)
			case err != nil:
				return err
			}

			printf(cmd, "%s\n\n", cli.FormatTitle("◆ Payoff plan: "+string(plan.Strategy)))
			printf(cmd, "Debt free by %s (%d months)\n", plan.PayoffDate.Format("January 2006"), plan.TotalMonths)
			printf(cmd, "Total interest %s\n", model.FormatUSD(plan.TotalInterest))
			if plan.Capped {
				printf(cmd, "%s\n", cli.FormatWarning("Payments barely cover interest; the plan stops after the maximum horizon with debt left."))
			}
			if extra.IsPositive() {
				printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Paying %s extra saves %s interest and %d months",
					model.FormatUSD(extra), model.FormatUSD(plan.InterestSaved()), plan.MonthsSaved())))
			}

			show, _ := cmd.Flags().GetInt("months")
			rows := [][]string{}
			for i, month := range plan.Schedule {
				if show > 0 && i >= show {
					break
				}
				for _, p := range month.Payments {
					rows = append(rows, []string{
						month.Date.Format("Jan 2006"), p.AccountName, model.FormatUSD(p.Payment),
						model.FormatUSD(p.InterestPaid), model.FormatUSD(p.RemainingBalance),
					})
				}
			}
			if len(rows) > 0 {
				printf(cmd, "\n%s\n", cli.RenderTable([]string{"Month", "Card", "Payment", "Interest", "Remaining"}, rows))
			}
			return nil
		}),
	}
	cmd.Flags().String("strategy", string(metrics.Avalanche), "avalanche or snowball")
	cmd.Flags().String("extra", "", "extra monthly payment")
	cmd.Flags().Int("months", 12, "schedule months to show (0 for all)")
	return cmd
}

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project balances from the monthly trend",
		Long: `Fit a straight line through monthly net cash flow and extend it. This is
a local projection; 'zenith ai forecast' adds a narrative on top.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			months, _ := cmd.Flags().GetInt("months")
			if months < 1 || months > 24 {
				return fmt.Errorf("--months must be between 1 and 24")
			}
			state := s.ws.State()
			sum := metrics.Summarize(state, metrics.MockPrices{})
			p, err := metrics.Project(metrics.Monthly(state), sum.NetWorth, months)
			if errors.Is(err, metrics.ErrInsufficientHistory) {
				return common.NewUserError("At least two months of history are needed for a forecast.", err)
			}
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(p.Months))
			for _, m := range p.Months {
				rows = append(rows, []string{m.Month.Format("Jan 2006"), cli.FormatAmount(m.Net), cli.FormatAmount(m.Balance)})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"Month", "Net", "Net worth"}, rows))
			printf(cmd, "Trend %+.2f/month (R² %.2f)\n", p.Slope, p.R2)
			return nil
		}),
	}
	cmd.Flags().Int("months", 6, "months to project (1-24)")
	return cmd
}

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Budget, goal, bill, loan and health alerts",
		Args:    cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			all, _ := cmd.Flags().GetBool("all")
			inbox := s.ws.Notifications()
			rows := [][]string{}
			for _, n := range inbox {
				if n.IsRead && !all {
					continue
				}
				mark := cli.BellIcon
				if n.IsRead {
					mark = ""
				}
				rows = append(rows, []string{mark, shortDate(n.Date), string(n.Type), n.Message, n.ID})
			}
			if len(rows) == 0 {
				printf(cmd, "%s\n", cli.FormatSuccess("All caught up"))
				return nil
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"", "Date", "Type", "Message", "ID"}, rows))
			printf(cmd, "%d unread\n", inbox.UnreadCount())
			return nil
		}),
	}
	cmd.Flags().Bool("all", false, "include read notifications")

	read := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark one notification, or all of them, read",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
			if len(args) == 0 {
				if err := s.ws.MarkAllRead(cmd.Context()); err != nil {
					return err
				}
				printf(cmd, "%s\n", cli.FormatSuccess("Marked all notifications read"))
				return nil
			}
			if err := s.ws.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Marked read"))
			return nil
		}),
	}

	cmd.AddCommand(read)
	return cmd
}
