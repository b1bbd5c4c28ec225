package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Veraticus/zenith/internal/assistant"
	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/tui"
	"github.com/Veraticus/zenith/internal/tui/themes"
)

// maxReceiptSize bounds receipt images sent inline to the model.
const maxReceiptSize = 10 << 20

func aiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Ask the AI assistant about your finances",
		Long: `AI features: category suggestions, budget proposals, monthly briefings,
forecasts, receipt scanning, health coaching, reports, an interactive chat,
and rugby/basketball tactics tools.

Needs llm.api_key (or GEMINI_API_KEY for the default Gemini provider).`,
	}

	cmd.AddCommand(
		aiSuggestCmd(),
		aiBudgetsCmd(),
		aiBriefingCmd(),
		aiForecastCmd(),
		aiReceiptCmd(),
		aiHealthCmd(),
		aiReportCmd(),
		aiDashboardCmd(),
		aiChatCmd(),
		tacticsCmd(),
	)
	return cmd
}

// withAssistant opens the workspace and the AI facade for fn.
func withAssistant(fn func(cmd *cobra.Command, args []string, s *session, a *assistant.Assistant) error) func(*cobra.Command, []string) error {
	return withSession(func(cmd *cobra.Command, args []string, s *session) error {
		a, closeFn, err := newAssistant(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd, args, s, a)
	})
}

func aiSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <description>",
		Short: "Suggest a category for a transaction description",
		Args:  cobra.ExactArgs(1),
		RunE: withAssistant(func(cmd *cobra.Command, args []string, s *session, a *assistant.Assistant) error {
			id, err := a.SuggestCategory(cmd.Context(), args[0], s.ws.State().Categories)
			if err != nil {
				return err
			}
			printf(cmd, "%s → %s (%s)\n", args[0], s.ws.State().CategoryName(id), id)
			return nil
		}),
	}
}

func aiBudgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Propose monthly budgets from the last 90 days",
		Args:  cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			suggestions, err := a.SuggestBudgets(cmd.Context(), s.ws.State())
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				printf(cmd, "%s\n", cli.FormatInfo("No suggestions"))
				return nil
			}
			rows := make([][]string, 0, len(suggestions))
			for _, sg := range suggestions {
				rows = append(rows, []string{s.ws.State().CategoryName(sg.CategoryID), model.FormatUSD(sg.SuggestedAmount), sg.Reasoning})
			}
			printf(cmd, "%s\n", cli.RenderTable([]string{"Category", "Budget", "Why"}, rows))

			apply, _ := cmd.Flags().GetBool("apply")
			if !apply {
				return nil
			}
			for _, sg := range suggestions {
				err := s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
					_, state, err := b.SetBudget(sg.CategoryID, sg.SuggestedAmount)
					return state, err
				})
				if errors.Is(err, ledger.ErrBudgetLimit) {
					printf(cmd, "%s\n", cli.FormatWarning("Free plan budget limit reached; skipped the rest. Run 'zenith auth upgrade' for unlimited budgets."))
					return nil
				}
				if err != nil {
					return err
				}
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Applied %d budget(s)", len(suggestions))))
			return nil
		}),
	}
	cmd.Flags().Bool("apply", false, "set the suggested budgets")
	return cmd
}

func aiBriefingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "briefing",
		Short: "This month's spending compared with last month",
		Args:  cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			b, err := a.MonthlyBriefing(cmd.Context(), s.ws.State())
			if err != nil {
				return err
			}
			printBriefing(cmd, b)
			return nil
		}),
	}
}

func printBriefing(cmd *cobra.Command, b assistant.Briefing) {
	body := fmt.Sprintf("%s\n\nSpent %s this month vs %s by now last month (%+.1f%%)",
		b.Summary, model.FormatUSD(b.SpentThisMonth), model.FormatUSD(b.SpentLastMonth), b.ChangePercent)
	if b.TopCategory != nil {
		body += fmt.Sprintf("\nTop category: %s (%s)", b.TopCategory.Name, model.FormatUSD(b.TopCategory.Amount))
	}
	printf(cmd, "%s\n", cli.RenderBox("Monthly briefing", body))
}

func aiForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Narrative cash-flow forecast",
		Args:  cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			months, _ := cmd.Flags().GetInt("months")
			f, err := a.Forecast(cmd.Context(), s.ws.State(), months)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.RenderBox(fmt.Sprintf("%d-month forecast", months), f.Summary))
			for _, issue := range f.PotentialIssues {
				printf(cmd, "%s\n", cli.FormatWarning(issue.Month+": "+issue.Reason))
			}
			for _, g := range f.GoalImpact {
				printf(cmd, "%s\n", cli.FormatInfo(g.GoalName+": "+g.Forecast))
			}
			for _, r := range f.Recommendations {
				printf(cmd, "  • %s\n", r)
			}
			if f.Projection != nil {
				rows := make([][]string, 0, len(f.Projection.Months))
				for _, m := range f.Projection.Months {
					rows = append(rows, []string{m.Month.Format("Jan 2006"), cli.FormatAmount(m.Net), cli.FormatAmount(m.Balance)})
				}
				printf(cmd, "\n%s\n", cli.RenderTable([]string{"Month", "Net", "Net worth"}, rows))
			}
			return nil
		}),
	}
	cmd.Flags().Int("months", 3, "months ahead")
	return cmd
}

func aiReceiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt <image>",
		Short: "Read a receipt photo into a transaction",
		Long: `Read the merchant, date and total from a receipt image. With --account the
result is recorded as an expense, categorized by the assistant.`,
		Args: cobra.ExactArgs(1),
		RunE: withAssistant(func(cmd *cobra.Command, args []string, s *session, a *assistant.Assistant) error {
			data, mime, err := readImage(args[0])
			if err != nil {
				return err
			}
			r, err := a.ParseReceipt(cmd.Context(), data, mime)
			if err != nil {
				return err
			}
			printf(cmd, "%s  %s  %s\n", r.Date, r.Description, model.FormatUSD(r.Amount))

			accountRef, _ := cmd.Flags().GetString("account")
			if accountRef == "" {
				return nil
			}
			state := s.ws.State()
			accountID, err := lookupAccount(state, accountRef)
			if err != nil {
				return err
			}
			categoryID, err := a.SuggestCategory(cmd.Context(), r.Description, state.Categories)
			if err != nil {
				categoryID = model.CategoryOtherID
			}
			var added model.Transaction
			err = s.mutate(cmd.Context(), func(b *ledger.Book) (*ledger.State, error) {
				var state *ledger.State
				added, state, err = b.AddTransaction(model.Transaction{
					Description: r.Description,
					Amount:      r.Amount,
					Type:        model.TransactionExpense,
					CategoryID:  categoryID,
					AccountID:   accountID,
					Date:        r.ParsedDate(),
				})
				return state, err
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess(fmt.Sprintf("Recorded as %s expense (%s)", s.ws.State().CategoryName(added.CategoryID), added.ID)))
			return nil
		}),
	}
	cmd.Flags().String("account", "", "record the receipt as an expense on this account")
	return cmd
}

func readImage(path string) ([]byte, string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxReceiptSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxReceiptSize {
		return nil, "", fmt.Errorf("image is larger than %d MB", maxReceiptSize>>20)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return data, mime, nil
}

func aiHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Coaching on your health score",
		Args:  cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			h := metrics.ScoreHealth(s.ws.State(), s.ws.Now(), s.ws.HealthPolicy())
			analysis, err := a.HealthAnalysis(cmd.Context(), h)
			if err != nil {
				return err
			}
			printHealth(cmd, h)
			printAnalysis(cmd, analysis)
			return nil
		}),
	}
}

func printAnalysis(cmd *cobra.Command, h assistant.HealthAnalysis) {
	printf(cmd, "\n%s\n", cli.RenderBox("Analysis", h.Summary))
	for _, s := range h.Strengths {
		printf(cmd, "%s\n  %s\n", cli.FormatSuccess(s.Title), s.Explanation)
	}
	for _, area := range h.AreasForImprovement {
		printf(cmd, "%s\n  %s\n  → %s\n", cli.FormatWarning(area.Title), area.Explanation, area.Suggestion)
	}
}

func aiReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Monthly financial report",
		Args:  cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			r, err := a.FinancialReport(cmd.Context(), s.ws.State())
			if err != nil {
				return err
			}
			printf(cmd, "%s\n\n%s\n", cli.FormatTitle(r.Title), r.OverallSummary)
			if top := r.SpendingBreakdown.TopCategory; top != nil {
				printf(cmd, "\nTop category: %s %s (%.0f%%)\n", top.Category, model.FormatUSD(top.Amount), top.Percentage)
			}
			for _, u := range r.SpendingBreakdown.UnusualSpending {
				printf(cmd, "%s\n", cli.FormatWarning(fmt.Sprintf("%s %s: %s", u.Description, model.FormatUSD(u.Amount), u.Reason)))
			}
			if len(r.BudgetPerformance) > 0 {
				rows := make([][]string, 0, len(r.BudgetPerformance))
				for _, b := range r.BudgetPerformance {
					rows = append(rows, []string{b.Category, model.FormatUSD(b.Budgeted), model.FormatUSD(b.Spent), b.Status})
				}
				printf(cmd, "\n%s\n", cli.RenderTable([]string{"Budget", "Budgeted", "Spent", "Status"}, rows))
			}
			if r.GoalProgress != "" {
				printf(cmd, "\n%s\n", r.GoalProgress)
			}
			printList(cmd, "Key insights", r.KeyInsights)
			printList(cmd, "Tips", r.ActionableTips)
			return nil
		}),
	}
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	printf(cmd, "\n%s\n", cli.FormatTitle(title))
	for _, item := range items {
		printf(cmd, "  • %s\n", item)
	}
}

func aiDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Briefing and health coaching together",
		Args:  cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			d, err := a.Dashboard(cmd.Context(), s.ws.State())
			if err != nil {
				return err
			}
			if d.Briefing != nil {
				printBriefing(cmd, *d.Briefing)
			} else {
				printf(cmd, "%s\n", cli.FormatInfo("Not enough spending this month for a briefing yet."))
			}
			printHealth(cmd, d.Health)
			printAnalysis(cmd, d.Analysis)
			return nil
		}),
	}
}

func aiChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant about your finances",
		Long: `Open an interactive chat grounded in your ledger. Ctrl+W toggles web
search for general questions. With --plain, or when input is not a
terminal, questions are read line by line instead.`,
		Args: cobra.NoArgs,
		RunE: withAssistant(func(cmd *cobra.Command, _ []string, s *session, a *assistant.Assistant) error {
			chat := a.NewChat(s.ws.State())
			web, _ := cmd.Flags().GetBool("web")
			plain, _ := cmd.Flags().GetBool("plain")
			if plain || !isTerminal(cmd.InOrStdin()) {
				return plainChat(cmd.Context(), cmd, chat, web)
			}
			return tui.Run(cmd.Context(), chat,
				tui.WithTheme(themes.ByName(viper.GetString("tui.theme"))),
				tui.WithWebSearch(web))
		}),
	}
	cmd.Flags().Bool("web", false, "start with web search on")
	cmd.Flags().Bool("plain", false, "line mode without the full-screen interface")
	return cmd
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// plainChat reads one question per line and streams each answer.
func plainChat(ctx context.Context, cmd *cobra.Command, chat tui.Sender, web bool) error {
	out := cmd.OutOrStdout()
	reader := cli.NewLineReader(cmd.InOrStdin())
	printf(cmd, "%s\n", assistant.Greeting)
	for {
		printf(cmd, "%s", cli.FormatPrompt("you> "))
		line, err := reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		reply, err := chat.Send(ctx, line, web, func(chunk string) error {
			_, err := io.WriteString(out, chunk)
			return err
		})
		if err != nil {
			printf(cmd, "%s\n", cli.FormatError(err.Error()))
			continue
		}
		printf(cmd, "\n")
		printSources(cmd, reply.Sources)
	}
}

func tacticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tactics",
		Short: "Rugby and basketball coaching tools",
	}

	footage := &cobra.Command{
		Use:   "footage <summary>",
		Short: "List key tactical moments in a match summary",
		Args:  cobra.ExactArgs(1),
		RunE: withTacticsAssistant(func(cmd *cobra.Command, args []string, a *assistant.Assistant) error {
			moments, err := a.AnalyzeFootage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printList(cmd, "Key moments", moments)
			return nil
		}),
	}

	drills := &cobra.Command{
		Use:   "drills <weakness>",
		Short: "Design three drills for a weakness",
		Args:  cobra.ExactArgs(1),
		RunE: withTacticsAssistant(func(cmd *cobra.Command, args []string, a *assistant.Assistant) error {
			out, err := a.GenerateDrills(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, d := range out {
				printf(cmd, "%s\n%s\nFocus: %s\n\n", cli.FormatTitle(d.Name), d.Description, strings.Join(d.Focus, ", "))
			}
			return nil
		}),
	}

	search := &cobra.Command{
		Use:   "search <question>",
		Short: "Answer a tactics question with web search",
		Args:  cobra.ExactArgs(1),
		RunE: withTacticsAssistant(func(cmd *cobra.Command, args []string, a *assistant.Assistant) error {
			res, err := a.SearchTactics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", res.Answer)
			printSources(cmd, res.Sources)
			return nil
		}),
	}

	feedback := &cobra.Command{
		Use:   "feedback <file.json>",
		Short: "Summarize player feedback into themes",
		Long: `Summarize a JSON array of feedback entries:
  [{"id": 1, "playerName": "Anonymous", "rating": 4, "comment": "...", "date": "2025-03-01"}]
Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: withTacticsAssistant(func(cmd *cobra.Command, args []string, a *assistant.Assistant) error {
			entries, err := readFeedback(cmd, args[0])
			if err != nil {
				return err
			}
			analysis, err := a.AnalyzePlayerFeedback(cmd.Context(), entries)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.RenderBox("Feedback summary", analysis.Summary))
			printList(cmd, "Positive themes", analysis.PositiveThemes)
			printList(cmd, "Areas to work on", analysis.ConstructiveThemes)
			return nil
		}),
	}

	cmd.AddCommand(footage, drills, search, feedback)
	return cmd
}

// withTacticsAssistant opens only the AI facade; tactics need no ledger.
func withTacticsAssistant(fn func(cmd *cobra.Command, args []string, a *assistant.Assistant) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := newAssistant(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd, args, a)
	}
}

func printSources(cmd *cobra.Command, sources []llm.Source) {
	if len(sources) == 0 {
		return
	}
	printf(cmd, "\n%s\n", cli.FormatTitle("Sources"))
	for i, src := range sources {
		name := src.Title
		if name == "" {
			name = src.URI
		}
		printf(cmd, "  [%d] %s %s\n", i+1, name, src.URI)
	}
}

func readFeedback(cmd *cobra.Command, path string) ([]assistant.Feedback, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open feedback: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var entries []assistant.Feedback
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse feedback: %w", err)
	}
	return entries, nil
}
