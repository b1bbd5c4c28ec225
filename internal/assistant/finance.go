package assistant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
)

const (
	budgetLookbackDays  = 90
	minBudgetExpenses   = 5
	minBriefingExpenses = 2
	forecastSampleSize  = 100
	descriptionLimit    = 50
)

// categoryRef is the compact category form used in prompts.
type categoryRef struct {
	ID   string `json:"id"`
	Name string `json:"n"`
}

func categoryRefs(cats []model.Category) []categoryRef {
	out := make([]categoryRef, len(cats))
	for i, c := range cats {
		out[i] = categoryRef{ID: c.ID, Name: c.Name}
	}
	return out
}

func categoryIDs(cats []model.Category) string {
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return strings.Join(ids, ", ")
}

func knownCategory(cats []model.Category, id string) bool {
	return slices.ContainsFunc(cats, func(c model.Category) bool { return c.ID == id })
}

// isExpense reports whether t is real spending, excluding opening seeds.
func isExpense(t model.Transaction) bool {
	return t.Type == model.TransactionExpense && !t.Opening
}

type categorySuggestion struct {
	CategoryID string `json:"categoryId"`
}

// SuggestCategory picks the best category for a transaction description. It
// returns "" when the model names a category that does not exist.
func (a *Assistant) SuggestCategory(ctx context.Context, description string, categories []model.Category) (string, error) {
	const op = "suggest category"
	if strings.TrimSpace(description) == "" {
		return "", insufficient(op, "a description is required")
	}

	lines := make([]string, len(categories))
	for i, c := range categories {
		lines[i] = fmt.Sprintf("- %s (id: %s)", c.Name, c.ID)
	}
	prompt := fmt.Sprintf(`Based on the following transaction description, which of these categories is the best fit?

Description: %q

Available Categories (with their IDs):
%s

Respond with the ID of the best matching category. If none seem to fit well, choose the most plausible one or the 'Other' category if available.`,
		description, strings.Join(lines, "\n"))

	schema := llm.Object(map[string]*llm.Schema{
		"categoryId": llm.String("The ID of the most relevant category. Must be one of " + categoryIDs(categories) + "."),
	}, "categoryId")

	out, err := structured[categorySuggestion](ctx, a, op, llm.Request{
		Prompt:      prompt,
		Schema:      schema,
		Temperature: llm.Temp(0),
	})
	if err != nil {
		return "", err
	}
	if !knownCategory(categories, out.CategoryID) {
		a.logger.Debug("AI suggested unknown category", "categoryId", out.CategoryID)
		return "", nil
	}
	return out.CategoryID, nil
}

// BudgetSuggestion is a proposed monthly budget for one category.
type BudgetSuggestion struct {
	CategoryID      string          `json:"categoryId"`
	Reasoning       string          `json:"reasoning"`
	SuggestedAmount decimal.Decimal `json:"suggestedAmount"`
}

type budgetSuggestions []BudgetSuggestion

func (b *budgetSuggestions) validate() error {
	for i, s := range *b {
		if err := required("categoryId", s.CategoryID); err != nil {
			return fmt.Errorf("suggestion %d: %w", i, err)
		}
		if !s.SuggestedAmount.IsPositive() {
			return fmt.Errorf("suggestion %d: suggestedAmount must be positive", i)
		}
	}
	return nil
}

type expenseRef struct {
	Amount     float64 `json:"a"`
	CategoryID string  `json:"c"`
	Date       string  `json:"d,omitempty"`
	Desc       string  `json:"de,omitempty"`
}

// SuggestBudgets proposes monthly budgets from the last 90 days of
// categorized spending. Suggestions for unknown categories are dropped.
func (a *Assistant) SuggestBudgets(ctx context.Context, s *ledger.State) ([]BudgetSuggestion, error) {
	const op = "suggest budgets"
	since := a.now().AddDate(0, 0, -budgetLookbackDays)

	var expenses []expenseRef
	for _, t := range s.Transactions {
		if !isExpense(t) || t.CategoryID == "" || t.Date.Before(since) {
			continue
		}
		expenses = append(expenses, expenseRef{
			Amount:     t.Amount.InexactFloat64(),
			CategoryID: t.CategoryID,
			Date:       t.Date.Format(model.DateLayout),
		})
	}
	if len(expenses) < minBudgetExpenses {
		return nil, insufficient(op, "not enough recent expense data to generate a budget; add more transactions from the last 90 days")
	}

	prompt := fmt.Sprintf(`Act as a financial advisor. I will provide you with my expense history for the last 90 days and my list of expense categories.
Analyze my spending patterns for each category and suggest a reasonable monthly budget for each one I've spent money in.
Base your suggestions on my average monthly spending, but round to a sensible number (e.g., round $123 to $125 or $150, not $123). Provide a brief reasoning for each suggestion.
Do not suggest budgets for categories with no spending.

My Categories (id, name):
%s

My Recent Expenses (a: amount, c: categoryId, d: date):
%s

Please provide the budget suggestions in the specified JSON format.`,
		compact(categoryRefs(s.Categories)), compact(expenses))

	schema := llm.ArrayOf(llm.Object(map[string]*llm.Schema{
		"categoryId":      llm.String("The ID of the category for the budget. Must be one of " + categoryIDs(s.Categories) + "."),
		"suggestedAmount": llm.Number("A sensible, rounded, suggested monthly budget amount for this category."),
		"reasoning":       llm.String("A short (1-2 sentences) explanation for the suggestion, referencing average spending."),
	}, "categoryId", "suggestedAmount", "reasoning"))

	out, err := structured[budgetSuggestions](ctx, a, op, llm.Request{
		Prompt:      prompt,
		Schema:      schema,
		Temperature: llm.Temp(0.5),
	})
	if err != nil {
		return nil, err
	}

	valid := make([]BudgetSuggestion, 0, len(out))
	for _, sug := range out {
		if knownCategory(s.Categories, sug.CategoryID) {
			valid = append(valid, sug)
		}
	}
	return valid, nil
}

// TopCategory is the largest spending category in a briefing.
type TopCategory struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Briefing is a short summary of the month so far.
type Briefing struct {
	TopCategory    *TopCategory    `json:"topCategory"`
	Summary        string          `json:"summaryText"`
	SpentThisMonth decimal.Decimal `json:"spentThisMonth"`
	SpentLastMonth decimal.Decimal `json:"spentLastMonth"`
	ChangePercent  float64         `json:"spendingChangePercentage"`
}

type briefingReply struct {
	TopCategory   *TopCategory `json:"topCategory"`
	ChangePercent *float64     `json:"spendingChangePercentage"`
	Summary       string       `json:"summaryText"`
}

func (b *briefingReply) validate() error {
	if err := required("summaryText", b.Summary); err != nil {
		return err
	}
	if b.ChangePercent == nil {
		return errors.New("missing spendingChangePercentage")
	}
	return nil
}

// comparablePeriod returns the start of last month and the end of the same
// day-of-month in it, clamped to that month's length.
func comparablePeriod(now time.Time) (start, end time.Time) {
	start = model.StartOfMonth(now).AddDate(0, -1, 0)
	day := now.Day()
	if last := model.DaysIn(start.Year(), start.Month()); day > last {
		day = last
	}
	return start, start.AddDate(0, 0, day)
}

// MonthlyBriefing summarizes this month's spending against the same
// period last month. At least two expenses this month are required.
func (a *Assistant) MonthlyBriefing(ctx context.Context, s *ledger.State) (Briefing, error) {
	const op = "monthly briefing"
	now := a.now()
	monthStart := model.StartOfMonth(now)
	lastStart, lastEnd := comparablePeriod(now)

	var (
		expenses  []expenseRef
		thisMonth decimal.Decimal
		lastMonth decimal.Decimal
	)
	for _, t := range s.Transactions {
		if !isExpense(t) {
			continue
		}
		switch {
		case !t.Date.Before(monthStart) && !t.Date.After(now):
			thisMonth = thisMonth.Add(t.Amount)
			expenses = append(expenses, expenseRef{
				Amount:     t.Amount.InexactFloat64(),
				CategoryID: t.CategoryID,
				Desc:       truncate(t.Description, descriptionLimit),
			})
		case !t.Date.Before(lastStart) && t.Date.Before(lastEnd):
			lastMonth = lastMonth.Add(t.Amount)
		}
	}
	if len(expenses) < minBriefingExpenses {
		return Briefing{}, insufficient(op, "not enough data for the current month to generate a briefing")
	}

	prompt := fmt.Sprintf(`Analyze my financial data for this month (%s) up to today, %s.

My Data:
- Spending so far this month: $%s
- Spending during the same period last month: $%s
- My expense categories: %s
- This month's expenses (a: amount, c: categoryId, de: description): %s

Please provide a concise analysis in the specified JSON format.`,
		now.Format("January"), now.Format("1/2/2006"),
		thisMonth.StringFixed(2), lastMonth.StringFixed(2),
		compact(categoryRefs(s.Categories)), compact(expenses))

	schema := llm.Object(map[string]*llm.Schema{
		"summaryText": llm.String("A very brief, encouraging, 1-2 sentence summary of this month's financial activity so far."),
		"spendingChangePercentage": llm.Number("Percentage change in spending compared to last month. E.g., for 15% increase, return 15. " +
			"For 10% decrease, return -10. Calculated as ((thisMonth - lastMonth) / lastMonth) * 100. Return 0 if last month spending is zero."),
		"topCategory": llm.Object(map[string]*llm.Schema{
			"name":   llm.String("The name of the top spending category this month."),
			"amount": llm.Number("The total amount spent in that category this month."),
		}),
	}, "summaryText", "spendingChangePercentage", "topCategory")

	reply, err := structured[briefingReply](ctx, a, op, llm.Request{
		Prompt:      prompt,
		Schema:      schema,
		Temperature: llm.Temp(0.3),
	})
	if err != nil {
		return Briefing{}, err
	}
	return Briefing{
		TopCategory:    reply.TopCategory,
		Summary:        reply.Summary,
		ChangePercent:  *reply.ChangePercent,
		SpentThisMonth: thisMonth,
		SpentLastMonth: lastMonth,
	}, nil
}

// ForecastIssue is a month flagged as a cash-flow risk.
type ForecastIssue struct {
	Month  string `json:"month"`
	Reason string `json:"reason"`
}

// GoalImpact is the model's view on whether a goal stays on track.
type GoalImpact struct {
	GoalName string `json:"goalName"`
	Forecast string `json:"forecast"`
}

// Forecast is a narrative cash-flow forecast. Projection is the local
// least-squares trend the narrative was given, when history allowed one.
type Forecast struct {
	Projection      *metrics.Projection `json:"projection,omitempty"`
	Summary         string              `json:"summary"`
	PotentialIssues []ForecastIssue     `json:"potentialIssues"`
	GoalImpact      []GoalImpact        `json:"goalImpact"`
	Recommendations []string            `json:"recommendations"`
}

func (f *Forecast) validate() error {
	if err := required("summary", f.Summary); err != nil {
		return err
	}
	if f.Recommendations == nil {
		return errors.New("missing recommendations")
	}
	return nil
}

// Forecast asks for a forecast over the next months.
func (a *Assistant) Forecast(ctx context.Context, s *ledger.State, months int) (Forecast, error) {
	const op = "forecast"
	if months <= 0 {
		return Forecast{}, insufficient(op, "forecast period must be at least one month")
	}

	summary := metrics.Summarize(s, metrics.MockPrices{})
	var projection *metrics.Projection
	if p, err := metrics.Project(metrics.Monthly(s), summary.NetWorth, months); err == nil {
		projection = &p
	}

	sample := s.Transactions
	if len(sample) > forecastSampleSize {
		sample = sample[:forecastSampleSize]
	}
	data := map[string]any{
		"recentTransactions":    sample,
		"recurringTransactions": s.Recurring,
		"goals":                 s.Goals,
		"currentBalance":        summary.NetWorth,
		"forecastPeriodMonths":  months,
	}
	if projection != nil {
		data["trendProjection"] = projection.Months
	}

	prompt := fmt.Sprintf(`Act as a financial analyst. Based on the following financial data, generate a forecast for the next %d months. Analyze spending habits, recurring transactions, and goals to provide a narrative summary, identify potential cash flow issues, comment on goal feasibility, and offer actionable recommendations. Today is %s.

Financial Context:
%s

Provide your analysis in the specified JSON format.`,
		months, a.now().Format("Mon Jan 02 2006"), compact(data))

	schema := llm.Object(map[string]*llm.Schema{
		"summary": llm.String("A 2-3 sentence narrative summary of the financial forecast. Mention the overall trend (positive, negative, stable) and key drivers."),
		"potentialIssues": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"month":  llm.String("The month where a potential issue is identified (e.g., 'July 2024')."),
			"reason": llm.String("A brief explanation of the issue."),
		}, "month", "reason")),
		"goalImpact": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"goalName": llm.String("The name of the user's goal."),
			"forecast": llm.String("A short sentence on whether the user is on track to meet this goal based on their forecast."),
		}, "goalName", "forecast")),
		"recommendations": llm.ArrayOf(llm.String("An actionable recommendation to improve the financial outlook.")),
	}, "summary", "potentialIssues", "goalImpact", "recommendations")

	out, err := structured[Forecast](ctx, a, op, llm.Request{
		Prompt:      prompt,
		Schema:      schema,
		Temperature: llm.Temp(0.5),
	})
	if err != nil {
		return Forecast{}, err
	}
	out.Projection = projection
	return out, nil
}

// Receipt is the transaction data read from a receipt image.
type Receipt struct {
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
}

func (r *Receipt) validate() error {
	if err := required("description", r.Description); err != nil {
		return err
	}
	if err := required("date", r.Date); err != nil {
		return err
	}
	if _, err := model.ParseDate(r.Date); err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD", r.Date)
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

// ParsedDate returns the receipt date.
func (r Receipt) ParsedDate() time.Time {
	d, _ := model.ParseDate(r.Date)
	return d
}

// ParseReceipt extracts vendor, total and date from a receipt image.
func (a *Assistant) ParseReceipt(ctx context.Context, image []byte, mimeType string) (Receipt, error) {
	const op = "parse receipt"
	if len(image) == 0 {
		return Receipt{}, insufficient(op, "receipt image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	today := a.now().Format(model.DateLayout)
	prompt := fmt.Sprintf("Analyze this receipt image. Extract the vendor name, the final total amount, and the transaction date. "+
		"Today is %s. If the date is ambiguous or not present, use today's date. Format the date as YYYY-MM-DD. "+
		"Provide the output in the specified JSON format.", today)

	schema := llm.Object(map[string]*llm.Schema{
		"description": llm.String("The name of the store or vendor."),
		"amount":      llm.Number("The final total amount of the transaction."),
		"date":        llm.String("The date of the transaction in YYYY-MM-DD format. If not found, return today's date."),
	}, "description", "amount", "date")

	return structured[Receipt](ctx, a, op, llm.Request{
		Prompt: prompt,
		Schema: schema,
		Images: []llm.Image{{MIMEType: mimeType, Data: image}},
	})
}

// Insight is a titled observation in a health analysis.
type Insight struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// HealthAnalysis is coaching feedback on a health score.
type HealthAnalysis struct {
	Summary             string    `json:"summary"`
	Strengths           []Insight `json:"strengths"`
	AreasForImprovement []Insight `json:"areasForImprovement"`
}

func (h *HealthAnalysis) validate() error {
	if err := required("summary", h.Summary); err != nil {
		return err
	}
	if h.Strengths == nil {
		return errors.New("missing strengths")
	}
	for i, area := range h.AreasForImprovement {
		if area.Title == "" || area.Suggestion == "" {
			return fmt.Errorf("area %d: missing title or suggestion", i)
		}
	}
	return nil
}

// HealthAnalysis explains a health score in a supportive tone.
func (a *Assistant) HealthAnalysis(ctx context.Context, h metrics.Health) (HealthAnalysis, error) {
	const op = "health analysis"
	prompt := fmt.Sprintf(`Act as a supportive financial coach. Here is a summary of a user's financial health.
- Overall Score: %d/100
- Savings Rate: %.1f%%
- Debt-to-Income Ratio: %.1f%%
- Emergency Fund: %.1f months
- Average Budget Usage: %.1f%% of budgeted amounts spent
- Credit Card Debt: %.1f%% of liquid savings

Based on this data, provide an analysis in the specified JSON format. The tone should be positive and empowering, even when pointing out weaknesses. Frame 'areas for improvement' as opportunities.`,
		h.Overall, h.SavingsRate.Value, h.DebtToIncome.Value, h.EmergencyFund.Value,
		h.BudgetAdherence.Value, h.CreditCardBurden.Value)

	insight := map[string]*llm.Schema{
		"title":       llm.String(""),
		"explanation": llm.String(""),
	}
	improvement := map[string]*llm.Schema{
		"title":       llm.String(""),
		"explanation": llm.String(""),
		"suggestion":  llm.String("A concrete, actionable suggestion."),
	}
	schema := llm.Object(map[string]*llm.Schema{
		"summary":             llm.String("A 2-3 sentence, encouraging summary of the user's overall financial health based on their score."),
		"strengths":           llm.ArrayOf(llm.Object(insight, "title", "explanation")),
		"areasForImprovement": llm.ArrayOf(llm.Object(improvement, "title", "explanation", "suggestion")),
	}, "summary", "strengths", "areasForImprovement")

	return structured[HealthAnalysis](ctx, a, op, llm.Request{
		Prompt:      prompt,
		Schema:      schema,
		Temperature: llm.Temp(0.6),
	})
}

// ReportCategory is the top category in a report.
type ReportCategory struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// UnusualSpend is a transaction the model flagged.
type UnusualSpend struct {
	Description string          `json:"description"`
	Reason      string          `json:"reason"`
	Amount      decimal.Decimal `json:"amount"`
}

// SpendingBreakdown is the spending section of a report.
type SpendingBreakdown struct {
	TopCategory     *ReportCategory `json:"topCategory,omitempty"`
	UnusualSpending []UnusualSpend  `json:"unusualSpending"`
}

// BudgetLine is one budget's performance in a report.
type BudgetLine struct {
	Category string          `json:"category"`
	Status   string          `json:"status"`
	Budgeted decimal.Decimal `json:"budgeted"`
	Spent    decimal.Decimal `json:"spent"`
}

// Report is a monthly financial report.
type Report struct {
	Title             string            `json:"reportTitle"`
	OverallSummary    string            `json:"overallSummary"`
	GoalProgress      string            `json:"goalProgress"`
	KeyInsights       []string          `json:"keyInsights"`
	ActionableTips    []string          `json:"actionableTips"`
	BudgetPerformance []BudgetLine      `json:"budgetPerformance"`
	SpendingBreakdown SpendingBreakdown `json:"spendingBreakdown"`
}

func (r *Report) validate() error {
	if err := required("reportTitle", r.Title); err != nil {
		return err
	}
	return required("overallSummary", r.OverallSummary)
}

// FinancialReport writes a report for the current month.
func (a *Assistant) FinancialReport(ctx context.Context, s *ledger.State) (Report, error) {
	const op = "financial report"
	now := a.now()

	var txns []model.Transaction
	for _, t := range s.Transactions {
		if model.SameMonth(t.Date, now) && !t.Opening {
			txns = append(txns, t)
		}
	}
	if len(txns) == 0 {
		return Report{}, insufficient(op, "no transactions recorded for this month to generate a report")
	}

	data := map[string]any{
		"transactions": txns,
		"budgets":      s.Budgets,
		"goals":        s.Goals,
		"categories":   s.Categories,
	}
	prompt := fmt.Sprintf("Generate a financial report for %s. The user's expense categories are custom, so use the provided "+
		"'categories' list to map 'categoryId' to a human-readable name. Analyze this data: %s",
		now.Format("January 2006"), compact(data))

	strs := llm.ArrayOf(llm.String(""))
	schema := llm.Object(map[string]*llm.Schema{
		"reportTitle":    llm.String(""),
		"overallSummary": llm.String(""),
		"keyInsights":    strs,
		"spendingBreakdown": llm.Object(map[string]*llm.Schema{
			"topCategory": llm.Object(map[string]*llm.Schema{
				"category":   llm.String(""),
				"amount":     llm.Number(""),
				"percentage": llm.Number(""),
			}),
			"unusualSpending": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
				"description": llm.String(""),
				"amount":      llm.Number(""),
				"reason":      llm.String(""),
			})),
		}),
		"budgetPerformance": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"category": llm.String(""),
			"budgeted": llm.Number(""),
			"spent":    llm.Number(""),
			"status":   llm.String(""),
		})),
		"goalProgress":   llm.String(""),
		"actionableTips": strs,
	}, "reportTitle", "overallSummary", "keyInsights", "spendingBreakdown", "budgetPerformance", "goalProgress", "actionableTips")

	return structured[Report](ctx, a, op, llm.Request{Prompt: prompt, Schema: schema})
}
