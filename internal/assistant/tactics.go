package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/llm"
)

// DrillCount is the number of drills GenerateDrills returns.
const DrillCount = 3

type moments []string

func (m *moments) validate() error {
	if len(*m) == 0 {
		return errors.New("expected at least one tactical moment")
	}
	for i, s := range *m {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("moment %d is empty", i)
		}
	}
	return nil
}

// AnalyzeFootage lists the key tactical moments in a match summary.
func (a *Assistant) AnalyzeFootage(ctx context.Context, summary string) ([]string, error) {
	const op = "analyze footage"
	if strings.TrimSpace(summary) == "" {
		return nil, insufficient(op, "match summary is empty")
	}

	prompt := fmt.Sprintf(`You are a world-class rugby and basketball tactical analyst.
Analyze the following match summary and identify 5-7 key tactical moments.
For each moment, provide a concise one-sentence description.
Focus on actionable insights a coach could use. Examples include line breaks, missed tackles, successful defensive sets, positional errors, or brilliant passes.
Do not mention the score or goals unless they are a direct result of a key tactical play.
Return the output as a JSON array of strings.

MATCH SUMMARY:
---
%s
---`, summary)

	out, err := structured[moments](ctx, a, op, llm.Request{
		Prompt: prompt,
		Schema: llm.ArrayOf(llm.String("A single, concise description of a key tactical moment.")),
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Drill is a training drill.
type Drill struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Focus       []string `json:"focus"`
}

type drills []Drill

func (d *drills) validate() error {
	if len(*d) != DrillCount {
		return fmt.Errorf("expected exactly %d drills, got %d", DrillCount, len(*d))
	}
	for i, drill := range *d {
		if drill.Name == "" || drill.Description == "" || len(drill.Focus) == 0 {
			return fmt.Errorf("drill %d is missing name, description or focus", i)
		}
	}
	return nil
}

// GenerateDrills designs exactly three drills addressing a weakness.
func (a *Assistant) GenerateDrills(ctx context.Context, weakness string) ([]Drill, error) {
	const op = "generate drills"
	if strings.TrimSpace(weakness) == "" {
		return nil, insufficient(op, "team weakness is empty")
	}

	prompt := fmt.Sprintf(`You are an expert coach with top-level credentials in both rugby and basketball.
Based on the following team weakness, create exactly 3 distinct and creative training drills.
For each drill, provide a name, a concise description of how to execute it, and a list of key focus areas (e.g., 'Communication', 'Positioning', 'Passing Accuracy').

Team Weakness: %q`, weakness)

	schema := llm.ArrayOf(llm.Object(map[string]*llm.Schema{
		"name":        llm.String("A short, catchy name for the drill."),
		"description": llm.String("A step-by-step description of the drill setup and execution."),
		"focus":       llm.ArrayOf(llm.String("A key skill or tactical area this drill improves.")),
	}, "name", "description", "focus")).Exactly(DrillCount)
	schema.Description = "A list of training drills."

	out, err := structured[drills](ctx, a, op, llm.Request{Prompt: prompt, Schema: schema})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchResult is a grounded answer.
type SearchResult struct {
	Answer  string       `json:"answer"`
	Sources []llm.Source `json:"sources"`
}

// SearchTactics answers a tactical question with web search grounding.
func (a *Assistant) SearchTactics(ctx context.Context, query string) (SearchResult, error) {
	const op = "search tactics"
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, insufficient(op, "query is empty")
	}

	prompt := fmt.Sprintf(`You are a world-class tactical analyst for rugby and basketball.
Answer the following question based on real-world, up-to-date information from your search results.
Provide a comprehensive and insightful answer.

Question: %q`, query)

	resp, err := a.generate(ctx, op, llm.Request{Prompt: prompt, Grounding: true})
	if err != nil {
		return SearchResult{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return SearchResult{}, &Error{Op: op, Kind: KindMalformed, Msg: "empty answer"}
	}
	sources := resp.Sources
	if sources == nil {
		sources = []llm.Source{}
	}
	return SearchResult{Answer: resp.Text, Sources: sources}, nil
}

// Feedback is one player's anonymous session feedback.
type Feedback struct {
	Date       string `json:"date"`
	PlayerName string `json:"playerName"`
	Comment    string `json:"comment"`
	ID         int    `json:"id"`
	Rating     int    `json:"rating"`
}

// FeedbackAnalysis summarizes player feedback into themes.
type FeedbackAnalysis struct {
	Summary            string   `json:"summary"`
	PositiveThemes     []string `json:"positiveThemes"`
	ConstructiveThemes []string `json:"constructiveThemes"`
}

func (f *FeedbackAnalysis) validate() error {
	if err := required("summary", f.Summary); err != nil {
		return err
	}
	if f.PositiveThemes == nil || f.ConstructiveThemes == nil {
		return errors.New("missing positiveThemes or constructiveThemes")
	}
	return nil
}

// AnalyzePlayerFeedback condenses feedback for the head coach.
func (a *Assistant) AnalyzePlayerFeedback(ctx context.Context, feedback []Feedback) (FeedbackAnalysis, error) {
	const op = "analyze feedback"
	if len(feedback) == 0 {
		return FeedbackAnalysis{}, insufficient(op, "no feedback to analyze")
	}

	comments := make([]string, len(feedback))
	for i, fb := range feedback {
		comments[i] = fmt.Sprintf("- (Rating: %d/5) %s", fb.Rating, fb.Comment)
	}
	prompt := fmt.Sprintf(`You are an experienced coaching assistant, skilled at interpreting player feedback.
Analyze the following list of anonymous feedback from a training session.
Your task is to synthesize this information into a clear, actionable summary for the head coach.

Follow these instructions:
1. Write a brief, one-paragraph overall summary of the feedback.
2. Identify 2-3 common POSITIVE themes. These are things players liked or found helpful.
3. Identify 2-3 common CONSTRUCTIVE themes. These are areas for improvement or things players struggled with.

Feedback Data:
---
%s
---`, strings.Join(comments, "\n"))

	schema := llm.Object(map[string]*llm.Schema{
		"summary":            llm.String("A one-paragraph summary of the overall sentiment and key takeaways."),
		"positiveThemes":     llm.ArrayOf(llm.String("A common positive point from the feedback.")),
		"constructiveThemes": llm.ArrayOf(llm.String("A common constructive point or area for improvement.")),
	}, "summary", "positiveThemes", "constructiveThemes")

	return structured[FeedbackAnalysis](ctx, a, op, llm.Request{Prompt: prompt, Schema: schema})
}
