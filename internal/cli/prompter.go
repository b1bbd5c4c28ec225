package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// Prompter asks the user questions on a terminal.
type Prompter struct {
	in  *LineReader
	out io.Writer
}

// NewPrompter creates a prompter. Nil arguments default to stdin and
// stdout.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{in: NewLineReader(in), out: out}
}

// Ask prints prompt and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := p.in.ReadLine(ctx)
	if err == io.EOF {
		return "", fmt.Errorf("input terminated")
	}
	return answer, err
}

// Confirm asks a yes/no question. Anything other than y or yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Choose repeats prompt until the answer is one of choices.
func (p *Prompter) Choose(ctx context.Context, prompt string, choices []string) (string, error) {
	for {
		answer, err := p.Ask(ctx, fmt.Sprintf("%s (%s)", prompt, strings.Join(choices, "/")))
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		if slices.Contains(choices, answer) {
			return answer, nil
		}
		if _, err := fmt.Fprintln(p.out, FormatError("Invalid choice. Please try again.")); err != nil {
			return "", err
		}
	}
}

// AskAmount repeats prompt until the answer parses as a positive amount.
func (p *Prompter) AskAmount(ctx context.Context, prompt string) (decimal.Decimal, error) {
	for {
		answer, err := p.Ask(ctx, prompt)
		if err != nil {
			return decimal.Zero, err
		}
		amount, perr := decimal.NewFromString(strings.TrimPrefix(answer, "$"))
		if perr == nil && amount.IsPositive() {
			return amount, nil
		}
		if _, err := fmt.Fprintln(p.out, FormatError("Enter an amount greater than zero.")); err != nil {
			return decimal.Zero, err
		}
	}
}

// NewProgressBar draws import progress on w.
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}
