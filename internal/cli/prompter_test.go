package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader(t *testing.T) {
	r := NewLineReader(strings.NewReader("  first \nsecond\nlast"))
	ctx := context.Background()

	for _, want := range []string{"first", "second", "last"} {
		got, err := r.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderCancellation(t *testing.T) {
	t.Run("already canceled", func(t *testing.T) {
		r := NewLineReader(strings.NewReader("x\n"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)
	})

	t.Run("abandoned read is delivered later", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pw.Close() }()
		r := NewLineReader(pr)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := r.ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)

		go func() { _, _ = pw.Write([]byte("late\n")) }()
		got, err := r.ReadLine(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "late", got)
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(tt.input), &out)
		got, err := p.Confirm(context.Background(), "Erase everything?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Contains(t, out.String(), "Erase everything? [y/N]")
	}
}

func TestConfirmEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Confirm(context.Background(), "Continue?")
	assert.Error(t, err)
}

func TestChooseRetriesUntilValid(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("maybe\nAvalanche\n"), &out)

	got, err := p.Choose(context.Background(), "Strategy", []string{"avalanche", "snowball"})
	require.NoError(t, err)
	assert.Equal(t, "avalanche", got)
	assert.Contains(t, out.String(), "Invalid choice")
}

func TestAskAmount(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("abc\n-5\n$12.50\n"), &out)

	got, err := p.AskAmount(context.Background(), "Amount")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 2, strings.Count(out.String(), "greater than zero"))
}

func TestNewProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, 2, "Importing")
	require.NoError(t, bar.Add(2))
	assert.True(t, bar.IsFinished())
}

func TestRenderTable(t *testing.T) {
	got := RenderTable([]string{"Name", "Balance"}, [][]string{{"Checking", "$10.00"}})
	assert.Contains(t, got, "Name")
	assert.Contains(t, got, "Checking")
	assert.Contains(t, got, "$10.00")
}

func TestFormatAmount(t *testing.T) {
	assert.Contains(t, FormatAmount(decimal.NewFromInt(5)), "$5.00")
	assert.Contains(t, FormatAmount(decimal.NewFromInt(-5)), "5.00")
	assert.Equal(t, "$0.00", FormatAmount(decimal.Zero))
}
