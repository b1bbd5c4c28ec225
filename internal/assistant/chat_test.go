package assistant

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/model"
)

func TestChat(t *testing.T) {
	var txns []model.Transaction
	for i := 0; i < 60; i++ {
		txns = append(txns, expense("t"+strconv.Itoa(i), "1", "cat-1", now.Add(-time.Duration(i)*time.Hour)))
	}
	s := stateWith(txns...)

	client := &fakeClient{reply: "You spent $60 on food."}
	chat := newTestAssistant(client).NewChat(s)

	var streamed strings.Builder
	reply, err := chat.Send(context.Background(), "How much on food?", false, func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "You spent $60 on food.", reply.Text)
	assert.Equal(t, reply.Text, streamed.String())

	req := client.last()
	assert.Contains(t, req.System, "You are 'Zenith AI'")
	assert.Contains(t, req.System, "Current Date: 3/15/2025")
	require.Len(t, req.History, 2)
	assert.Contains(t, req.History[0].Text, `"id":"t49"`)
	assert.NotContains(t, req.History[0].Text, `"id":"t50"`)
	assert.False(t, req.Grounding)

	turns := chat.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, Greeting, turns[0].Text)
	assert.Equal(t, llm.RoleUser, turns[1].Role)
}

func TestChatGroundingAndFailure(t *testing.T) {
	calls := 0
	client := &fakeClient{respond: func(req llm.Request) (llm.Response, error) {
		calls++
		if calls == 2 {
			return llm.Response{}, &llm.StatusError{Provider: "Gemini", Code: 500, Body: "oops"}
		}
		return llm.Response{Text: "Rates are up.", Sources: []llm.Source{{URI: "https://a", Title: "A"}}}, nil
	}}
	chat := newTestAssistant(client).NewChat(stateWith())

	reply, err := chat.Send(context.Background(), "What are rates doing?", true, nil)
	require.NoError(t, err)
	assert.Len(t, reply.Sources, 1)
	assert.True(t, client.last().Grounding)

	_, err = chat.Send(context.Background(), "And now?", true, nil)
	assert.True(t, IsKind(err, KindStatus))
	assert.Len(t, chat.Turns(), 3)

	_, err = chat.Send(context.Background(), "   ", false, nil)
	assert.True(t, IsKind(err, KindInsufficientData))
}

func TestChatStopsOnCallbackError(t *testing.T) {
	chat := newTestAssistant(&fakeClient{reply: "one two three"}).NewChat(stateWith())
	stop := errors.New("client went away")
	_, err := chat.Send(context.Background(), "hi", false, func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Len(t, chat.Turns(), 1)
}
