package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/persona"
)

// scriptedCompleter returns canned completions in order and records the
// params of every call.
type scriptedCompleter struct {
	responses []*openai.ChatCompletion
	calls     []openai.ChatCompletionNewParams
	err       error
}

func (c *scriptedCompleter) Complete(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	c.calls = append(c.calls, params)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, fmt.Errorf("no scripted response left")
	}
	resp := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return resp, nil
}

// recordingNotifier captures pushed messages.
type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Push(_ context.Context, message string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message)
	return nil
}

// staticSearcher returns fixed retrieval results.
type staticSearcher struct {
	results []index.Result
}

func (s *staticSearcher) Query(_ context.Context, _ string, _ int) ([]index.Result, error) {
	return s.results, nil
}

func textCompletion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: "stop",
			Message:      openai.ChatCompletionMessage{Content: content},
		}},
	}
}

func toolCallCompletion(id, name, arguments string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: "tool_calls",
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ChatCompletionMessageToolCall{{
					ID:   id,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      name,
						Arguments: arguments,
					},
				}},
			},
		}},
	}
}

func testOrchestrator(completer Completer, notifier *recordingNotifier, retrieved []index.Result) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assembler := persona.NewAssembler(persona.Profile{
		Name:     "Said Madi",
		Summary:  "Engineer.",
		LinkedIn: "Profile.",
	}, 0)
	tools := NewTools(notifier, logger)
	return New(completer, assembler, &staticSearcher{results: retrieved}, tools, "", logger)
}

func TestChat_PlainTextResponse(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		textCompletion("I spent five years at Acme Corp."),
	}}
	notifier := &recordingNotifier{}
	o := testOrchestrator(completer, notifier, []index.Result{
		{Chunk: index.Chunk{Text: "Worked at Acme Corp.", Source: "linkedin.pdf"}, Score: 0.9},
	})

	reply, err := o.Chat(context.Background(), "Where did you work?", nil)
	require.NoError(t, err)
	assert.Equal(t, "I spent five years at Acme Corp.", reply)
	assert.Empty(t, notifier.messages)
	require.Len(t, completer.calls, 1)

	// Retrieved context rides in the system message; tools are declared.
	call := completer.calls[0]
	require.NotEmpty(t, call.Messages)
	system := call.Messages[0].OfSystem.Content.OfString.Value
	assert.Contains(t, system, "[source: linkedin.pdf]")
	assert.Len(t, call.Tools, 2)
}

func TestChat_ToolRoundTrip(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_1", ToolRecordUnknownQuestion, `{"question": "What is your favorite color?"}`),
		textCompletion("I don't know that one, but I've noted it."),
	}}
	notifier := &recordingNotifier{}
	o := testOrchestrator(completer, notifier, nil)

	reply, err := o.Chat(context.Background(), "What is your favorite color?", nil)
	require.NoError(t, err)

	// The user sees only the final textual answer.
	assert.Equal(t, "I don't know that one, but I've noted it.", reply)
	assert.NotContains(t, reply, "record_unknown_question")

	// The side-channel received the recorded question.
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Recording What is your favorite color?", notifier.messages[0])

	// Second model call carries the assistant tool request plus the tool
	// result appended after the original prompt.
	require.Len(t, completer.calls, 2)
	first, second := completer.calls[0], completer.calls[1]
	require.Len(t, second.Messages, len(first.Messages)+2)

	toolMsg := second.Messages[len(second.Messages)-1]
	require.NotNil(t, toolMsg.OfTool)
	assert.Equal(t, "call_1", toolMsg.OfTool.ToolCallID)
	assert.Contains(t, toolMsg.OfTool.Content.OfString.Value, "recorded")
}

func TestChat_ContactDetailsTool(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_9", ToolRecordUserDetails, `{"email": "visitor@example.com", "name": "Visitor"}`),
		textCompletion("Thanks, I'll be in touch."),
	}}
	notifier := &recordingNotifier{}
	o := testOrchestrator(completer, notifier, nil)

	reply, err := o.Chat(context.Background(), "You can reach me at visitor@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "Thanks, I'll be in touch.", reply)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "visitor@example.com")
	assert.Contains(t, notifier.messages[0], "Visitor")
}

func TestChat_NotifierFailureDoesNotFailTurn(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_1", ToolRecordUnknownQuestion, `{"question": "Anything?"}`),
		textCompletion("Noted."),
	}}
	notifier := &recordingNotifier{err: fmt.Errorf("pushover is down")}
	o := testOrchestrator(completer, notifier, nil)

	reply, err := o.Chat(context.Background(), "Anything?", nil)
	require.NoError(t, err, "a failed push must not fail the conversation")
	assert.Equal(t, "Noted.", reply)
}

func TestChat_ToolRoundCap(t *testing.T) {
	// A model that never stops requesting tools must be cut off.
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		toolCallCompletion("call_x", ToolRecordUnknownQuestion, `{"question": "loop"}`),
	}}
	notifier := &recordingNotifier{}
	o := testOrchestrator(completer, notifier, nil)

	_, err := o.Chat(context.Background(), "loop forever", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool round-trips")
	assert.Len(t, notifier.messages, maxToolRounds)
}

func TestChat_HistoryPreserved(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		textCompletion("As I said, Acme Corp."),
	}}
	o := testOrchestrator(completer, &recordingNotifier{}, nil)

	history := []persona.Turn{
		{Role: "user", Content: "Where did you work?"},
		{Role: "assistant", Content: "Acme Corp."},
	}
	_, err := o.Chat(context.Background(), "Can you repeat that?", history)
	require.NoError(t, err)

	require.Len(t, completer.calls, 1)
	// system + 2 history turns + current message
	assert.Len(t, completer.calls[0].Messages, 4)
}

func TestChat_CompleterErrorPropagates(t *testing.T) {
	completer := &scriptedCompleter{err: fmt.Errorf("upstream unavailable")}
	o := testOrchestrator(completer, &recordingNotifier{}, nil)

	_, err := o.Chat(context.Background(), "Hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestAnswer_GroundedOnRetrievedContext(t *testing.T) {
	completer := &scriptedCompleter{responses: []*openai.ChatCompletion{
		textCompletion("Alice worked at Acme Corp."),
	}}
	o := testOrchestrator(completer, &recordingNotifier{}, nil)

	retrieved := []index.Result{
		{Chunk: index.Chunk{Text: "Alice worked at Acme Corp for five years.", Source: "summary.txt"}, Score: 0.95},
	}
	answer, err := o.Answer(context.Background(), "Where did Alice work?", retrieved)
	require.NoError(t, err)
	assert.Equal(t, "Alice worked at Acme Corp.", answer)

	require.Len(t, completer.calls, 1)
	call := completer.calls[0]
	assert.Empty(t, call.Tools, "the retrieval endpoint exposes no tools")

	system := call.Messages[0].OfSystem.Content.OfString.Value
	assert.Contains(t, system, "based only on the provided context")
	assert.Contains(t, system, "Acme Corp for five years")
}
