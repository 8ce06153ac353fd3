package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/saidmadi/persona-api/internal/notify"
)

// Tool names the model may call. The set is fixed.
const (
	ToolRecordUserDetails     = "record_user_details"
	ToolRecordUnknownQuestion = "record_unknown_question"
)

// ContactDetails is the payload of the record_user_details tool.
type ContactDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// UnknownQuestion is the payload of the record_unknown_question tool.
type UnknownQuestion struct {
	Question string `json:"question"`
}

// Tools executes the fixed tool set against the notification side-channel.
// Notifier failures are logged, never surfaced to the conversation: the
// chat turn must not fail because a push did not go through.
type Tools struct {
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewTools wires the tool set to a notifier.
func NewTools(notifier notify.Notifier, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{notifier: notifier, logger: logger}
}

// RecordContactDetails notifies that a visitor left contact details.
func (t *Tools) RecordContactDetails(ctx context.Context, d ContactDetails) {
	if d.Name == "" {
		d.Name = "Name not provided"
	}
	if d.Notes == "" {
		d.Notes = "not provided"
	}
	msg := fmt.Sprintf("Recording %s with email %s and notes %s", d.Name, d.Email, d.Notes)
	if err := t.notifier.Push(ctx, msg); err != nil {
		t.logger.Warn("contact details notification failed", "error", err)
	}
}

// RecordUnknownQuestion notifies that a question could not be answered.
func (t *Tools) RecordUnknownQuestion(ctx context.Context, q UnknownQuestion) {
	if err := t.notifier.Push(ctx, fmt.Sprintf("Recording %s", q.Question)); err != nil {
		t.logger.Warn("unknown question notification failed", "error", err)
	}
}

// dispatch runs one tool call and returns the JSON result fed back to the
// model. Unknown tool names yield an empty result rather than an error; the
// model sees {"recorded":"ok"} either way, matching the fire-and-forget
// contract.
func (t *Tools) dispatch(ctx context.Context, name string, arguments string) string {
	t.logger.Info("tool called", "tool", name)

	switch name {
	case ToolRecordUserDetails:
		var d ContactDetails
		if err := json.Unmarshal([]byte(arguments), &d); err != nil {
			t.logger.Warn("malformed tool arguments", "tool", name, "error", err)
			return `{}`
		}
		t.RecordContactDetails(ctx, d)
		return `{"recorded": "ok"}`

	case ToolRecordUnknownQuestion:
		var q UnknownQuestion
		if err := json.Unmarshal([]byte(arguments), &q); err != nil {
			t.logger.Warn("malformed tool arguments", "tool", name, "error", err)
			return `{}`
		}
		t.RecordUnknownQuestion(ctx, q)
		return `{"recorded": "ok"}`

	default:
		t.logger.Warn("model requested unknown tool", "tool", name)
		return `{}`
	}
}

// toolDefinitions declares the fixed tool set for the chat completion call.
func toolDefinitions() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Function: openai.FunctionDefinitionParam{
				Name:        ToolRecordUserDetails,
				Description: openai.String("Use this tool to record that a user is interested in being in touch and provided an email address"),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"email": map[string]any{
							"type":        "string",
							"description": "The email address of this user",
						},
						"name": map[string]any{
							"type":        "string",
							"description": "The user's name, if they provided it",
						},
						"notes": map[string]any{
							"type":        "string",
							"description": "Any additional information about the conversation that's worth recording to give context",
						},
					},
					"required":             []string{"email"},
					"additionalProperties": false,
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        ToolRecordUnknownQuestion,
				Description: openai.String("Always use this tool to record any question that couldn't be answered as you didn't know the answer"),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question that couldn't be answered",
						},
					},
					"required":             []string{"question"},
					"additionalProperties": false,
				},
			},
		},
	}
}
