// Package chat runs the conversation loop: assemble the prompt, call the
// language model, execute requested tools, and repeat until the model
// returns a plain textual answer.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/persona"
)

// DefaultModel is the chat model used unless configured otherwise.
const DefaultModel = "gpt-4o-mini"

// maxToolRounds caps tool round-trips per user turn so a misbehaving model
// cannot loop forever.
const maxToolRounds = 8

// State enumerates the orchestrator's per-turn states. Each iteration allows
// at most one tool round-trip; a plain-text response terminates the loop.
type State int

const (
	StateAwaitingInput State = iota
	StateModelCalled
	StateToolRequested
	StateToolExecuted
	StateResponseReady
)

// Completer abstracts the chat-completions call so tests can substitute a
// scripted model.
type Completer interface {
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAICompleter calls the real OpenAI API.
type OpenAICompleter struct {
	Client *openai.Client
}

func (c *OpenAICompleter) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.Client.Chat.Completions.New(ctx, params)
}

// Searcher is the retrieval capability the orchestrator consumes.
type Searcher interface {
	Query(ctx context.Context, text string, topK int) ([]index.Result, error)
}

// Orchestrator processes one user turn at a time per conversation: retrieve
// context, assemble the prompt, and drive the tool-call state machine until
// the model answers in plain text.
type Orchestrator struct {
	completer Completer
	assembler *persona.Assembler
	searcher  Searcher
	tools     *Tools
	model     string
	logger    *slog.Logger
}

// New constructs an Orchestrator. model == "" uses DefaultModel.
func New(completer Completer, assembler *persona.Assembler, searcher Searcher, tools *Tools, model string, logger *slog.Logger) *Orchestrator {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		completer: completer,
		assembler: assembler,
		searcher:  searcher,
		tools:     tools,
		model:     model,
		logger:    logger,
	}
}

// Chat handles one user turn and returns the assistant's textual reply.
// Tool calls are executed and fed back to the model; they are never shown
// to the end user.
func (o *Orchestrator) Chat(ctx context.Context, message string, history []persona.Turn) (string, error) {
	retrieved, err := o.searcher.Query(ctx, message, 0)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	messages := o.assembler.BuildMessages(retrieved, history, message)

	var (
		completion *openai.ChatCompletion
		rounds     int
	)
	state := StateAwaitingInput

	for state != StateResponseReady {
		switch state {
		case StateAwaitingInput:
			state = StateModelCalled

		case StateModelCalled:
			completion, err = o.completer.Complete(ctx, openai.ChatCompletionNewParams{
				Messages: messages,
				Model:    openai.ChatModel(o.model),
				Tools:    toolDefinitions(),
			})
			if err != nil {
				return "", fmt.Errorf("chat completion: %w", err)
			}
			if len(completion.Choices) == 0 {
				return "", fmt.Errorf("chat completion returned no choices")
			}
			choice := completion.Choices[0]
			if choice.FinishReason == "tool_calls" && len(choice.Message.ToolCalls) > 0 {
				state = StateToolRequested
			} else {
				state = StateResponseReady
			}

		case StateToolRequested:
			if rounds >= maxToolRounds {
				return "", fmt.Errorf("model exceeded %d tool round-trips", maxToolRounds)
			}
			rounds++

			msg := completion.Choices[0].Message
			messages = append(messages, msg.ToParam())
			for _, tc := range msg.ToolCalls {
				result := o.tools.dispatch(ctx, tc.Function.Name, tc.Function.Arguments)
				messages = append(messages, openai.ToolMessage(result, tc.ID))
			}
			state = StateToolExecuted

		case StateToolExecuted:
			state = StateModelCalled
		}
	}

	return completion.Choices[0].Message.Content, nil
}

// Answer generates a grounded answer for the retrieval endpoint: the model
// sees only the retrieved passages and the query, no persona or tools.
func (o *Orchestrator) Answer(ctx context.Context, query string, retrieved []index.Result) (string, error) {
	system := "You are a helpful assistant. Answer the question based only on the provided context."
	if block := o.assembler.ContextBlock(retrieved); block != "" {
		system += "\n\n" + block
	}

	completion, err := o.completer.Complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(query),
		},
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
