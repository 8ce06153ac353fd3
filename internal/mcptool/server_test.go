package mcptool

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saidmadi/persona-api/internal/chat"
	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/persona"
	"github.com/saidmadi/persona-api/internal/retriever"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fixedCompleter struct {
	reply string
}

func (c *fixedCompleter) Complete(_ context.Context, _ openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: "stop",
			Message:      openai.ChatCompletionMessage{Content: c.reply},
		}},
	}, nil
}

func testRetriever(t *testing.T, texts ...string) *retriever.Retriever {
	t.Helper()
	idx := index.NewMemory()
	for i, text := range texts {
		require.NoError(t, idx.Insert(context.Background(), []index.Entry{{
			Chunk:     index.Chunk{ID: string(rune('a' + i)), Text: text, Source: "summary.txt", Position: i},
			Embedding: []float32{1, 0},
		}}))
	}
	rtr, err := retriever.New(fixedEmbedder{}, idx, 3)
	require.NoError(t, err)
	return rtr
}

func testOrchestrator(reply string) *chat.Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assembler := persona.NewAssembler(persona.Profile{Name: "Said Madi"}, 0)
	return chat.New(&fixedCompleter{reply: reply}, assembler, nil, nil, "", logger)
}

func TestSearchHandler(t *testing.T) {
	rtr := testRetriever(t, "Worked at Acme Corp.", "Studied at MIT.")
	handler := makeSearchHandler(rtr)

	_, out, err := handler(context.Background(), nil, SearchInput{Query: "work history", TopK: 2})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "Worked at Acme Corp.", out.Results[0].Text)
	assert.Equal(t, "summary.txt", out.Results[0].Source)
	assert.Empty(t, out.Message)
}

func TestSearchHandler_NoMatches(t *testing.T) {
	rtr := testRetriever(t) // empty index
	handler := makeSearchHandler(rtr)

	_, out, err := handler(context.Background(), nil, SearchInput{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.NotEmpty(t, out.Message)
}

func TestAskHandler(t *testing.T) {
	rtr := testRetriever(t, "Worked at Acme Corp.")
	handler := makeAskHandler(rtr, testOrchestrator("Acme Corp, for five years."))

	_, out, err := handler(context.Background(), nil, AskInput{Question: "Where did you work?"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp, for five years.", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "Worked at Acme Corp.", out.Sources[0].Text)
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := NewServer(testRetriever(t, "chunk"), testOrchestrator("ok"))
	assert.NotNil(t, s.server)
	assert.NotNil(t, s.HTTPHandler())
}
