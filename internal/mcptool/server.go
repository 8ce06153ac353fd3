// Package mcptool exposes the knowledge base to MCP clients as tools, over
// stdio or streamable HTTP.
package mcptool

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/saidmadi/persona-api/internal/chat"
	"github.com/saidmadi/persona-api/internal/index"
	"github.com/saidmadi/persona-api/internal/retriever"
)

// SearchInput defines the input parameters for the search_knowledge tool.
type SearchInput struct {
	// Query is the semantic search query against the personal knowledge base.
	Query string `json:"query"`
	// TopK is the maximum number of passages to return (defaults to 3).
	TopK int `json:"top_k,omitempty"`
}

// SearchOutput contains the retrieved passages.
type SearchOutput struct {
	Results []Passage `json:"results"`
	Message string    `json:"message,omitempty"`
}

// Passage is a single retrieved knowledge-base chunk.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is answered from the retrieved knowledge-base context only.
	Question string `json:"question"`
}

// AskOutput contains the grounded answer and its supporting passages.
type AskOutput struct {
	Answer  string    `json:"answer"`
	Sources []Passage `json:"sources"`
}

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server with the knowledge-base tools registered.
func NewServer(rtr *retriever.Retriever, orchestrator *chat.Orchestrator) *Server {
	impl := &mcp.Implementation{
		Name:    "persona-knowledge-server",
		Version: "v0.1.0",
	}
	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the personal knowledge base (resume, profile, extra documents) semantically. Returns matching passages with source attribution.",
	}, makeSearchHandler(rtr))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered strictly from the personal knowledge base.",
	}, makeAskHandler(rtr, orchestrator))

	return &Server{server: server}
}

// Run starts the server on stdio (blocks until the client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns a streamable-HTTP transport for mounting on a mux.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}

func makeSearchHandler(rtr *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		results, err := rtr.Query(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			return nil, SearchOutput{
				Results: []Passage{},
				Message: "No matching passages found. Try broader search terms.",
			}, nil
		}
		return nil, SearchOutput{Results: toPassages(results)}, nil
	}
}

func makeAskHandler(rtr *retriever.Retriever, orchestrator *chat.Orchestrator) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		results, err := rtr.Query(ctx, input.Question, 0)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("retrieval failed: %w", err)
		}
		answer, err := orchestrator.Answer(ctx, input.Question, results)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("answer failed: %w", err)
		}
		return nil, AskOutput{Answer: answer, Sources: toPassages(results)}, nil
	}
}

func toPassages(results []index.Result) []Passage {
	passages := make([]Passage, len(results))
	for i, r := range results {
		passages[i] = Passage{
			Text:   r.Chunk.Text,
			Source: r.Chunk.Source,
			Score:  r.Score,
		}
	}
	return passages
}
