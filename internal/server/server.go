// Package server exposes the chat and retrieval endpoints over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/saidmadi/persona-api/internal/chat"
	"github.com/saidmadi/persona-api/internal/persona"
	"github.com/saidmadi/persona-api/internal/retriever"
)

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Orchestrator *chat.Orchestrator
	Retriever    *retriever.Retriever
	Tools        *chat.Tools
	Profile      persona.Profile
	IndexVariant string       // "memory" or "qdrant", reported by /health
	MCP          http.Handler // optional MCP transport mounted at /mcp
	Logger       *slog.Logger
}

// New builds the fiber application with all routes registered.
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:      "persona-api",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // chat turns can take a while
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	h := &handlers{deps: deps}
	app.Get("/", h.Root)
	app.Get("/health", h.Health)
	app.Post("/chat", h.Chat)
	app.Post("/rag/query", h.RAGQuery)
	app.Post("/record-details", h.RecordDetails)
	app.Post("/record-question", h.RecordQuestion)

	if deps.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(deps.MCP))
	}

	return app
}
