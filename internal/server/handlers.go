package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/saidmadi/persona-api/internal/chat"
	"github.com/saidmadi/persona-api/internal/persona"
)

// notifyTimeout bounds the detached notification goroutines spawned by the
// record endpoints.
const notifyTimeout = 30 * time.Second

type handlers struct {
	deps Deps
}

// Root returns a welcome message.
func (h *handlers) Root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Welcome to %s's chat API", h.deps.Profile.Name),
	})
}

// Health reports service status and the active index variant.
func (h *handlers) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"index":     h.deps.IndexVariant,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Chat handles one conversation turn.
func (h *handlers) Chat(c fiber.Ctx) error {
	var body struct {
		Message string         `json:"message"`
		History []persona.Turn `json:"history"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}

	reply, err := h.deps.Orchestrator.Chat(c.Context(), body.Message, body.History)
	if err != nil {
		h.deps.Logger.Error("chat turn failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "chat failed"})
	}

	return c.JSON(fiber.Map{"response": reply})
}

// RAGQuery retrieves knowledge-base context and generates a grounded answer.
func (h *handlers) RAGQuery(c fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}
	if body.TopK < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "top_k must not be negative"})
	}

	results, err := h.deps.Retriever.Query(c.Context(), body.Query, body.TopK)
	if err != nil {
		h.deps.Logger.Error("retrieval failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "retrieval failed"})
	}

	answer, err := h.deps.Orchestrator.Answer(c.Context(), body.Query, results)
	if err != nil {
		h.deps.Logger.Error("answer generation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "answer generation failed"})
	}

	sources := make([]fiber.Map, len(results))
	for i, r := range results {
		sources[i] = fiber.Map{
			"text":   r.Chunk.Text,
			"source": r.Chunk.Source,
			"score":  r.Score,
		}
	}

	return c.JSON(fiber.Map{"answer": answer, "sources": sources})
}

// RecordDetails accepts contact details and notifies in the background,
// mirroring the record_user_details tool.
func (h *handlers) RecordDetails(c fiber.Ctx) error {
	var body chat.ContactDetails
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email is required"})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		h.deps.Tools.RecordContactDetails(ctx, body)
	}()

	return c.JSON(fiber.Map{"status": "success", "message": "User details recorded"})
}

// RecordQuestion accepts an unanswered question and notifies in the
// background, mirroring the record_unknown_question tool.
func (h *handlers) RecordQuestion(c fiber.Ctx) error {
	var body chat.UnknownQuestion
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		h.deps.Tools.RecordUnknownQuestion(ctx, body)
	}()

	return c.JSON(fiber.Map{"status": "success", "message": "Question recorded"})
}
