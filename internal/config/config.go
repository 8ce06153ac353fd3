// Package config holds the application configuration loaded from
// environment variables. Only the cmd entry points call Load; the core
// packages receive explicit parameters.
package config

import (
	"os"
	"strconv"
)

// Config is the full environment-supplied configuration surface.
type Config struct {
	// Server
	Port       string
	MCPEnabled bool

	// OpenAI
	OpenAIKey          string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string

	// Retrieval pipeline
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Knowledge base
	KnowledgeDir  string
	AssistantName string

	// External vector store (empty addr = in-memory index)
	QdrantAddr       string
	QdrantAPIKey     string
	QdrantCollection string

	// Notifications
	PushoverToken string
	PushoverUser  string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:       envOrDefault("PORT", "8000"),
		MCPEnabled: envOrDefaultBool("MCP_ENABLED", false),

		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel:     envOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: envOrDefaultInt("EMBEDDING_DIMENSION", 1536),
		ChatModel:          envOrDefault("CHAT_MODEL", "gpt-4o-mini"),

		ChunkSize:    envOrDefaultInt("CHUNK_SIZE", 500),
		ChunkOverlap: envOrDefaultInt("CHUNK_OVERLAP", 100),
		TopK:         envOrDefaultInt("TOP_K", 3),

		KnowledgeDir:  envOrDefault("KNOWLEDGE_DIR", "me"),
		AssistantName: envOrDefault("ASSISTANT_NAME", "Said Madi"),

		QdrantAddr:       os.Getenv("QDRANT_ADDR"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: envOrDefault("QDRANT_COLLECTION", "knowledge_base"),

		PushoverToken: os.Getenv("PUSHOVER_TOKEN"),
		PushoverUser:  os.Getenv("PUSHOVER_USER"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
