package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client shared by embedding and chat calls.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client from an explicit API key. Configuration
// is passed in by the caller; this package never reads the environment.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages
// (e.g. the chat orchestrator).
func (c *Client) Client() *openai.Client {
	return c.client
}
