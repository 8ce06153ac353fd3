// Package notify delivers fire-and-forget notifications about chat events
// (contact details, unanswered questions) to Pushover. Delivery failures are
// logged and never fail the chat turn that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const pushoverURL = "https://api.pushover.net/1/messages.json"

// Notifier is the side-channel the chat tools publish to.
type Notifier interface {
	Push(ctx context.Context, message string) error
}

// Pushover posts messages to the Pushover API.
type Pushover struct {
	client *resty.Client
	token  string
	user   string
	url    string
}

// NewPushover creates a notifier with explicit credentials.
func NewPushover(token, user string) *Pushover {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(1)
	return &Pushover{client: client, token: token, user: user, url: pushoverURL}
}

// Push sends a single message.
func (p *Pushover) Push(ctx context.Context, message string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"token":   p.token,
			"user":    p.user,
			"message": message,
		}).
		Post(p.url)
	if err != nil {
		return fmt.Errorf("pushover request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pushover returned %s", resp.Status())
	}
	return nil
}

// LogOnly is the notifier used when no Pushover credentials are configured:
// events land in the log instead of being dropped silently.
type LogOnly struct {
	Logger *slog.Logger
}

// Push logs the message.
func (l LogOnly) Push(_ context.Context, message string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification (no pushover configured)", "message", message)
	return nil
}
