package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// DefaultChatTimeout bounds the webhook POST.
const DefaultChatTimeout = 10 * time.Second

// Slack posts results to an incoming webhook.
type Slack struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

// NewSlack creates the chat destination. An empty webhookURL makes every
// delivery a skip.
func NewSlack(webhookURL string, timeout time.Duration, logger *slog.Logger) *Slack {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (s *Slack) Name() string { return DestinationChat }

// Deliver posts the block message once. Any status other than 200 is a
// failure.
func (s *Slack) Deliver(ctx context.Context, target Target, msg Message) (string, error) {
	if s.webhookURL == "" {
		return "", ErrMissingCredential
	}

	wm := ChatMessage(target, msg)
	s.logger.Debug("posting chat webhook", "pr", target.PRNumber, "mode", msg.Mode)
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, wm); err != nil {
		return "", fmt.Errorf("posting chat webhook: %w", err)
	}
	n := 0
	if wm.Blocks != nil {
		n = len(wm.Blocks.BlockSet)
	}
	return fmt.Sprintf("chat message posted (%d blocks)", n), nil
}
