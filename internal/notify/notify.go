// Package notify delivers messages to athletes and coaches.
package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier sends messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// New returns a Resend-backed notifier when apiKey is set, otherwise one
// that only logs.
func New(apiKey, from string, logger *zap.Logger) Notifier {
	if apiKey == "" {
		return &LogNotifier{logger: logger}
	}
	return &ResendNotifier{client: resend.NewClient(apiKey), from: from, logger: logger}
}

// ResendNotifier sends email through the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func (n *ResendNotifier) Notify(ctx context.Context, msg Message) error {
	sent, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		n.logger.Error("resend send failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return fmt.Errorf("resend send failed: %w", err)
	}
	n.logger.Info("notification sent", zap.String("message_id", sent.Id), zap.String("to", msg.To))
	return nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("notification (not sent)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
