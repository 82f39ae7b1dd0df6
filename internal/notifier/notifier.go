// Package notifier delivers run summaries and drift alerts.
package notifier

import (
	"context"
	"log"
)

// Notifier delivers a message, retrying transient failures.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log. It is used when no bot token is
// configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.Empty() {
		return nil
	}
	log.Printf("[INFO] notification:\n%s", msg.Text())
	return nil
}
