// Package notification dispatches customer-facing notices for ledger events.
// The current implementation writes structured log lines; a mail or SMS
// provider plugs in behind the Notifier interface.
package notification

import (
	"context"

	"go.uber.org/zap"
)

// Notice is a single customer-facing notification
type Notice struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier delivers notices to customers
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// LogNotifier writes notices to the application log. Used in development and
// as the fallback when no delivery provider is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

// Notify logs the notice
func (n *LogNotifier) Notify(ctx context.Context, notice Notice) error {
	n.logger.Info("notification dispatched",
		zap.String("recipient", notice.Recipient),
		zap.String("subject", notice.Subject),
		zap.String("body", notice.Body),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
