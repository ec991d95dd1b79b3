package services

import "captable/internal/logger"

// logNotifier is the default Notifier. It records the message instead of
// delivering it; real delivery channels plug in behind the same interface.
type logNotifier struct{}

// NewLogNotifier creates a Notifier that writes messages to the log.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

// Notify logs the message. Never fails.
func (n *logNotifier) Notify(userID, subject, body string) {
	logger.Get().Infow("notification",
		"user_id", userID,
		"subject", subject,
		"body", body,
	)
}
