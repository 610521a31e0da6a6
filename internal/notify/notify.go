// Package notify delivers user-facing cart notifications.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/shopcart/internal/domain/cart"
)

var _ cart.Notifier = (*Log)(nil)

// Log writes notifications to the service log: validation failures at warn
// level, unexpected failures at error level. It stands in for whatever
// surface ultimately shows messages to the shopper.
type Log struct {
	lg *zap.Logger
}

// NewLog returns a Log notifier.
func NewLog(lg *zap.Logger) *Log {
	return &Log{lg: lg}
}

// Notify logs the notification.
func (l *Log) Notify(_ context.Context, n cart.Notification) {
	fields := []zap.Field{
		zap.String("reason", string(n.Reason)),
		zap.String("message", n.Message),
	}
	if n.Reason == cart.ReasonFailed {
		l.lg.Error("cart notification", fields...)
		return
	}
	l.lg.Warn("cart notification", fields...)
}
