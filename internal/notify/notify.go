// Package notify hands committed state changes to the outbound dispatcher.
package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, message []byte) error
}

// RabbitNotifier publishes every notification as JSON under
// "<prefix>.<kind>", e.g. notifications.event.created. Failures are logged
// and never reach the caller.
type RabbitNotifier struct {
	pub    Publisher
	prefix string
}

func NewRabbitNotifier(pub Publisher, prefix string) *RabbitNotifier {
	return &RabbitNotifier{
		pub:    pub,
		prefix: prefix,
	}
}

func (n *RabbitNotifier) Notify(ctx context.Context, notification domain.Notification) {
	body, err := json.Marshal(notification)
	if err != nil {
		zap.L().Warn("failed to encode notification", zap.String("kind", string(notification.Kind)), zap.Error(err))
		return
	}

	if err = n.pub.Publish(ctx, n.RoutingKey(notification.Kind), body); err != nil {
		zap.L().Warn("failed to publish notification",
			zap.String("kind", string(notification.Kind)),
			zap.String("event_id", notification.EventID.String()),
			zap.Error(err),
		)
	}
}

func (n *RabbitNotifier) RoutingKey(kind domain.NotificationKind) string {
	if n.prefix == "" {
		return string(kind)
	}
	return n.prefix + "." + string(kind)
}

// Nop drops notifications; used when no broker is configured.
type Nop struct{}

func (Nop) Notify(context.Context, domain.Notification) {}
