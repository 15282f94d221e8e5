// Package events holds publishers for commit notifications.
package events

import (
	"context"

	"github.com/sheikh-saqib/double-entry-balancer/internal/logger"
)

// NopPublisher logs events instead of sending them anywhere.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, event any) error {
	logger.Debug("event not published, no broker configured", logger.Fields{
		"topic": topic,
		"event": logger.SanitizePayload(event),
	})
	return nil
}
