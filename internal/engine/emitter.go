package engine

import (
	"context"

	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/metrics"
	"github.com/artyomka101/appforphone/internal/models"
)

// dispatch raises platform notifications for records that are already
// committed. Failures are logged and counted only.
func (e *Engine) dispatch(ctx context.Context, outbox []models.Notification) {
	for _, n := range outbox {
		if err := e.notifier.Notify(ctx, n.Title, n.Message); err != nil {
			metrics.NotifyFailures.WithLabelValues(string(n.Type)).Inc()
			logger.Warn("Platform notification failed", "type", n.Type, "habit", n.HabitID, "error", err)
		}
	}
}
