package sse

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/meshgraph/internal/events"
)

// Source is drained by the pump. It must be the queue's only consumer.
type Source interface {
	PollEvents() []events.Event
}

// Pump drains src every interval and publishes what it finds until ctx is
// cancelled. A final drain runs before returning.
func Pump(ctx context.Context, src Source, b *Broker, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("sse: pump started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			b.PublishGraphEvents(src.PollEvents())
			logger.Info("sse: pump stopped")
			return nil
		case <-ticker.C:
			if evs := src.PollEvents(); len(evs) > 0 {
				logger.Debug("sse: publishing", slog.Int("events", len(evs)))
				b.PublishGraphEvents(evs)
			}
		}
	}
}
