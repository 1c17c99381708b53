package storage

import (
	"context"
	"slices"

	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/models"
)

// Observe emits load's current result, then a fresh result after every committed
// change to one of topics. The channel holds the latest value only and is closed
// when ctx is done or the store's change feed closes.
func Observe[T any](ctx context.Context, p Provider, topics []events.Topic, load func(context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	feed, cancel := p.Subscribe()

	push := func() {
		v, err := load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("Observe reload failed", "topics", topics, "error", err)
			}
			return
		}
		// replace any unconsumed value with the newer one
		select {
		case <-out:
		default:
		}
		out <- v
	}

	go func() {
		defer close(out)
		defer cancel()

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-feed:
				if !ok {
					return
				}
				if slices.Contains(topics, evt.Topic) {
					push()
				}
			}
		}
	}()
	return out
}

// ObserveActiveHabits streams the active habits, newest first
func ObserveActiveHabits(ctx context.Context, p Provider) <-chan []models.Habit {
	return Observe(ctx, p, []events.Topic{events.TopicHabits}, func(ctx context.Context) ([]models.Habit, error) {
		return p.GetHabits(ctx, true)
	})
}

// ObserveArchivedHabits streams the archived habits, newest first
func ObserveArchivedHabits(ctx context.Context, p Provider) <-chan []models.Habit {
	return Observe(ctx, p, []events.Topic{events.TopicHabits}, func(ctx context.Context) ([]models.Habit, error) {
		return p.GetHabits(ctx, false)
	})
}

// ObserveNotifications streams all notifications, newest first
func ObserveNotifications(ctx context.Context, p Provider) <-chan []models.Notification {
	return Observe(ctx, p, []events.Topic{events.TopicNotifications}, p.GetNotifications)
}

// ObserveProfile streams the user profile
func ObserveProfile(ctx context.Context, p Provider) <-chan models.Profile {
	return Observe(ctx, p, []events.Topic{events.TopicProfile}, p.GetProfile)
}
