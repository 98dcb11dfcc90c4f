package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycircle-backend/internal/domain"
	"studycircle-backend/pkg/logger"
)

// Calendar is the slice of the calendar service the worker needs
type Calendar interface {
	GetUpcoming(ctx context.Context, eventType string, window time.Duration) ([]*domain.Event, error)
}

// CircleDirectory resolves a circle's admin
type CircleDirectory interface {
	GetCircleAdmin(ctx context.Context, circleID uuid.UUID) (uuid.UUID, error)
}

// FeedPublisher posts into circle feeds
type FeedPublisher interface {
	AddPost(ctx context.Context, authorID, circleID uuid.UUID, content string, postedAt time.Time) (*domain.Post, error)
}

// ReminderClaims deduplicates reminders across instances
type ReminderClaims interface {
	ClaimReminder(ctx context.Context, eventID uuid.UUID, window string, ttl time.Duration) (bool, error)
}

// ReminderConfig drives the two polling loops
type ReminderConfig struct {
	CallInterval     time.Duration
	CallWindow       time.Duration
	DeadlineInterval time.Duration
	DeadlineWindow   time.Duration
}

// DefaultReminderConfig checks calls every minute within a 10 minute
// window and deadlines every hour within 24 hours
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		CallInterval:     time.Minute,
		CallWindow:       10 * time.Minute,
		DeadlineInterval: time.Hour,
		DeadlineWindow:   24 * time.Hour,
	}
}

// ReminderWorker posts reminders into circle feeds ahead of scheduled
// events. Each reminder is claimed in Redis first so only one instance
// posts it.
type ReminderWorker struct {
	calendar Calendar
	circles  CircleDirectory
	feed     FeedPublisher
	claims   ReminderClaims
	cfg      ReminderConfig
}

// NewReminderWorker creates a reminder worker. A nil claims store
// disables dedupe, which is only acceptable for single instance runs.
func NewReminderWorker(calendar Calendar, circles CircleDirectory, feed FeedPublisher, claims ReminderClaims, cfg ReminderConfig) *ReminderWorker {
	return &ReminderWorker{
		calendar: calendar,
		circles:  circles,
		feed:     feed,
		claims:   claims,
		cfg:      cfg,
	}
}

// Start launches both polling loops. They stop when ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	go w.loop(ctx, domain.EventTypeCall, w.cfg.CallInterval, w.cfg.CallWindow)
	go w.loop(ctx, domain.EventTypeDeadline, w.cfg.DeadlineInterval, w.cfg.DeadlineWindow)
}

func (w *ReminderWorker) loop(ctx context.Context, eventType string, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RemindUpcoming(ctx, eventType, window)
		}
	}
}

// RemindUpcoming posts one reminder per event starting within the
// window, authored by the circle admin
func (w *ReminderWorker) RemindUpcoming(ctx context.Context, eventType string, window time.Duration) {
	events, err := w.calendar.GetUpcoming(ctx, eventType, window)
	if err != nil {
		logger.Log.Warn("failed to fetch upcoming events",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}

	for _, event := range events {
		if w.claims != nil {
			// Claim key covers the whole window so each reminder
			// fires once even with multiple instances polling
			claimed, err := w.claims.ClaimReminder(ctx, event.EventID, eventType, window)
			if err != nil {
				logger.Log.Warn("reminder claim failed",
					zap.String("event_id", event.EventID.String()),
					zap.Error(err),
				)
				continue
			}
			if !claimed {
				continue
			}
		}

		admin, err := w.circles.GetCircleAdmin(ctx, event.CircleID)
		if err != nil {
			logger.Log.Warn("failed to resolve circle admin for reminder",
				zap.String("circle_id", event.CircleID.String()),
				zap.Error(err),
			)
			continue
		}

		content := fmt.Sprintf("Upcoming event %s at %s", event.Name, event.StartTime.Format(time.RFC1123))
		if _, err := w.feed.AddPost(ctx, admin, event.CircleID, content, time.Time{}); err != nil {
			logger.Log.Warn("failed to post reminder",
				zap.String("event_id", event.EventID.String()),
				zap.Error(err),
			)
			continue
		}

		logger.Log.Info("reminder posted",
			zap.String("event_id", event.EventID.String()),
			zap.String("circle_id", event.CircleID.String()),
			zap.String("type", eventType),
		)
	}
}
