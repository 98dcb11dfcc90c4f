package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types used by the reminder worker
const (
	EventTypeCall     = "call"
	EventTypeDeadline = "deadline"
)

// Recurrence describes how often an event repeats, e.g. {"week", 2}
// for every second week. A nil recurrence means a one-off event.
type Recurrence struct {
	Unit     string `json:"unit"` // day, week, month
	Interval int    `json:"interval"`
}

// Event is a scheduled entry on a circle's calendar
// Maps to the CockroachDB events table
type Event struct {
	EventID    uuid.UUID   `json:"event_id" db:"event_id"`
	Name       string      `json:"name" db:"name"`
	CircleID   uuid.UUID   `json:"circle_id" db:"circle_id"`
	CreatorID  uuid.UUID   `json:"creator_id" db:"creator_id"`
	StartTime  time.Time   `json:"start_time" db:"start_time"`
	EndTime    time.Time   `json:"end_time" db:"end_time"`
	Type       string      `json:"type" db:"type"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// Duration returns the length of the event
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// IsUpcoming reports whether the event starts within the given window of now
func (e *Event) IsUpcoming(now time.Time, window time.Duration) bool {
	until := e.StartTime.Sub(now)
	return until >= 0 && until <= window
}
