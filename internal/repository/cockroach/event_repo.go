package cockroach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
)

// EventRepository handles calendar event persistence
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create inserts a calendar event
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (
			event_id, name, circle_id, creator_id, start_time, end_time,
			type, recurrence_unit, recurrence_interval, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var recUnit *string
	var recInterval *int
	if event.Recurrence != nil {
		recUnit = &event.Recurrence.Unit
		recInterval = &event.Recurrence.Interval
	}

	_, err := r.pool.Exec(ctx, query,
		event.EventID,
		event.Name,
		event.CircleID,
		event.CreatorID,
		event.StartTime,
		event.EndTime,
		event.Type,
		recUnit,
		recInterval,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	query := `
		SELECT event_id, name, circle_id, creator_id, start_time, end_time,
		       type, recurrence_unit, recurrence_interval, created_at
		FROM events
		WHERE event_id = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.EventNotFoundError(eventID.String())
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// GetByCircle retrieves all events of a circle ordered by start time
func (r *EventRepository) GetByCircle(ctx context.Context, circleID uuid.UUID) ([]*domain.Event, error) {
	query := `
		SELECT event_id, name, circle_id, creator_id, start_time, end_time,
		       type, recurrence_unit, recurrence_interval, created_at
		FROM events
		WHERE circle_id = $1
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get circle events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByCreator retrieves all events created by a user
func (r *EventRepository) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Event, error) {
	query := `
		SELECT event_id, name, circle_id, creator_id, start_time, end_time,
		       type, recurrence_unit, recurrence_interval, created_at
		FROM events
		WHERE creator_id = $1
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetStartingWithin retrieves events of the given type whose start time
// falls inside (now, now+window]. The reminder worker polls this.
func (r *EventRepository) GetStartingWithin(ctx context.Context, eventType string, now time.Time, window time.Duration) ([]*domain.Event, error) {
	query := `
		SELECT event_id, name, circle_id, creator_id, start_time, end_time,
		       type, recurrence_unit, recurrence_interval, created_at
		FROM events
		WHERE type = $1 AND start_time > $2 AND start_time <= $3
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, eventType, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Update rewrites the mutable fields of an event
func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET name = $2, start_time = $3, end_time = $4, type = $5,
		    recurrence_unit = $6, recurrence_interval = $7
		WHERE event_id = $1
	`

	var recUnit *string
	var recInterval *int
	if event.Recurrence != nil {
		recUnit = &event.Recurrence.Unit
		recInterval = &event.Recurrence.Interval
	}

	cmdTag, err := r.pool.Exec(ctx, query,
		event.EventID,
		event.Name,
		event.StartTime,
		event.EndTime,
		event.Type,
		recUnit,
		recInterval,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.EventNotFoundError(event.EventID.String())
	}

	return nil
}

// Delete removes an event
func (r *EventRepository) Delete(ctx context.Context, eventID uuid.UUID) error {
	query := `DELETE FROM events WHERE event_id = $1`

	cmdTag, err := r.pool.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.EventNotFoundError(eventID.String())
	}

	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var recUnit *string
	var recInterval *int

	err := row.Scan(
		&event.EventID,
		&event.Name,
		&event.CircleID,
		&event.CreatorID,
		&event.StartTime,
		&event.EndTime,
		&event.Type,
		&recUnit,
		&recInterval,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if recUnit != nil && recInterval != nil {
		event.Recurrence = &domain.Recurrence{Unit: *recUnit, Interval: *recInterval}
	}

	return event, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}
