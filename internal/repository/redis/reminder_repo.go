package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studycircle-backend/internal/database"
)

// ReminderRepository deduplicates reminder posts across worker ticks.
// A SETNX per (event, window) means each reminder fires once even with
// several instances polling the same calendar.
type ReminderRepository struct {
	client *database.RedisClient
}

// NewReminderRepository creates a new ReminderRepository
func NewReminderRepository(client *database.RedisClient) *ReminderRepository {
	return &ReminderRepository{client: client}
}

// ClaimReminder attempts to claim the reminder for an event and window.
// Returns true if this instance won the claim and should post the
// reminder. The key expires after ttl so recurring windows reset.
func (r *ReminderRepository) ClaimReminder(ctx context.Context, eventID uuid.UUID, window string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("reminder:sent:%s:%s", eventID, window)

	claimed, err := r.client.SafeSetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}

	return claimed, nil
}

// IsDegraded returns true if Redis is in degraded mode
func (r *ReminderRepository) IsDegraded() bool {
	return r.client.IsDegraded()
}
