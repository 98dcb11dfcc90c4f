package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studycircle-backend/internal/database"
)

// PresenceRepository mirrors on-call status into Redis so other
// services can answer "is this user busy" without hitting the
// coordinator. The coordinator's directory stays the source of truth.
type PresenceRepository struct {
	client *database.RedisClient
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(client *database.RedisClient) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// SetOnCall marks a user as being on the given call
func (r *PresenceRepository) SetOnCall(ctx context.Context, userID, callID uuid.UUID) error {
	key := fmt.Sprintf("call:presence:%s", userID)

	err := r.client.SafeSet(ctx, key, callID.String(), 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set call presence: %w", err)
	}

	err = r.client.SafeSAdd(ctx, "call:oncall", userID.String()).Err()
	if err != nil {
		return fmt.Errorf("failed to add to oncall set: %w", err)
	}

	return nil
}

// ClearOnCall removes a user's on-call marker
func (r *PresenceRepository) ClearOnCall(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("call:presence:%s", userID)

	err := r.client.SafeDel(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to clear call presence: %w", err)
	}

	err = r.client.SafeSRem(ctx, "call:oncall", userID.String()).Err()
	if err != nil {
		return fmt.Errorf("failed to remove from oncall set: %w", err)
	}

	return nil
}

// IsOnCall checks whether a user has an on-call marker
func (r *PresenceRepository) IsOnCall(ctx context.Context, userID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("call:presence:%s", userID)

	exists, err := r.client.SafeExists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check call presence: %w", err)
	}

	return exists > 0, nil
}

// GetOnCallUsers retrieves all users currently marked on a call
func (r *PresenceRepository) GetOnCallUsers(ctx context.Context) ([]uuid.UUID, error) {
	idStrs, err := r.client.SafeSMembers(ctx, "call:oncall").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get oncall users: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(idStrs))
	for _, idStr := range idStrs {
		userID, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, userID)
	}

	return userIDs, nil
}

// IsDegraded returns true if Redis is in degraded mode
func (r *PresenceRepository) IsDegraded() bool {
	return r.client.IsDegraded()
}
