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

// CircleRepository handles study circle persistence
type CircleRepository struct {
	pool *pgxpool.Pool
}

// NewCircleRepository creates a new circle repository
func NewCircleRepository(pool *pgxpool.Pool) *CircleRepository {
	return &CircleRepository{pool: pool}
}

// Create inserts a circle and enrolls the admin as its first member.
// Both writes commit in one transaction.
func (r *CircleRepository) Create(ctx context.Context, circle *domain.Circle) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	circleQuery := `
		INSERT INTO circles (
			circle_id, title, admin_id, capacity, difficulty_level, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, circleQuery,
		circle.CircleID,
		circle.Title,
		circle.AdminID,
		circle.Capacity,
		circle.DifficultyLevel,
		circle.Description,
		circle.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create circle: %w", err)
	}

	memberQuery := `
		INSERT INTO circle_members (circle_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`

	_, err = tx.Exec(ctx, memberQuery, circle.CircleID, circle.AdminID, circle.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enroll admin: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a circle by ID, members included
func (r *CircleRepository) GetByID(ctx context.Context, circleID uuid.UUID) (*domain.Circle, error) {
	query := `
		SELECT circle_id, title, admin_id, capacity, difficulty_level, description, created_at
		FROM circles
		WHERE circle_id = $1
	`

	circle := &domain.Circle{}
	err := r.pool.QueryRow(ctx, query, circleID).Scan(
		&circle.CircleID,
		&circle.Title,
		&circle.AdminID,
		&circle.Capacity,
		&circle.DifficultyLevel,
		&circle.Description,
		&circle.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.CircleNotFoundError(circleID.String())
		}
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}

	circle.Members, err = r.GetMembers(ctx, circleID)
	if err != nil {
		return nil, err
	}

	return circle, nil
}

// List retrieves circles matching the filter, newest first. Nil filter
// fields are ignored.
func (r *CircleRepository) List(ctx context.Context, filter *domain.CircleFilter) ([]*domain.Circle, error) {
	query := `
		SELECT DISTINCT c.circle_id, c.title, c.admin_id, c.capacity,
		       c.difficulty_level, c.description, c.created_at
		FROM circles c
		LEFT JOIN circle_members cm ON c.circle_id = cm.circle_id
		WHERE ($1::TEXT IS NULL OR c.title = $1)
		  AND ($2::UUID IS NULL OR c.admin_id = $2)
		  AND ($3::UUID IS NULL OR cm.user_id = $3)
		  AND ($4::TEXT IS NULL OR c.difficulty_level = $4)
		ORDER BY c.created_at DESC
	`

	var title, difficulty *string
	var adminID, memberID *uuid.UUID
	if filter != nil {
		if filter.Title != "" {
			title = &filter.Title
		}
		if filter.DifficultyLevel != "" {
			difficulty = &filter.DifficultyLevel
		}
		adminID = filter.AdminID
		memberID = filter.MemberID
	}

	rows, err := r.pool.Query(ctx, query, title, adminID, memberID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	defer rows.Close()

	return r.scanCircles(ctx, rows)
}

// Search retrieves circles whose title or description matches every
// keyword, excluding circles the user already belongs to
func (r *CircleRepository) Search(ctx context.Context, keywords []string, excludeMember uuid.UUID) ([]*domain.Circle, error) {
	query := `
		SELECT circle_id, title, admin_id, capacity, difficulty_level, description, created_at
		FROM circles c
		WHERE NOT EXISTS (
			SELECT 1 FROM circle_members cm
			WHERE cm.circle_id = c.circle_id AND cm.user_id = $1
		)
		AND (c.title || ' ' || c.description) ILIKE ALL (
			SELECT '%' || kw || '%' FROM unnest($2::TEXT[]) AS kw
		)
		ORDER BY c.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, excludeMember, keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to search circles: %w", err)
	}
	defer rows.Close()

	return r.scanCircles(ctx, rows)
}

// GetMembers retrieves all member IDs of a circle in join order
func (r *CircleRepository) GetMembers(ctx context.Context, circleID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM circle_members WHERE circle_id = $1 ORDER BY joined_at ASC
	`

	rows, err := r.pool.Query(ctx, query, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, userID)
	}

	return members, nil
}

// AddMember enrolls a user into a circle
func (r *CircleRepository) AddMember(ctx context.Context, circleID, userID uuid.UUID) error {
	query := `
		INSERT INTO circle_members (circle_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, circleID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a circle
func (r *CircleRepository) RemoveMember(ctx context.Context, circleID, userID uuid.UUID) error {
	query := `DELETE FROM circle_members WHERE circle_id = $1 AND user_id = $2`

	cmdTag, err := r.pool.Exec(ctx, query, circleID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.NotCircleMemberError(userID.String(), circleID.String())
	}

	return nil
}

// IsMember checks if a user belongs to a circle
func (r *CircleRepository) IsMember(ctx context.Context, circleID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM circle_members WHERE circle_id = $1 AND user_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, circleID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// MemberCount returns the number of members in a circle
func (r *CircleRepository) MemberCount(ctx context.Context, circleID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM circle_members WHERE circle_id = $1`

	var count int
	err := r.pool.QueryRow(ctx, query, circleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	return count, nil
}

// UpdateTitle renames a circle
func (r *CircleRepository) UpdateTitle(ctx context.Context, circleID uuid.UUID, title string) error {
	query := `UPDATE circles SET title = $2 WHERE circle_id = $1`

	cmdTag, err := r.pool.Exec(ctx, query, circleID, title)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.CircleNotFoundError(circleID.String())
	}

	return nil
}

// Delete removes a circle and its memberships
func (r *CircleRepository) Delete(ctx context.Context, circleID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM circle_members WHERE circle_id = $1`, circleID)
	if err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM circles WHERE circle_id = $1`, circleID)
	if err != nil {
		return fmt.Errorf("failed to delete circle: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.CircleNotFoundError(circleID.String())
	}

	return tx.Commit(ctx)
}

func (r *CircleRepository) scanCircles(ctx context.Context, rows pgx.Rows) ([]*domain.Circle, error) {
	var circles []*domain.Circle
	for rows.Next() {
		circle := &domain.Circle{}
		err := rows.Scan(
			&circle.CircleID,
			&circle.Title,
			&circle.AdminID,
			&circle.Capacity,
			&circle.DifficultyLevel,
			&circle.Description,
			&circle.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan circle: %w", err)
		}
		circles = append(circles, circle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read circles: %w", err)
	}

	for _, circle := range circles {
		members, err := r.GetMembers(ctx, circle.CircleID)
		if err != nil {
			return nil, err
		}
		circle.Members = members
	}

	return circles, nil
}
