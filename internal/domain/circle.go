package domain

import (
	"time"

	"github.com/google/uuid"
)

// Circle represents a study circle (the group concept)
// Maps to the CockroachDB circles table
type Circle struct {
	CircleID        uuid.UUID   `json:"circle_id" db:"circle_id"`
	Title           string      `json:"title" db:"title"`
	AdminID         uuid.UUID   `json:"admin_id" db:"admin_id"`
	Capacity        int         `json:"capacity" db:"capacity"`
	DifficultyLevel string      `json:"difficulty_level" db:"difficulty_level"`
	Description     string      `json:"description" db:"description"`
	Members         []uuid.UUID `json:"members"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// IsMember reports whether the user belongs to the circle
func (c *Circle) IsMember(userID uuid.UUID) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// CircleFilter narrows circle listing queries; nil/empty fields are skipped
type CircleFilter struct {
	Title           string
	AdminID         *uuid.UUID
	MemberID        *uuid.UUID
	DifficultyLevel string
}
