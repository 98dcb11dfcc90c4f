package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is one entry in a circle's activity feed
// Stored in Cassandra, partitioned by circle
type Post struct {
	PostID   uuid.UUID `json:"post_id"`
	CircleID uuid.UUID `json:"circle_id"`
	AuthorID uuid.UUID `json:"author_id"`
	Content  string    `json:"content"`
	// Bucket is the month partition component of the Cassandra primary key
	// (see CalculatePostBucket).
	Bucket   int       `json:"-"`
	PostedAt time.Time `json:"posted_at"`
}

// CalculatePostBucket derives the month bucket for a post timestamp.
// Partitioning feed rows by (circle, month) keeps partitions bounded.
func CalculatePostBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// LeaderboardEntry is a per-author post count within one circle
type LeaderboardEntry struct {
	AuthorID  uuid.UUID `json:"author_id"`
	PostCount int       `json:"post_count"`
}
