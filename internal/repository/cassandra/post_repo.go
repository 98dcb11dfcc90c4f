package cassandra

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
)

// PostRepository handles circle feed storage in Cassandra.
// Posts are bucketed by month inside each circle partition, with a
// denormalized posts_by_author table for author timelines.
type PostRepository struct {
	session *gocql.Session
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(session *gocql.Session) *PostRepository {
	return &PostRepository{session: session}
}

// Save inserts a post into both the circle feed and the author timeline
func (r *PostRepository) Save(post *domain.Post) error {
	if post.Bucket == 0 {
		post.Bucket = domain.CalculatePostBucket(post.PostedAt)
	}

	if post.PostID == uuid.Nil {
		post.PostID = uuid.New()
	}

	feedQuery := `
		INSERT INTO posts (
			circle_id, bucket, post_id, author_id, content, posted_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(feedQuery,
		post.CircleID,
		post.Bucket,
		post.PostID,
		post.AuthorID,
		post.Content,
		post.PostedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}

	authorQuery := `
		INSERT INTO posts_by_author (
			author_id, posted_at, post_id, circle_id, bucket, content
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	err = r.session.Query(authorQuery,
		post.AuthorID,
		post.PostedAt,
		post.PostID,
		post.CircleID,
		post.Bucket,
		post.Content,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to index post by author: %w", err)
	}

	return nil
}

// GetByCircle retrieves one month bucket of a circle's feed, newest
// first, with cursor-based pagination
func (r *PostRepository) GetByCircle(circleID uuid.UUID, bucket int, limit int, pageState []byte) ([]*domain.Post, []byte, error) {
	query := `
		SELECT circle_id, bucket, post_id, author_id, content, posted_at
		FROM posts
		WHERE circle_id = ? AND bucket = ?
		ORDER BY posted_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, circleID, bucket, limit).PageState(pageState).Iter()

	var posts []*domain.Post
	for {
		post := &domain.Post{}
		if !iter.Scan(
			&post.CircleID,
			&post.Bucket,
			&post.PostID,
			&post.AuthorID,
			&post.Content,
			&post.PostedAt,
		) {
			break
		}
		posts = append(posts, post)
	}

	nextPageState := iter.PageState()

	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch posts: %w", err)
	}

	return posts, nextPageState, nil
}

// GetRecentByCircle walks buckets backwards from the current month
// until limit posts are collected or monthsBack is exhausted
func (r *PostRepository) GetRecentByCircle(circleID uuid.UUID, limit int, monthsBack int) ([]*domain.Post, error) {
	var all []*domain.Post

	current := time.Now()
	for i := 0; i <= monthsBack; i++ {
		bucket := domain.CalculatePostBucket(current.AddDate(0, -i, 0))
		posts, _, err := r.GetByCircle(circleID, bucket, limit-len(all), nil)
		if err != nil {
			return nil, err
		}
		all = append(all, posts...)

		if len(all) >= limit {
			break
		}
	}

	return all, nil
}

// GetByAuthor retrieves a user's posts across all circles, newest first
func (r *PostRepository) GetByAuthor(authorID uuid.UUID, limit int) ([]*domain.Post, error) {
	query := `
		SELECT author_id, posted_at, post_id, circle_id, bucket, content
		FROM posts_by_author
		WHERE author_id = ?
		ORDER BY posted_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, authorID, limit).Iter()

	var posts []*domain.Post
	for {
		post := &domain.Post{}
		if !iter.Scan(
			&post.AuthorID,
			&post.PostedAt,
			&post.PostID,
			&post.CircleID,
			&post.Bucket,
			&post.Content,
		) {
			break
		}
		posts = append(posts, post)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch author posts: %w", err)
	}

	return posts, nil
}

// GetByID retrieves a specific post from the circle feed
func (r *PostRepository) GetByID(circleID uuid.UUID, bucket int, postID uuid.UUID) (*domain.Post, error) {
	query := `
		SELECT circle_id, bucket, post_id, author_id, content, posted_at
		FROM posts
		WHERE circle_id = ? AND bucket = ? AND post_id = ?
		LIMIT 1
	`

	post := &domain.Post{}
	err := r.session.Query(query, circleID, bucket, postID).Scan(
		&post.CircleID,
		&post.Bucket,
		&post.PostID,
		&post.AuthorID,
		&post.Content,
		&post.PostedAt,
	)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, apperrors.PostNotFoundError(postID.String())
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// UpdateContent rewrites a post's content in both tables
func (r *PostRepository) UpdateContent(post *domain.Post, content string) error {
	feedQuery := `
		UPDATE posts SET content = ?
		WHERE circle_id = ? AND bucket = ? AND post_id = ?
	`

	err := r.session.Query(feedQuery, content, post.CircleID, post.Bucket, post.PostID).Exec()
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	authorQuery := `
		UPDATE posts_by_author SET content = ?
		WHERE author_id = ? AND posted_at = ? AND post_id = ?
	`

	err = r.session.Query(authorQuery, content, post.AuthorID, post.PostedAt, post.PostID).Exec()
	if err != nil {
		return fmt.Errorf("failed to update author index: %w", err)
	}

	return nil
}

// Delete removes a post from both tables
func (r *PostRepository) Delete(post *domain.Post) error {
	feedQuery := `DELETE FROM posts WHERE circle_id = ? AND bucket = ? AND post_id = ?`

	err := r.session.Query(feedQuery, post.CircleID, post.Bucket, post.PostID).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	authorQuery := `DELETE FROM posts_by_author WHERE author_id = ? AND posted_at = ? AND post_id = ?`

	err = r.session.Query(authorQuery, post.AuthorID, post.PostedAt, post.PostID).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete author index: %w", err)
	}

	return nil
}

// CountByCircle counts posts in one month bucket of a circle
func (r *PostRepository) CountByCircle(circleID uuid.UUID, bucket int) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE circle_id = ? AND bucket = ?`

	var count int
	err := r.session.Query(query, circleID, bucket).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	return count, nil
}
