package post

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
)

const (
	// DefaultFeedLimit caps how many posts a single feed read returns
	DefaultFeedLimit = 100

	// leaderboardMonths is how far back the leaderboard counts posts
	leaderboardMonths = 11
)

// Repository abstracts post storage
type Repository interface {
	Save(post *domain.Post) error
	GetByID(circleID uuid.UUID, bucket int, postID uuid.UUID) (*domain.Post, error)
	GetByCircle(circleID uuid.UUID, bucket int, limit int, pageState []byte) ([]*domain.Post, []byte, error)
	GetRecentByCircle(circleID uuid.UUID, limit int, monthsBack int) ([]*domain.Post, error)
	GetByAuthor(authorID uuid.UUID, limit int) ([]*domain.Post, error)
	UpdateContent(post *domain.Post, content string) error
	Delete(post *domain.Post) error
}

// Service implements the circle feed
type Service struct {
	repo Repository
}

// NewService creates a new post service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddPost publishes a post to a circle's feed. A zero postedAt means
// now; a future value schedules the post's timeline position.
func (s *Service) AddPost(ctx context.Context, authorID, circleID uuid.UUID, content string, postedAt time.Time) (*domain.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.MissingFieldError("content")
	}

	if postedAt.IsZero() {
		postedAt = time.Now()
	}

	post := &domain.Post{
		PostID:   uuid.New(),
		CircleID: circleID,
		AuthorID: authorID,
		Content:  content,
		Bucket:   domain.CalculatePostBucket(postedAt),
		PostedAt: postedAt,
	}

	if err := s.repo.Save(post); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("post published",
		zap.String("post_id", post.PostID.String()),
		zap.String("circle_id", circleID.String()),
		zap.String("author_id", authorID.String()),
	)

	return post, nil
}

// GetPostsByCircle retrieves a circle's recent feed, newest first
func (s *Service) GetPostsByCircle(ctx context.Context, circleID uuid.UUID, limit int) ([]*domain.Post, error) {
	if limit <= 0 || limit > DefaultFeedLimit {
		limit = DefaultFeedLimit
	}
	return s.repo.GetRecentByCircle(circleID, limit, leaderboardMonths)
}

// GetPostsByAuthor retrieves a user's posts across all circles
func (s *Service) GetPostsByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]*domain.Post, error) {
	if limit <= 0 || limit > DefaultFeedLimit {
		limit = DefaultFeedLimit
	}
	return s.repo.GetByAuthor(authorID, limit)
}

// GetPost retrieves one post
func (s *Service) GetPost(ctx context.Context, circleID uuid.UUID, bucket int, postID uuid.UUID) (*domain.Post, error) {
	return s.repo.GetByID(circleID, bucket, postID)
}

// EditPost rewrites a post's content. Author only.
func (s *Service) EditPost(ctx context.Context, authorID, circleID uuid.UUID, bucket int, postID uuid.UUID, content string) (*domain.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.MissingFieldError("content")
	}

	post, err := s.repo.GetByID(circleID, bucket, postID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		return nil, apperrors.NotPostAuthorError(authorID.String(), postID.String())
	}

	if err := s.repo.UpdateContent(post, content); err != nil {
		return nil, err
	}

	post.Content = content
	return post, nil
}

// DeletePost removes a post. Author only.
func (s *Service) DeletePost(ctx context.Context, authorID, circleID uuid.UUID, bucket int, postID uuid.UUID) error {
	post, err := s.repo.GetByID(circleID, bucket, postID)
	if err != nil {
		return err
	}

	if post.AuthorID != authorID {
		return apperrors.NotPostAuthorError(authorID.String(), postID.String())
	}

	if err := s.repo.Delete(post); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("post deleted",
		zap.String("post_id", postID.String()),
		zap.String("author_id", authorID.String()),
	)

	return nil
}

// GetLeaderboard ranks circle members by post count over the last year,
// most active first. Ties break on author ID for a stable order.
func (s *Service) GetLeaderboard(ctx context.Context, circleID uuid.UUID) ([]*domain.LeaderboardEntry, error) {
	posts, err := s.repo.GetRecentByCircle(circleID, DefaultFeedLimit*10, leaderboardMonths)
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int)
	for _, p := range posts {
		counts[p.AuthorID]++
	}

	entries := make([]*domain.LeaderboardEntry, 0, len(counts))
	for author, n := range counts {
		entries = append(entries, &domain.LeaderboardEntry{AuthorID: author, PostCount: n})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PostCount != entries[j].PostCount {
			return entries[i].PostCount > entries[j].PostCount
		}
		return entries[i].AuthorID.String() < entries[j].AuthorID.String()
	})

	return entries, nil
}
