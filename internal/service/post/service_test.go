package post

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
)

func init() {
	logger.InitDefault()
}

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(post *domain.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockRepository) GetByID(circleID uuid.UUID, bucket int, postID uuid.UUID) (*domain.Post, error) {
	args := m.Called(circleID, bucket, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *MockRepository) GetByCircle(circleID uuid.UUID, bucket int, limit int, pageState []byte) ([]*domain.Post, []byte, error) {
	args := m.Called(circleID, bucket, limit, pageState)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*domain.Post), args.Get(1).([]byte), args.Error(2)
}

func (m *MockRepository) GetRecentByCircle(circleID uuid.UUID, limit int, monthsBack int) ([]*domain.Post, error) {
	args := m.Called(circleID, limit, monthsBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Post), args.Error(1)
}

func (m *MockRepository) GetByAuthor(authorID uuid.UUID, limit int) ([]*domain.Post, error) {
	args := m.Called(authorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Post), args.Error(1)
}

func (m *MockRepository) UpdateContent(post *domain.Post, content string) error {
	args := m.Called(post, content)
	return args.Error(0)
}

func (m *MockRepository) Delete(post *domain.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func TestAddPostStampsBucket(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	author := uuid.New()
	circle := uuid.New()
	postedAt := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	repo.On("Save", mock.MatchedBy(func(p *domain.Post) bool {
		return p.Bucket == 202603 && p.AuthorID == author && p.CircleID == circle
	})).Return(nil)

	post, err := svc.AddPost(context.Background(), author, circle, "study notes", postedAt)

	require.NoError(t, err)
	assert.Equal(t, 202603, post.Bucket)
	repo.AssertExpectations(t)
}

func TestAddPostDefaultsToNow(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	repo.On("Save", mock.Anything).Return(nil)

	post, err := svc.AddPost(context.Background(), uuid.New(), uuid.New(), "hello", time.Time{})

	require.NoError(t, err)
	assert.False(t, post.PostedAt.IsZero())
	assert.Equal(t, domain.CalculatePostBucket(post.PostedAt), post.Bucket)
}

func TestAddPostRequiresContent(t *testing.T) {
	svc := NewService(new(MockRepository))

	_, err := svc.AddPost(context.Background(), uuid.New(), uuid.New(), "  ", time.Time{})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingField))
}

func TestEditPostAuthorOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	author := uuid.New()
	post := &domain.Post{
		PostID:   uuid.New(),
		CircleID: uuid.New(),
		AuthorID: author,
		Content:  "v1",
		Bucket:   202608,
	}

	repo.On("GetByID", post.CircleID, post.Bucket, post.PostID).Return(post, nil)

	_, err := svc.EditPost(context.Background(), uuid.New(), post.CircleID, post.Bucket, post.PostID, "v2")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotPostAuthor))
	repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything)

	repo.On("UpdateContent", post, "v2").Return(nil)
	updated, err := svc.EditPost(context.Background(), author, post.CircleID, post.Bucket, post.PostID, "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)
}

func TestDeletePostAuthorOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	author := uuid.New()
	post := &domain.Post{
		PostID:   uuid.New(),
		CircleID: uuid.New(),
		AuthorID: author,
		Bucket:   202608,
	}

	repo.On("GetByID", post.CircleID, post.Bucket, post.PostID).Return(post, nil)

	err := svc.DeletePost(context.Background(), uuid.New(), post.CircleID, post.Bucket, post.PostID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotPostAuthor))

	repo.On("Delete", post).Return(nil)
	err = svc.DeletePost(context.Background(), author, post.CircleID, post.Bucket, post.PostID)
	assert.NoError(t, err)
}

func TestLeaderboardRanksByPostCount(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	circle := uuid.New()
	prolific := uuid.New()
	casual := uuid.New()

	feed := []*domain.Post{
		{AuthorID: prolific}, {AuthorID: prolific}, {AuthorID: prolific},
		{AuthorID: casual},
	}
	repo.On("GetRecentByCircle", circle, mock.AnythingOfType("int"), mock.AnythingOfType("int")).
		Return(feed, nil)

	entries, err := svc.GetLeaderboard(context.Background(), circle)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, prolific, entries[0].AuthorID)
	assert.Equal(t, 3, entries[0].PostCount)
	assert.Equal(t, casual, entries[1].AuthorID)
	assert.Equal(t, 1, entries[1].PostCount)
}

func TestFeedLimitIsClamped(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	circle := uuid.New()

	repo.On("GetRecentByCircle", circle, DefaultFeedLimit, mock.AnythingOfType("int")).
		Return([]*domain.Post{}, nil)

	_, err := svc.GetPostsByCircle(context.Background(), circle, 100000)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
