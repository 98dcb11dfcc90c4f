package circle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
)

// Repository abstracts circle persistence
type Repository interface {
	Create(ctx context.Context, circle *domain.Circle) error
	GetByID(ctx context.Context, circleID uuid.UUID) (*domain.Circle, error)
	List(ctx context.Context, filter *domain.CircleFilter) ([]*domain.Circle, error)
	Search(ctx context.Context, keywords []string, excludeMember uuid.UUID) ([]*domain.Circle, error)
	AddMember(ctx context.Context, circleID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, circleID, userID uuid.UUID) error
	IsMember(ctx context.Context, circleID, userID uuid.UUID) (bool, error)
	MemberCount(ctx context.Context, circleID uuid.UUID) (int, error)
	UpdateTitle(ctx context.Context, circleID uuid.UUID, title string) error
	Delete(ctx context.Context, circleID uuid.UUID) error
}

// Service implements study circle membership and administration
type Service struct {
	repo Repository
}

// NewService creates a new circle service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCircle creates a circle with the creator as admin and first member
func (s *Service) CreateCircle(ctx context.Context, adminID uuid.UUID, title string, capacity int, difficultyLevel, description string) (*domain.Circle, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.MissingFieldError("title")
	}
	if capacity < 0 {
		return nil, apperrors.InvalidInputError("Capacity must not be negative")
	}

	circle := &domain.Circle{
		CircleID:        uuid.New(),
		Title:           title,
		AdminID:         adminID,
		Capacity:        capacity,
		DifficultyLevel: difficultyLevel,
		Description:     description,
		Members:         []uuid.UUID{adminID},
		CreatedAt:       time.Now(),
	}

	if err := s.repo.Create(ctx, circle); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("circle created",
		zap.String("circle_id", circle.CircleID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("title", title),
	)

	return circle, nil
}

// GetCircleByID retrieves one circle with its member list
func (s *Service) GetCircleByID(ctx context.Context, circleID uuid.UUID) (*domain.Circle, error) {
	return s.repo.GetByID(ctx, circleID)
}

// GetCircleAdmin returns the admin of a circle
func (s *Service) GetCircleAdmin(ctx context.Context, circleID uuid.UUID) (uuid.UUID, error) {
	circle, err := s.repo.GetByID(ctx, circleID)
	if err != nil {
		return uuid.Nil, err
	}
	return circle.AdminID, nil
}

// ListCircles retrieves circles matching the optional filters
func (s *Service) ListCircles(ctx context.Context, filter *domain.CircleFilter) ([]*domain.Circle, error) {
	return s.repo.List(ctx, filter)
}

// SearchCircles finds circles the user has not joined whose title or
// description matches the keywords
func (s *Service) SearchCircles(ctx context.Context, userID uuid.UUID, keywords []string) ([]*domain.Circle, error) {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}

	return s.repo.Search(ctx, cleaned, userID)
}

// JoinCircle enrolls a user, enforcing capacity and uniqueness
func (s *Service) JoinCircle(ctx context.Context, userID, circleID uuid.UUID) (*domain.Circle, error) {
	circle, err := s.repo.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	if circle.IsMember(userID) {
		return nil, apperrors.AlreadyMemberError(userID.String(), circleID.String())
	}

	if circle.Capacity > 0 && len(circle.Members) >= circle.Capacity {
		return nil, apperrors.CircleFullError(circleID.String(), circle.Capacity)
	}

	if err := s.repo.AddMember(ctx, circleID, userID); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user joined circle",
		zap.String("circle_id", circleID.String()),
		zap.String("user_id", userID.String()),
	)

	circle.Members = append(circle.Members, userID)
	return circle, nil
}

// LeaveCircle removes a member from a circle
func (s *Service) LeaveCircle(ctx context.Context, userID, circleID uuid.UUID) (*domain.Circle, error) {
	circle, err := s.repo.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	if !circle.IsMember(userID) {
		return nil, apperrors.NotCircleMemberError(userID.String(), circleID.String())
	}

	if err := s.repo.RemoveMember(ctx, circleID, userID); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user left circle",
		zap.String("circle_id", circleID.String()),
		zap.String("user_id", userID.String()),
	)

	remaining := make([]uuid.UUID, 0, len(circle.Members))
	for _, m := range circle.Members {
		if m != userID {
			remaining = append(remaining, m)
		}
	}
	circle.Members = remaining

	return circle, nil
}

// RenameCircle changes a circle's title. Admin only.
func (s *Service) RenameCircle(ctx context.Context, adminID, circleID uuid.UUID, title string) (*domain.Circle, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.MissingFieldError("title")
	}

	circle, err := s.repo.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	if circle.AdminID != adminID {
		return nil, apperrors.NotCircleAdminError(adminID.String(), circleID.String())
	}

	if err := s.repo.UpdateTitle(ctx, circleID, title); err != nil {
		return nil, err
	}

	circle.Title = title
	return circle, nil
}

// DeleteCircle removes a circle and all memberships. Admin only.
func (s *Service) DeleteCircle(ctx context.Context, adminID, circleID uuid.UUID) error {
	circle, err := s.repo.GetByID(ctx, circleID)
	if err != nil {
		return err
	}

	if circle.AdminID != adminID {
		return apperrors.NotCircleAdminError(adminID.String(), circleID.String())
	}

	if err := s.repo.Delete(ctx, circleID); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("circle deleted",
		zap.String("circle_id", circleID.String()),
		zap.String("admin_id", adminID.String()),
	)

	return nil
}

// AssertAdmin verifies the user administers the circle
func (s *Service) AssertAdmin(ctx context.Context, circleID, userID uuid.UUID) error {
	circle, err := s.repo.GetByID(ctx, circleID)
	if err != nil {
		return err
	}
	if circle.AdminID != userID {
		return apperrors.NotCircleAdminError(userID.String(), circleID.String())
	}
	return nil
}

// AssertMember verifies the user belongs to the circle
func (s *Service) AssertMember(ctx context.Context, circleID, userID uuid.UUID) error {
	ok, err := s.repo.IsMember(ctx, circleID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotCircleMemberError(userID.String(), circleID.String())
	}
	return nil
}
