package call

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
	"studycircle-backend/pkg/logger"
	"studycircle-backend/pkg/metrics"
)

// Directory is the call coordination engine the service fronts.
// It owns all call state and enforces every transition invariant.
type Directory interface {
	StartCall(adminID, circleID uuid.UUID) (*domain.Call, error)
	JoinCall(userID, callID uuid.UUID) (*domain.Call, error)
	ListenerSwitch(userID, callID uuid.UUID) (*domain.Call, error)
	NextSpeaker(adminID, callID uuid.UUID) (*domain.NextSpeakerResult, error)
	MuteSwitch(userID, callID uuid.UUID) (*domain.Call, error)
	LeaveCall(userID, callID uuid.UUID) (*domain.Call, error)
	EndCall(adminID, callID uuid.UUID) (*domain.Call, error)
	GetByID(callID uuid.UUID) (*domain.Call, error)
	GetByCircle(circleID uuid.UUID) []*domain.Call
	GetAll() []*domain.Call
	CurrentCallOf(userID uuid.UUID) (*domain.Call, error)
	CircleOf(callID uuid.UUID) (uuid.UUID, error)
}

// PresenceStore mirrors who is on which call into Redis for other services.
// Best effort only; the directory remains the source of truth.
type PresenceStore interface {
	SetOnCall(ctx context.Context, userID, callID uuid.UUID) error
	ClearOnCall(ctx context.Context, userID uuid.UUID) error
	IsOnCall(ctx context.Context, userID uuid.UUID) (bool, error)
	GetOnCallUsers(ctx context.Context) ([]uuid.UUID, error)
	IsDegraded() bool
}

// EventPublisher fans committed call mutations out to live subscribers
type EventPublisher interface {
	PublishCallEvent(ctx context.Context, event *domain.CallEvent) error
}

// Service wraps the call directory with logging, metrics, presence
// mirroring and event publication. State decisions stay in the directory;
// everything here happens after a transition has committed.
type Service struct {
	directory Directory
	presence  PresenceStore
	publisher EventPublisher
	metrics   *metrics.Metrics
}

// NewService creates a new call service. presence, publisher and m may be
// nil; the corresponding side effects are skipped.
func NewService(directory Directory, presence PresenceStore, publisher EventPublisher, m *metrics.Metrics) *Service {
	return &Service{
		directory: directory,
		presence:  presence,
		publisher: publisher,
		metrics:   m,
	}
}

// StartCall creates a call for the circle, owned by adminID
func (s *Service) StartCall(ctx context.Context, adminID, circleID uuid.UUID) (*domain.Call, error) {
	call, err := s.directory.StartCall(adminID, circleID)
	if err != nil {
		s.recordFailure("start_call", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("call started",
		zap.String("call_id", call.CallID.String()),
		zap.String("circle_id", circleID.String()),
		zap.String("admin_id", adminID.String()),
	)
	if s.metrics != nil {
		s.metrics.RecordCallStarted()
	}
	s.mirrorOnCall(ctx, adminID, call.CallID)
	s.publish(ctx, domain.CallEventStarted, call, adminID)

	return call, nil
}

// JoinCall adds userID to the call and the tail of its speaker queue
func (s *Service) JoinCall(ctx context.Context, userID, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.directory.JoinCall(userID, callID)
	if err != nil {
		s.recordFailure("join_call", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("participant joined call",
		zap.String("call_id", callID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("queue_depth", len(call.SpeakerQueue)),
	)
	if s.metrics != nil {
		s.metrics.RecordCallJoin()
		s.metrics.SetSpeakerQueueDepth(callID.String(), len(call.SpeakerQueue))
	}
	s.mirrorOnCall(ctx, userID, callID)
	s.publish(ctx, domain.CallEventJoined, call, userID)

	return call, nil
}

// ListenerSwitch toggles userID between active and listener mode
func (s *Service) ListenerSwitch(ctx context.Context, userID, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.directory.ListenerSwitch(userID, callID)
	if err != nil {
		s.recordFailure("listener_switch", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("listener mode toggled",
		zap.String("call_id", callID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("queue_depth", len(call.SpeakerQueue)),
	)
	if s.metrics != nil {
		s.metrics.SetSpeakerQueueDepth(callID.String(), len(call.SpeakerQueue))
	}
	s.publish(ctx, domain.CallEventListenerSwitch, call, userID)

	return call, nil
}

// NextSpeaker pops the head of the speaker queue. An empty queue is a
// normal result with Called == false.
func (s *Service) NextSpeaker(ctx context.Context, adminID, callID uuid.UUID) (*domain.NextSpeakerResult, error) {
	res, err := s.directory.NextSpeaker(adminID, callID)
	if err != nil {
		s.recordFailure("next_speaker", err)
		return nil, err
	}

	if !res.Called {
		logger.FromContext(ctx).Info("speaker queue empty",
			zap.String("call_id", callID.String()),
		)
		return res, nil
	}

	logger.FromContext(ctx).Info("next speaker called",
		zap.String("call_id", callID.String()),
		zap.String("speaker_id", res.Speaker.String()),
	)
	if s.metrics != nil {
		s.metrics.RecordSpeakerTurn()
	}
	if call, err := s.directory.GetByID(callID); err == nil {
		if s.metrics != nil {
			s.metrics.SetSpeakerQueueDepth(callID.String(), len(call.SpeakerQueue))
		}
		s.publish(ctx, domain.CallEventNextSpeaker, call, res.Speaker)
	}

	return res, nil
}

// MuteSwitch toggles whether userID is on mic. The routing layer restricts
// non-admin callers to toggling themselves by passing their own identity.
func (s *Service) MuteSwitch(ctx context.Context, userID, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.directory.MuteSwitch(userID, callID)
	if err != nil {
		s.recordFailure("mute_switch", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("mute toggled",
		zap.String("call_id", callID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("speakers", len(call.Speakers)),
	)
	s.publish(ctx, domain.CallEventMuteSwitch, call, userID)

	return call, nil
}

// LeaveCall removes userID from every role on the call
func (s *Service) LeaveCall(ctx context.Context, userID, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.directory.LeaveCall(userID, callID)
	if err != nil {
		s.recordFailure("leave_call", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("participant left call",
		zap.String("call_id", callID.String()),
		zap.String("user_id", userID.String()),
	)
	if s.metrics != nil {
		s.metrics.RecordCallLeave()
		s.metrics.SetSpeakerQueueDepth(callID.String(), len(call.SpeakerQueue))
	}
	s.mirrorOffCall(ctx, userID)
	s.publish(ctx, domain.CallEventLeft, call, userID)

	return call, nil
}

// EndCall deletes the call and frees every member. Returns the final
// snapshot so the routing layer can post a summary to the circle feed.
func (s *Service) EndCall(ctx context.Context, adminID, callID uuid.UUID) (*domain.Call, error) {
	final, err := s.directory.EndCall(adminID, callID)
	if err != nil {
		s.recordFailure("end_call", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("call ended",
		zap.String("call_id", callID.String()),
		zap.String("circle_id", final.CircleID.String()),
		zap.Int("participants", len(final.Participants)),
	)
	if s.metrics != nil {
		s.metrics.RecordCallEnded(time.Since(final.StartedAt))
		s.metrics.ClearSpeakerQueueDepth(callID.String())
	}
	s.mirrorOffCall(ctx, final.AdminID)
	for _, p := range final.Participants {
		s.mirrorOffCall(ctx, p)
	}
	s.publish(ctx, domain.CallEventEnded, final, adminID)

	return final, nil
}

// GetCallByID returns a snapshot of the call
func (s *Service) GetCallByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	return s.directory.GetByID(callID)
}

// GetCallsByCircle returns the circle's live calls, most recent first
func (s *Service) GetCallsByCircle(ctx context.Context, circleID uuid.UUID) []*domain.Call {
	return s.directory.GetByCircle(circleID)
}

// GetAllCalls returns every live call
func (s *Service) GetAllCalls(ctx context.Context) []*domain.Call {
	return s.directory.GetAll()
}

// GetCurrentCallOf finds the single call the user is on, if any
func (s *Service) GetCurrentCallOf(ctx context.Context, userID uuid.UUID) (*domain.Call, error) {
	return s.directory.CurrentCallOf(userID)
}

// CircleOfCall returns the owning circle of the call
func (s *Service) CircleOfCall(ctx context.Context, callID uuid.UUID) (uuid.UUID, error) {
	return s.directory.CircleOf(callID)
}

// OnCallUsers reads the presence mirror: every user currently on a call
// across all instances, and whether the mirror may be stale because
// Redis is degraded.
func (s *Service) OnCallUsers(ctx context.Context) ([]uuid.UUID, bool, error) {
	if s.presence == nil {
		return []uuid.UUID{}, true, nil
	}
	users, err := s.presence.GetOnCallUsers(ctx)
	if err != nil {
		return nil, s.presence.IsDegraded(), err
	}
	return users, s.presence.IsDegraded(), nil
}

// IsUserOnCall reads the presence mirror for a single user
func (s *Service) IsUserOnCall(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.presence == nil {
		return false, nil
	}
	return s.presence.IsOnCall(ctx, userID)
}

func (s *Service) recordFailure(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCallOpFailure(operation, string(apperrors.GetAppError(err).Code))
}

func (s *Service) mirrorOnCall(ctx context.Context, userID, callID uuid.UUID) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetOnCall(ctx, userID, callID); err != nil {
		logger.FromContext(ctx).Warn("failed to mirror call presence",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) mirrorOffCall(ctx context.Context, userID uuid.UUID) {
	if s.presence == nil {
		return
	}
	if err := s.presence.ClearOnCall(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("failed to clear call presence",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, call *domain.Call, userID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	event := &domain.CallEvent{
		Type:      eventType,
		CircleID:  call.CircleID,
		CallID:    call.CallID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.PublishCallEvent(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish call event",
			zap.String("type", eventType),
			zap.String("call_id", call.CallID.String()),
			zap.Error(err),
		)
	}
}
