package domain

import (
	"time"

	"github.com/google/uuid"
)

// Call event types broadcast to circle subscribers
const (
	CallEventStarted        = "call_started"
	CallEventJoined         = "participant_joined"
	CallEventLeft           = "participant_left"
	CallEventListenerSwitch = "listener_switched"
	CallEventNextSpeaker    = "next_speaker"
	CallEventMuteSwitch     = "mute_switched"
	CallEventEnded          = "call_ended"
)

// CallEvent describes one committed call mutation. Events are published
// after the transition commits; subscribers never see a state that the
// coordinator did not reach.
type CallEvent struct {
	Type      string    `json:"type"`
	CircleID  uuid.UUID `json:"circle_id"`
	CallID    uuid.UUID `json:"call_id"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
