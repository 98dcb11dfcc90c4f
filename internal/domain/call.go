package domain

import (
	"time"

	"github.com/google/uuid"
)

// Call is a snapshot of one live circle call. The coordinator hands out
// copies; mutating a snapshot never touches coordinator state.
type Call struct {
	CallID   uuid.UUID `json:"call_id"`
	CircleID uuid.UUID `json:"circle_id"`
	AdminID  uuid.UUID `json:"admin_id"`

	// Participants are all joined non-admin members, in join order.
	Participants []uuid.UUID `json:"participants"`
	// Listeners opted out of the speaker queue; disjoint from SpeakerQueue.
	Listeners []uuid.UUID `json:"listeners"`
	// SpeakerQueue is the FIFO order in which participants are granted
	// the floor. A user appears at most once.
	SpeakerQueue []uuid.UUID `json:"speaker_queue"`
	// Speakers are the users currently unmuted.
	Speakers []uuid.UUID `json:"speakers"`

	StartedAt time.Time `json:"started_at"`
}

// HasParticipant reports whether the user is a non-admin participant of the call
func (c *Call) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OnCall reports whether the user occupies any role on the call, admin included
func (c *Call) OnCall(userID uuid.UUID) bool {
	return c.AdminID == userID || c.HasParticipant(userID)
}

// NextSpeakerResult is the outcome of advancing the speaker queue.
// An empty queue is a normal outcome, signalled by Called == false.
type NextSpeakerResult struct {
	Speaker uuid.UUID `json:"speaker,omitempty"`
	Called  bool      `json:"called"`
}
