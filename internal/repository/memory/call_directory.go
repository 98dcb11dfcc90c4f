package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studycircle-backend/internal/domain"
	apperrors "studycircle-backend/pkg/errors"
)

// CallDirectory is the in-memory store of live circle calls and the only
// writer of call state. Every operation runs a full read-validate-write
// transition under one lock, so call snapshots never expose a half-applied
// mutation and the "one call per user" rule holds across the whole
// directory, not just the call being touched.
type CallDirectory struct {
	mu sync.RWMutex

	calls map[uuid.UUID]*callRecord

	// byUser maps any admin or participant to the single call they are on.
	// Maintained in the same critical section as every call mutation, which
	// closes the lookup-then-act race between concurrent start/join requests.
	byUser map[uuid.UUID]uuid.UUID

	// byCircle indexes live calls per owning circle.
	byCircle map[uuid.UUID]map[uuid.UUID]struct{}
}

// callRecord is the mutable state of one call. Only ever touched while
// holding the directory lock; callers receive detached snapshots.
type callRecord struct {
	id           uuid.UUID
	circle       uuid.UUID
	admin        uuid.UUID
	participants []uuid.UUID
	listeners    []uuid.UUID
	speakerQueue []uuid.UUID
	speakers     []uuid.UUID
	startedAt    time.Time
}

// NewCallDirectory creates an empty call directory
func NewCallDirectory() *CallDirectory {
	return &CallDirectory{
		calls:    make(map[uuid.UUID]*callRecord),
		byUser:   make(map[uuid.UUID]uuid.UUID),
		byCircle: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// StartCall creates a new call for the circle, owned by admin. The admin
// holds the admin role exclusively: they are never listed as participant,
// listener or queued speaker of their own call.
func (d *CallDirectory) StartCall(adminID, circleID uuid.UUID) (*domain.Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if busy, ok := d.byUser[adminID]; ok {
		return nil, apperrors.AlreadyOnCallError(adminID.String(), busy.String())
	}

	rec := &callRecord{
		id:        uuid.New(),
		circle:    circleID,
		admin:     adminID,
		startedAt: time.Now().UTC(),
	}

	d.calls[rec.id] = rec
	d.byUser[adminID] = rec.id
	if d.byCircle[circleID] == nil {
		d.byCircle[circleID] = make(map[uuid.UUID]struct{})
	}
	d.byCircle[circleID][rec.id] = struct{}{}

	return rec.snapshot(), nil
}

// JoinCall adds the user as a participant and appends them to the tail of
// the speaker queue. Rejected when the user is the call's admin or already
// on any call, this one included.
func (d *CallDirectory) JoinCall(userID, callID uuid.UUID) (*domain.Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	if rec.admin == userID {
		return nil, apperrors.CallAdminForbiddenError(userID.String(), callID.String())
	}
	if busy, ok := d.byUser[userID]; ok {
		return nil, apperrors.AlreadyOnCallError(userID.String(), busy.String())
	}

	rec.participants = append(rec.participants, userID)
	rec.speakerQueue = append(rec.speakerQueue, userID)
	d.byUser[userID] = callID

	return rec.snapshot(), nil
}

// ListenerSwitch toggles the participant between active and listener mode.
// A listener switching back re-enters the speaker queue at the tail; their
// original position is not restored.
func (d *CallDirectory) ListenerSwitch(userID, callID uuid.UUID) (*domain.Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	if !containsID(rec.participants, userID) {
		return nil, apperrors.NotOnCallError(userID.String(), callID.String())
	}

	if containsID(rec.listeners, userID) {
		rec.listeners = removeID(rec.listeners, userID)
		if !containsID(rec.speakerQueue, userID) {
			rec.speakerQueue = append(rec.speakerQueue, userID)
		}
	} else {
		rec.listeners = append(rec.listeners, userID)
		rec.speakerQueue = removeID(rec.speakerQueue, userID)
	}

	return rec.snapshot(), nil
}

// NextSpeaker pops the head of the speaker queue and returns it. An empty
// queue yields Called == false without mutating anything; that is a normal
// outcome, not an error. The popped user is not unmuted automatically.
// Only the call's admin may advance the queue.
func (d *CallDirectory) NextSpeaker(adminID, callID uuid.UUID) (*domain.NextSpeakerResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	if rec.admin != adminID {
		return nil, apperrors.NotCallAdminError(adminID.String(), callID.String())
	}

	if len(rec.speakerQueue) == 0 {
		return &domain.NextSpeakerResult{Called: false}, nil
	}

	next := rec.speakerQueue[0]
	rec.speakerQueue = rec.speakerQueue[1:]

	return &domain.NextSpeakerResult{Speaker: next, Called: true}, nil
}

// MuteSwitch toggles whether the user is currently on mic. The call's admin
// may toggle themself like anyone else; every other caller must be a
// participant of the call. No check ties unmuting to having been granted
// the floor.
func (d *CallDirectory) MuteSwitch(userID, callID uuid.UUID) (*domain.Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	if rec.admin != userID && !containsID(rec.participants, userID) {
		return nil, apperrors.NotOnCallError(userID.String(), callID.String())
	}

	if containsID(rec.speakers, userID) {
		rec.speakers = removeID(rec.speakers, userID)
	} else {
		rec.speakers = append(rec.speakers, userID)
	}

	return rec.snapshot(), nil
}

// LeaveCall removes the participant from every role on the call,
// the speakers set included, and frees them to join another call.
// The admin cannot leave; they end the call instead.
func (d *CallDirectory) LeaveCall(userID, callID uuid.UUID) (*domain.Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	if rec.admin == userID {
		return nil, apperrors.CallAdminForbiddenError(userID.String(), callID.String())
	}
	if !containsID(rec.participants, userID) {
		return nil, apperrors.NotOnCallError(userID.String(), callID.String())
	}

	rec.participants = removeID(rec.participants, userID)
	rec.listeners = removeID(rec.listeners, userID)
	rec.speakerQueue = removeID(rec.speakerQueue, userID)
	rec.speakers = removeID(rec.speakers, userID)
	delete(d.byUser, userID)

	return rec.snapshot(), nil
}

// EndCall deletes the call entirely and releases all of its members.
// Only the admin may end the call. Returns the final snapshot so callers
// can report on the finished call.
func (d *CallDirectory) EndCall(adminID, callID uuid.UUID) (*domain.Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	if rec.admin != adminID {
		return nil, apperrors.NotCallAdminError(adminID.String(), callID.String())
	}

	final := rec.snapshot()

	delete(d.byUser, rec.admin)
	for _, p := range rec.participants {
		delete(d.byUser, p)
	}
	delete(d.calls, callID)
	if bucket, ok := d.byCircle[rec.circle]; ok {
		delete(bucket, callID)
		if len(bucket) == 0 {
			delete(d.byCircle, rec.circle)
		}
	}

	return final, nil
}

// GetByID returns a snapshot of the call
func (d *CallDirectory) GetByID(callID uuid.UUID) (*domain.Call, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.calls[callID]
	if !ok {
		return nil, apperrors.CallNotFoundError(callID.String())
	}
	return rec.snapshot(), nil
}

// GetByCircle returns the circle's live calls, most recent first
func (d *CallDirectory) GetByCircle(circleID uuid.UUID) []*domain.Call {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bucket := d.byCircle[circleID]
	calls := make([]*domain.Call, 0, len(bucket))
	for id := range bucket {
		if rec, ok := d.calls[id]; ok {
			calls = append(calls, rec.snapshot())
		}
	}
	sortCallsNewestFirst(calls)
	return calls
}

// GetAll returns every live call, most recent first
func (d *CallDirectory) GetAll() []*domain.Call {
	d.mu.RLock()
	defer d.mu.RUnlock()

	calls := make([]*domain.Call, 0, len(d.calls))
	for _, rec := range d.calls {
		calls = append(calls, rec.snapshot())
	}
	sortCallsNewestFirst(calls)
	return calls
}

// CurrentCallOf finds the one call where the user is admin or participant.
// The miss is reported as a typed not-found; callers treat it as an
// expected outcome.
func (d *CallDirectory) CurrentCallOf(userID uuid.UUID) (*domain.Call, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	callID, ok := d.byUser[userID]
	if !ok {
		return nil, apperrors.NotOnAnyCallError(userID.String())
	}
	rec, ok := d.calls[callID]
	if !ok {
		// Index and call map are mutated together; a dangling entry
		// would be a bug, surface it as the same expected miss.
		return nil, apperrors.NotOnAnyCallError(userID.String())
	}
	return rec.snapshot(), nil
}

// CircleOf returns the owning circle of the call
func (d *CallDirectory) CircleOf(callID uuid.UUID) (uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.calls[callID]
	if !ok {
		return uuid.Nil, apperrors.CallNotFoundError(callID.String())
	}
	return rec.circle, nil
}

// snapshot copies the record into a detached domain.Call
func (r *callRecord) snapshot() *domain.Call {
	return &domain.Call{
		CallID:       r.id,
		CircleID:     r.circle,
		AdminID:      r.admin,
		Participants: copyIDs(r.participants),
		Listeners:    copyIDs(r.listeners),
		SpeakerQueue: copyIDs(r.speakerQueue),
		Speakers:     copyIDs(r.speakers),
		StartedAt:    r.startedAt,
	}
}

func sortCallsNewestFirst(calls []*domain.Call) {
	sort.Slice(calls, func(i, j int) bool {
		if calls[i].StartedAt.Equal(calls[j].StartedAt) {
			return calls[i].CallID.String() < calls[j].CallID.String()
		}
		return calls[i].StartedAt.After(calls[j].StartedAt)
	})
}

func copyIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
