package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallKind is the media profile of a call, fixed for its lifetime.
type CallKind string

const (
	CallKindVoice CallKind = "voice"
	CallKindVideo CallKind = "video"
)

// Valid reports whether k is a known call kind.
func (k CallKind) Valid() bool {
	return k == CallKindVoice || k == CallKindVideo
}

// WantsVideo reports whether a call of this kind captures video.
// Audio is captured for every kind.
func (k CallKind) WantsVideo() bool {
	return k == CallKindVideo
}

// RecordStatus is the durable status of a call attempt.
type RecordStatus string

const (
	RecordStatusRinging  RecordStatus = "ringing"
	RecordStatusOngoing  RecordStatus = "ongoing"
	RecordStatusEnded    RecordStatus = "ended"
	RecordStatusRejected RecordStatus = "rejected"
)

// CallRecord is one call attempt as persisted for history. It outlives the
// in-memory session and is never deleted by the calling subsystem.
type CallRecord struct {
	ID              uuid.UUID    `json:"id"`
	CallerID        uuid.UUID    `json:"caller_id"`
	ReceiverID      uuid.UUID    `json:"receiver_id"`
	Kind            CallKind     `json:"call_type"`
	Status          RecordStatus `json:"status"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	DurationSeconds int          `json:"duration_seconds"`
	CreatedAt       time.Time    `json:"created_at"`

	// Populated from joins for history views
	CallerName   string `json:"caller_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

// CallRecordUpdate carries partial field updates for a call record.
// Nil fields are left untouched.
type CallRecordUpdate struct {
	Status          *RecordStatus
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds *int
}

// Duration returns the connected time, zero if the call never connected.
func (r *CallRecord) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// Profile is the display identity attached to signaling messages so the
// callee can render an incoming-call prompt without a lookup.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
