package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/call"
	"github.com/observer/parley/internal/domain"
)

// Event types for client -> server
const (
	EventTypeAuth        = "auth"
	EventTypeCallStart   = "call.start"
	EventTypeCallAnswer  = "call.answer"
	EventTypeCallReject  = "call.reject"
	EventTypeCallEnd     = "call.end"
	EventTypeToggleAudio = "call.toggle_audio"
	EventTypeToggleVideo = "call.toggle_video"
)

// Event types for server -> client
const (
	EventTypeError       = "error"
	EventTypeAuthSuccess = "auth.success"
	EventTypeCallStarted = "call.started"
	EventTypeIncoming    = "call.incoming"
	EventTypeCallState   = "call.state"
	EventTypeToggled     = "call.toggled"
)

// Message is the base WebSocket message envelope
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// NewMessage creates a message with the current timestamp
func NewMessage(eventType string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      eventType,
		Payload:   payloadBytes,
		Timestamp: time.Now(),
	}, nil
}

// ============================================================================
// Client -> Server Payloads
// ============================================================================

// AuthPayload for authenticating the WebSocket connection
type AuthPayload struct {
	Token string `json:"token"` // JWT access token
}

// CallStartPayload initiates a call
type CallStartPayload struct {
	ReceiverID string          `json:"receiver_id"`
	CallType   domain.CallKind `json:"call_type"`
}

// CallIDPayload targets an existing call (answer/reject)
type CallIDPayload struct {
	CallID string `json:"call_id"`
}

// ============================================================================
// Server -> Client Payloads
// ============================================================================

// ErrorPayload for error responses
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthSuccessPayload confirms successful authentication
type AuthSuccessPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
}

// CallStartedPayload acknowledges call.start with the assigned call ID
type CallStartedPayload struct {
	CallID uuid.UUID `json:"call_id"`
}

// CallStatePayload mirrors the engine's reactive state to the client
type CallStatePayload struct {
	Status       call.Status     `json:"status"`
	CallID       uuid.UUID       `json:"call_id,omitempty"`
	RemoteID     uuid.UUID       `json:"remote_id,omitempty"`
	Kind         domain.CallKind `json:"call_type,omitempty"`
	AudioEnabled bool            `json:"audio_enabled"`
	VideoEnabled bool            `json:"video_enabled"`
}

// ToggledPayload reports a mute flag flip
type ToggledPayload struct {
	Track   string `json:"track"` // "audio" or "video"
	Enabled bool   `json:"enabled"`
}

func stateFromSnapshot(s call.Snapshot) CallStatePayload {
	return CallStatePayload{
		Status:       s.Status,
		CallID:       s.CallID,
		RemoteID:     s.RemoteID,
		Kind:         s.Kind,
		AudioEnabled: s.AudioEnabled,
		VideoEnabled: s.VideoEnabled,
	}
}
