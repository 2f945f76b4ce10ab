// Package signal defines the wire format for call signaling messages
// exchanged over a participant's pubsub topic. The message set is a closed
// union: one payload type per message kind, unknown kinds are rejected.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/domain"
	"github.com/observer/parley/internal/pubsub"
)

// Signaling message kinds
const (
	TypeIncomingCall = "incoming-call"
	TypeCallAnswered = "call-answered"
	TypeCallRejected = "call-rejected"
	TypeCallEnded    = "call-ended"
	TypeICECandidate = "ice-candidate"
)

// ErrUnknownType is returned when a message carries a kind outside the union.
var ErrUnknownType = errors.New("unknown signaling message type")

// SessionDescription is an SDP offer or answer.
type SessionDescription struct {
	Type string `json:"type"` // "offer" or "answer"
	SDP  string `json:"sdp"`
}

// ICECandidate is one discovered network path, in the browser ToJSON shape
// so either end of the call can be a web client.
type ICECandidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// IncomingCall invites the recipient to a call and carries the caller's
// offer plus display metadata for the incoming-call prompt.
type IncomingCall struct {
	CallID       uuid.UUID          `json:"callId"`
	CallerID     uuid.UUID          `json:"callerId"`
	CallerName   string             `json:"callerName"`
	CallerAvatar string             `json:"callerAvatar,omitempty"`
	CallType     domain.CallKind    `json:"callType"`
	Offer        SessionDescription `json:"offer"`
}

// CallAnswered carries the callee's answer back to the caller.
type CallAnswered struct {
	CallID uuid.UUID          `json:"callId"`
	Answer SessionDescription `json:"answer"`
}

// CallRejected tells the caller the call was declined (or the line was busy).
type CallRejected struct {
	CallID uuid.UUID `json:"callId"`
}

// CallEnded tells the other participant the call was hung up.
type CallEnded struct {
	CallID uuid.UUID `json:"callId"`
}

// Candidate relays one ICE candidate to the other participant.
type Candidate struct {
	Candidate ICECandidate `json:"candidate"`
}

// NewMessage wraps a payload into a pubsub message addressed to topic.
func NewMessage(topic, msgType string, payload interface{}) (*pubsub.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return &pubsub.Message{
		Topic:   topic,
		Type:    msgType,
		Payload: data,
	}, nil
}

// Decode unmarshals the payload of msg into the union member matching its
// type. Messages with unknown kinds return ErrUnknownType and must be
// ignored by recipients.
func Decode(msg *pubsub.Message) (interface{}, error) {
	var (
		payload interface{}
		err     error
	)

	switch msg.Type {
	case TypeIncomingCall:
		var p IncomingCall
		err = json.Unmarshal(msg.Payload, &p)
		payload = p
	case TypeCallAnswered:
		var p CallAnswered
		err = json.Unmarshal(msg.Payload, &p)
		payload = p
	case TypeCallRejected:
		var p CallRejected
		err = json.Unmarshal(msg.Payload, &p)
		payload = p
	case TypeCallEnded:
		var p CallEnded
		err = json.Unmarshal(msg.Payload, &p)
		payload = p
	case TypeICECandidate:
		var p Candidate
		err = json.Unmarshal(msg.Payload, &p)
		payload = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	return payload, nil
}
