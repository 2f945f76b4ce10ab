package signal

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/domain"
	"github.com/observer/parley/internal/pubsub"
)

func TestDecode_IncomingCall(t *testing.T) {
	callID := uuid.New()
	callerID := uuid.New()

	msg, err := NewMessage(pubsub.Topics.Calls("bob"), TypeIncomingCall, IncomingCall{
		CallID:     callID,
		CallerID:   callerID,
		CallerName: "Alice W",
		CallType:   domain.CallKindVideo,
		Offer:      SessionDescription{Type: "offer", SDP: "v=0\r\n"},
	})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	decoded, err := Decode(msg)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	inc, ok := decoded.(IncomingCall)
	if !ok {
		t.Fatalf("decoded to %T, want IncomingCall", decoded)
	}
	if inc.CallID != callID {
		t.Errorf("callId %v, want %v", inc.CallID, callID)
	}
	if inc.CallerName != "Alice W" {
		t.Errorf("callerName %q, want %q", inc.CallerName, "Alice W")
	}
	if inc.Offer.Type != "offer" {
		t.Errorf("offer type %q, want offer", inc.Offer.Type)
	}
}

func TestDecode_TerminationMessages(t *testing.T) {
	callID := uuid.New()

	tests := []struct {
		msgType string
		payload interface{}
	}{
		{TypeCallRejected, CallRejected{CallID: callID}},
		{TypeCallEnded, CallEnded{CallID: callID}},
	}

	for _, tt := range tests {
		t.Run(tt.msgType, func(t *testing.T) {
			msg, err := NewMessage("calls-x", tt.msgType, tt.payload)
			if err != nil {
				t.Fatalf("NewMessage failed: %v", err)
			}
			decoded, err := Decode(msg)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			switch p := decoded.(type) {
			case CallRejected:
				if p.CallID != callID {
					t.Errorf("callId %v, want %v", p.CallID, callID)
				}
			case CallEnded:
				if p.CallID != callID {
					t.Errorf("callId %v, want %v", p.CallID, callID)
				}
			default:
				t.Fatalf("unexpected payload type %T", decoded)
			}
		})
	}
}

func TestDecode_Candidate(t *testing.T) {
	mid := "0"
	msg, err := NewMessage("calls-x", TypeICECandidate, Candidate{
		Candidate: ICECandidate{
			Candidate: "candidate:1 1 UDP 2122252543 192.0.2.1 54321 typ host",
			SDPMid:    &mid,
		},
	})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	decoded, err := Decode(msg)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	cand, ok := decoded.(Candidate)
	if !ok {
		t.Fatalf("decoded to %T, want Candidate", decoded)
	}
	if cand.Candidate.SDPMid == nil || *cand.Candidate.SDPMid != "0" {
		t.Error("sdpMid not preserved")
	}
}

func TestDecode_UnknownTypeRejected(t *testing.T) {
	msg := &pubsub.Message{Topic: "calls-x", Type: "call-held", Payload: []byte(`{}`)}

	if _, err := Decode(msg); !errors.Is(err, ErrUnknownType) {
		t.Errorf("got error %v, want ErrUnknownType", err)
	}
}

func TestDecode_MalformedPayload(t *testing.T) {
	msg := &pubsub.Message{Topic: "calls-x", Type: TypeCallAnswered, Payload: []byte(`{not json`)}

	if _, err := Decode(msg); err == nil {
		t.Error("expected error for malformed payload")
	}
}
