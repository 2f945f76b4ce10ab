package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/call"
	"github.com/observer/parley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_CreatesCorrectEnvelope(t *testing.T) {
	before := time.Now()
	msg, err := NewMessage("test.event", map[string]string{"key": "value"})
	after := time.Now()

	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, "test.event", msg.Type)
	assert.NotNil(t, msg.Payload)
	assert.False(t, msg.Timestamp.IsZero())
	assert.True(t, !msg.Timestamp.Before(before) && !msg.Timestamp.After(after))
}

func TestNewMessage_InvalidPayload(t *testing.T) {
	// Channels cannot be marshalled to JSON
	msg, err := NewMessage("test.event", make(chan int))
	assert.Error(t, err)
	assert.Nil(t, msg)
}

func TestCallStartPayload_RoundTrip(t *testing.T) {
	original := CallStartPayload{
		ReceiverID: uuid.New().String(),
		CallType:   domain.CallKindVideo,
	}
	data, _ := json.Marshal(original)
	var decoded CallStartPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestCallStatePayload_FromSnapshot(t *testing.T) {
	callID := uuid.New()
	remoteID := uuid.New()

	p := stateFromSnapshot(call.Snapshot{
		Status:       call.StatusConnected,
		CallID:       callID,
		RemoteID:     remoteID,
		Kind:         domain.CallKindVoice,
		AudioEnabled: true,
	})

	assert.Equal(t, call.StatusConnected, p.Status)
	assert.Equal(t, callID, p.CallID)
	assert.Equal(t, remoteID, p.RemoteID)
	assert.True(t, p.AudioEnabled)
	assert.False(t, p.VideoEnabled)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var decoded CallStatePayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)
}

func TestMessage_JSONFormat(t *testing.T) {
	msg, _ := NewMessage("test.event", map[string]string{"hello": "world"})
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "type")
	assert.Contains(t, raw, "payload")
	assert.Contains(t, raw, "timestamp")
	assert.Equal(t, "test.event", raw["type"])
}
