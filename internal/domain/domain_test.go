package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCallKind_Values(t *testing.T) {
	assert.Equal(t, CallKind("voice"), CallKindVoice)
	assert.Equal(t, CallKind("video"), CallKindVideo)
}

func TestCallKind_Valid(t *testing.T) {
	assert.True(t, CallKindVoice.Valid())
	assert.True(t, CallKindVideo.Valid())
	assert.False(t, CallKind("screenshare").Valid())
	assert.False(t, CallKind("").Valid())
}

func TestCallKind_WantsVideo(t *testing.T) {
	assert.False(t, CallKindVoice.WantsVideo())
	assert.True(t, CallKindVideo.WantsVideo())
}

func TestRecordStatus_Values(t *testing.T) {
	assert.Equal(t, RecordStatus("ringing"), RecordStatusRinging)
	assert.Equal(t, RecordStatus("ongoing"), RecordStatusOngoing)
	assert.Equal(t, RecordStatus("ended"), RecordStatusEnded)
	assert.Equal(t, RecordStatus("rejected"), RecordStatusRejected)
}

func TestCallRecord_Duration(t *testing.T) {
	rec := &CallRecord{
		ID:              uuid.New(),
		DurationSeconds: 42,
	}
	assert.Equal(t, 42*time.Second, rec.Duration())

	// Never connected
	rec.DurationSeconds = 0
	assert.Equal(t, time.Duration(0), rec.Duration())
}
