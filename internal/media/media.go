// Package media defines the endpoint boundary for acquiring local tracks and
// establishing the peer transport that carries them. The pion-backed
// implementation is the production endpoint; the call engine depends only on
// the interfaces so tests can substitute fakes.
package media

import (
	"context"
	"errors"

	"github.com/observer/parley/internal/signal"
)

// Acquisition errors. Both abort the call attempt and are never retried.
var (
	ErrPermissionDenied  = errors.New("media access denied")
	ErrDeviceUnavailable = errors.New("media device unavailable")
)

// TrackKind distinguishes audio and video tracks.
type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// Constraints selects which track kinds to acquire.
type Constraints struct {
	Audio bool
	Video bool
}

// Track is a single media track. Locally-acquired tracks are exclusively
// owned by the call session and must be stopped on every exit path; remote
// tracks are owned by the transport and only referenced for rendering.
type Track interface {
	ID() string
	Kind() TrackKind

	// Enabled/SetEnabled implement mute without renegotiation.
	Enabled() bool
	SetEnabled(enabled bool)

	// Stop releases the underlying capture resource. Stopping a remote
	// track is a no-op.
	Stop()
}

// Stream groups the tracks acquired together.
type Stream interface {
	ID() string
	Tracks() []Track
}

// Transport is one peer connection carrying the session's media. Handlers
// must be registered before the first offer or answer is created.
type Transport interface {
	CreateOffer(ctx context.Context) (signal.SessionDescription, error)
	CreateAnswer(ctx context.Context) (signal.SessionDescription, error)
	SetRemoteDescription(ctx context.Context, desc signal.SessionDescription) error
	AddICECandidate(cand signal.ICECandidate) error

	OnRemoteTrack(fn func(Track))
	OnICECandidate(fn func(signal.ICECandidate))

	Close() error
}

// Endpoint acquires local media and creates peer transports.
type Endpoint interface {
	// AcquireTracks captures local media matching the constraints. Fails
	// with ErrPermissionDenied or ErrDeviceUnavailable.
	AcquireTracks(ctx context.Context, c Constraints) (Stream, error)

	// CreateTransport creates a peer transport with the local tracks
	// attached. The transport is exclusively owned by the caller and must
	// be closed alongside track release.
	CreateTransport(ctx context.Context, local Stream) (Transport, error)
}

// TracksOfKind filters a stream's tracks by kind.
func TracksOfKind(s Stream, kind TrackKind) []Track {
	if s == nil {
		return nil
	}
	var out []Track
	for _, t := range s.Tracks() {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// StopAll stops every track in the stream. Safe on nil.
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
