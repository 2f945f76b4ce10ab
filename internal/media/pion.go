package media

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/signal"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// PionEndpoint implements Endpoint on top of pion/webrtc. Local tracks are
// static RTP tracks (VP8/Opus); the capture pipeline feeds them via WriteRTP
// on the concrete track type.
type PionEndpoint struct {
	iceServers []webrtc.ICEServer
	logger     *slog.Logger
}

// NewPionEndpoint creates a pion-backed media endpoint.
func NewPionEndpoint(cfg *Config, logger *slog.Logger) *PionEndpoint {
	return &PionEndpoint{
		iceServers: cfg.GetPionICEServers(),
		logger:     logger.With("component", "media"),
	}
}

// AcquireTracks creates local RTP tracks matching the constraints. Audio is
// Opus, video VP8, matching the transport's codec registration.
func (e *PionEndpoint) AcquireTracks(ctx context.Context, c Constraints) (Stream, error) {
	streamID := uuid.NewString()
	var tracks []Track

	if c.Audio {
		t, err := newPionLocalTrack(TrackKindAudio, streamID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		tracks = append(tracks, t)
	}
	if c.Video {
		t, err := newPionLocalTrack(TrackKindVideo, streamID)
		if err != nil {
			stopTracks(tracks)
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		tracks = append(tracks, t)
	}

	return &pionStream{id: streamID, tracks: tracks}, nil
}

// CreateTransport builds a peer connection with the local tracks attached.
func (e *PionEndpoint) CreateTransport(ctx context.Context, local Stream) (Transport, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		PayloadType:        96,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, err
	}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		PayloadType:        111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m))
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: e.iceServers})
	if err != nil {
		return nil, err
	}

	t := &pionTransport{pc: pc, logger: e.logger}

	if local != nil {
		for _, track := range local.Tracks() {
			pt, ok := track.(*pionLocalTrack)
			if !ok {
				pc.Close()
				return nil, fmt.Errorf("track %s was not acquired from this endpoint", track.ID())
			}
			sender, err := pc.AddTrack(pt.rtp)
			if err != nil {
				pc.Close()
				return nil, fmt.Errorf("add track %s: %w", track.ID(), err)
			}
			go drainRTCP(sender)
		}
	}

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		t.mu.RLock()
		fn := t.onRemoteTrack
		t.mu.RUnlock()
		if fn != nil {
			fn(&pionRemoteTrack{tr: remote})
		}
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		t.mu.RLock()
		fn := t.onCandidate
		t.mu.RUnlock()
		if fn != nil {
			init := candidate.ToJSON()
			fn(signal.ICECandidate{
				Candidate:        init.Candidate,
				SDPMid:           init.SDPMid,
				SDPMLineIndex:    init.SDPMLineIndex,
				UsernameFragment: init.UsernameFragment,
			})
		}
	})

	return t, nil
}

// drainRTCP keeps the sender's RTCP pipe flowing so interceptors run.
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

func stopTracks(tracks []Track) {
	for _, t := range tracks {
		t.Stop()
	}
}

// pionStream groups locally acquired tracks.
type pionStream struct {
	id     string
	tracks []Track
}

func (s *pionStream) ID() string      { return s.id }
func (s *pionStream) Tracks() []Track { return s.tracks }

// pionLocalTrack wraps a static RTP track with an enabled flag. Disabling
// the track drops outgoing packets, which is how mute avoids renegotiation.
type pionLocalTrack struct {
	rtp     *webrtc.TrackLocalStaticRTP
	kind    TrackKind
	enabled atomic.Bool
	stopped atomic.Bool
}

func newPionLocalTrack(kind TrackKind, streamID string) (*pionLocalTrack, error) {
	cap := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
	if kind == TrackKindVideo {
		cap = webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
	}

	rtpTrack, err := webrtc.NewTrackLocalStaticRTP(cap, string(kind)+"-"+uuid.NewString(), streamID)
	if err != nil {
		return nil, err
	}

	t := &pionLocalTrack{rtp: rtpTrack, kind: kind}
	t.enabled.Store(true)
	return t, nil
}

func (t *pionLocalTrack) ID() string              { return t.rtp.ID() }
func (t *pionLocalTrack) Kind() TrackKind         { return t.kind }
func (t *pionLocalTrack) Enabled() bool           { return t.enabled.Load() }
func (t *pionLocalTrack) SetEnabled(enabled bool) { t.enabled.Store(enabled) }

func (t *pionLocalTrack) Stop() { t.stopped.Store(true) }

// WriteRTP feeds one packet from the capture pipeline into the track.
// Packets are dropped while the track is muted or stopped.
func (t *pionLocalTrack) WriteRTP(p *rtp.Packet) error {
	if t.stopped.Load() || !t.enabled.Load() {
		return nil
	}
	return t.rtp.WriteRTP(p)
}

// pionRemoteTrack adapts a pion remote track. It is owned by the transport;
// enable/stop are no-ops here.
type pionRemoteTrack struct {
	tr *webrtc.TrackRemote
}

func (t *pionRemoteTrack) ID() string { return t.tr.ID() }

func (t *pionRemoteTrack) Kind() TrackKind {
	if t.tr.Kind() == webrtc.RTPCodecTypeVideo {
		return TrackKindVideo
	}
	return TrackKindAudio
}

func (t *pionRemoteTrack) Enabled() bool   { return true }
func (t *pionRemoteTrack) SetEnabled(bool) {}
func (t *pionRemoteTrack) Stop()           {}

// ReadRTP exposes the remote packet stream for rendering pipelines.
func (t *pionRemoteTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	return t.tr.ReadRTP()
}

// pionTransport wraps one peer connection.
type pionTransport struct {
	pc            *webrtc.PeerConnection
	mu            sync.RWMutex
	onRemoteTrack func(Track)
	onCandidate   func(signal.ICECandidate)
	logger        *slog.Logger
}

func (t *pionTransport) OnRemoteTrack(fn func(Track)) {
	t.mu.Lock()
	t.onRemoteTrack = fn
	t.mu.Unlock()
}

func (t *pionTransport) OnICECandidate(fn func(signal.ICECandidate)) {
	t.mu.Lock()
	t.onCandidate = fn
	t.mu.Unlock()
}

func (t *pionTransport) CreateOffer(ctx context.Context) (signal.SessionDescription, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return signal.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	if err := t.pc.SetLocalDescription(offer); err != nil {
		return signal.SessionDescription{}, fmt.Errorf("set local description: %w", err)
	}
	return signal.SessionDescription{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

func (t *pionTransport) CreateAnswer(ctx context.Context) (signal.SessionDescription, error) {
	answer, err := t.pc.CreateAnswer(nil)
	if err != nil {
		return signal.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}
	if err := t.pc.SetLocalDescription(answer); err != nil {
		return signal.SessionDescription{}, fmt.Errorf("set local description: %w", err)
	}
	return signal.SessionDescription{Type: answer.Type.String(), SDP: answer.SDP}, nil
}

func (t *pionTransport) SetRemoteDescription(ctx context.Context, desc signal.SessionDescription) error {
	return t.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.NewSDPType(desc.Type),
		SDP:  desc.SDP,
	})
}

func (t *pionTransport) AddICECandidate(cand signal.ICECandidate) error {
	return t.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:        cand.Candidate,
		SDPMid:           cand.SDPMid,
		SDPMLineIndex:    cand.SDPMLineIndex,
		UsernameFragment: cand.UsernameFragment,
	})
}

func (t *pionTransport) Close() error {
	return t.pc.Close()
}
