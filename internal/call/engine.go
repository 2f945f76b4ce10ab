// Package call implements the call negotiation engine: the per-participant
// state machine that establishes, answers, rejects, and tears down a
// one-to-one call by driving the offer/answer/ICE exchange over the
// signaling channel and keeping the call record store up to date.
package call

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/domain"
	"github.com/observer/parley/internal/media"
	"github.com/observer/parley/internal/notify"
	"github.com/observer/parley/internal/pubsub"
	"github.com/observer/parley/internal/signal"
)

// Status is the engine's session state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusCalling   Status = "calling"
	StatusRinging   Status = "ringing"
	StatusConnected Status = "connected"
	StatusEnded     Status = "ended"
)

// DefaultEndGrace is how long the engine lingers in the ended state before
// resetting to idle, so the presentation layer can show a brief call-ended
// screen.
const DefaultEndGrace = 2 * time.Second

// Config identifies the local participant and tunes engine behavior.
type Config struct {
	ParticipantID uuid.UUID
	DisplayName   string
	AvatarURL     string

	// EndGrace is the ended-to-idle delay. Zero means DefaultEndGrace.
	EndGrace time.Duration
}

// Snapshot is a point-in-time view of the engine for the presentation layer.
type Snapshot struct {
	Status       Status
	CallID       uuid.UUID
	RemoteID     uuid.UUID
	Kind         domain.CallKind
	AudioEnabled bool
	VideoEnabled bool
}

// session is the single in-memory call. At most one exists per engine and
// it exclusively owns the locally acquired tracks and the transport.
type session struct {
	callID   uuid.UUID
	remoteID uuid.UUID
	kind     domain.CallKind
	caller   bool

	local     media.Stream
	transport media.Transport
	remote    []media.Track

	startedAt     *time.Time
	remoteDescSet bool

	// early buffers ICE candidates that arrive before the remote
	// description is applied; they are flushed once it is.
	early []signal.ICECandidate

	audioEnabled bool
	videoEnabled bool
}

// Engine owns the call state machine for one participant. All transitions
// are serialized by the mutex, and every continuation that resumes after a
// blocking await re-validates the epoch before mutating, so a reject or
// hang-up arriving mid-negotiation cannot corrupt state.
type Engine struct {
	cfg      Config
	ps       pubsub.PubSub
	store    Store
	endpoint media.Endpoint
	notifier notify.Notifier
	logger   *slog.Logger

	mu         sync.Mutex
	status     Status
	epoch      uint64
	sess       *session
	pending    map[uuid.UUID]signal.IncomingCall
	sub        pubsub.Subscription
	graceTimer *time.Timer

	onIncoming func(signal.IncomingCall)
	onState    func(Snapshot)
}

// NewEngine creates an engine for the given participant. The notifier may
// be nil.
func NewEngine(cfg Config, ps pubsub.PubSub, store Store, endpoint media.Endpoint, notifier notify.Notifier, logger *slog.Logger) *Engine {
	if cfg.EndGrace <= 0 {
		cfg.EndGrace = DefaultEndGrace
	}
	return &Engine{
		cfg:      cfg,
		ps:       ps,
		store:    store,
		endpoint: endpoint,
		notifier: notifier,
		logger:   logger.With("component", "call", "participant_id", cfg.ParticipantID),
		status:   StatusIdle,
		pending:  make(map[uuid.UUID]signal.IncomingCall),
	}
}

// OnIncomingCall registers the incoming-call prompt callback. Must be set
// before Start.
func (e *Engine) OnIncomingCall(fn func(signal.IncomingCall)) {
	e.mu.Lock()
	e.onIncoming = fn
	e.mu.Unlock()
}

// OnStateChange registers the reactive state callback. Must be set before
// Start.
func (e *Engine) OnStateChange(fn func(Snapshot)) {
	e.mu.Lock()
	e.onState = fn
	e.mu.Unlock()
}

// Start subscribes to the participant's signaling topic. The subscription
// stays active for the life of the engine, independent of call state, so a
// new incoming call is always detected.
func (e *Engine) Start(ctx context.Context) error {
	topic := pubsub.Topics.Calls(e.cfg.ParticipantID.String())
	sub, err := e.ps.Subscribe(ctx, topic, e.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	e.mu.Lock()
	e.sub = sub
	e.mu.Unlock()
	return nil
}

// Close ends any active call, cancels the grace timer, and unsubscribes.
func (e *Engine) Close() error {
	if err := e.EndCall(context.Background()); err != nil {
		e.logger.Warn("end call on close failed", "error", err)
	}
	e.mu.Lock()
	if e.graceTimer != nil {
		e.graceTimer.Stop()
	}
	e.status = StatusIdle
	e.sess = nil
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()
	if sub != nil {
		return sub.Unsubscribe()
	}
	return nil
}

// Snapshot returns the current engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{Status: e.status}
	if e.sess != nil {
		snap.CallID = e.sess.callID
		snap.RemoteID = e.sess.remoteID
		snap.Kind = e.sess.kind
		snap.AudioEnabled = e.sess.audioEnabled
		snap.VideoEnabled = e.sess.videoEnabled
	}
	return snap
}

// LocalStream returns the locally acquired stream, nil outside a call.
func (e *Engine) LocalStream() media.Stream {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return e.sess.local
}

// RemoteTracks returns the remote tracks received so far.
func (e *Engine) RemoteTracks() []media.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	out := make([]media.Track, len(e.sess.remote))
	copy(out, e.sess.remote)
	return out
}

// StartCall initiates a call to remoteID. Fails with ErrCallInProgress if
// the engine is not idle. Media acquisition or negotiation failure aborts
// the attempt, releases everything acquired, and returns the engine to idle.
func (e *Engine) StartCall(ctx context.Context, remoteID uuid.UUID, kind domain.CallKind) (uuid.UUID, error) {
	if !kind.Valid() {
		return uuid.Nil, domain.ErrInvalidKind
	}

	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		return uuid.Nil, domain.ErrCallInProgress
	}
	callID := uuid.New()
	e.epoch++
	ep := e.epoch
	e.sess = &session{
		callID:       callID,
		remoteID:     remoteID,
		kind:         kind,
		caller:       true,
		audioEnabled: true,
		videoEnabled: kind.WantsVideo(),
	}
	e.status = StatusCalling
	e.mu.Unlock()
	e.emitState()

	local, err := e.endpoint.AcquireTracks(ctx, media.Constraints{Audio: true, Video: kind.WantsVideo()})
	if err != nil {
		e.abortAttempt(ep, nil, nil)
		return uuid.Nil, fmt.Errorf("acquire media: %w", err)
	}

	transport, err := e.endpoint.CreateTransport(ctx, local)
	if err != nil {
		e.abortAttempt(ep, local, nil)
		return uuid.Nil, fmt.Errorf("create transport: %w", err)
	}
	e.wireTransport(transport, ep, remoteID)

	offer, err := transport.CreateOffer(ctx)
	if err != nil {
		e.abortAttempt(ep, local, transport)
		return uuid.Nil, fmt.Errorf("create offer: %w", err)
	}

	e.mu.Lock()
	if e.epoch != ep || e.status != StatusCalling {
		e.mu.Unlock()
		media.StopAll(local)
		transport.Close()
		return uuid.Nil, domain.ErrCallNotActive
	}
	e.sess.local = local
	e.sess.transport = transport
	e.mu.Unlock()

	now := time.Now()
	if err := e.store.Insert(ctx, &domain.CallRecord{
		ID:         callID,
		CallerID:   e.cfg.ParticipantID,
		ReceiverID: remoteID,
		Kind:       kind,
		Status:     domain.RecordStatusRinging,
		CreatedAt:  now,
	}); err != nil {
		e.logger.Warn("call record insert failed", "call_id", callID, "error", err)
	}

	e.publish(remoteID, signal.TypeIncomingCall, signal.IncomingCall{
		CallID:       callID,
		CallerID:     e.cfg.ParticipantID,
		CallerName:   e.cfg.DisplayName,
		CallerAvatar: e.cfg.AvatarURL,
		CallType:     kind,
		Offer:        offer,
	})

	e.logger.Info("call initiated", "call_id", callID, "remote_id", remoteID, "kind", kind)
	return callID, nil
}

// AnswerCall accepts the pending incoming call. Fails with ErrNoPendingOffer
// if the offer is gone, which happens when the caller hung up or the prompt
// raced a second answer.
func (e *Engine) AnswerCall(ctx context.Context, callID uuid.UUID) error {
	e.mu.Lock()
	invite, ok := e.pending[callID]
	if !ok || e.status != StatusRinging || e.sess == nil || e.sess.callID != callID {
		e.mu.Unlock()
		return domain.ErrNoPendingOffer
	}
	delete(e.pending, callID)
	ep := e.epoch
	kind := e.sess.kind
	remoteID := e.sess.remoteID
	e.mu.Unlock()

	local, err := e.endpoint.AcquireTracks(ctx, media.Constraints{Audio: true, Video: kind.WantsVideo()})
	if err != nil {
		e.abortAttempt(ep, nil, nil)
		return fmt.Errorf("acquire media: %w", err)
	}

	transport, err := e.endpoint.CreateTransport(ctx, local)
	if err != nil {
		e.abortAttempt(ep, local, nil)
		return fmt.Errorf("create transport: %w", err)
	}
	e.wireTransport(transport, ep, remoteID)

	if err := transport.SetRemoteDescription(ctx, invite.Offer); err != nil {
		e.abortAttempt(ep, local, transport)
		return fmt.Errorf("apply remote offer: %w", err)
	}
	answer, err := transport.CreateAnswer(ctx)
	if err != nil {
		e.abortAttempt(ep, local, transport)
		return fmt.Errorf("create answer: %w", err)
	}

	now := time.Now()

	e.mu.Lock()
	if e.epoch != ep || e.status != StatusRinging {
		e.mu.Unlock()
		media.StopAll(local)
		transport.Close()
		return domain.ErrCallNotActive
	}
	e.sess.local = local
	e.sess.transport = transport
	e.sess.remoteDescSet = true
	e.sess.startedAt = &now
	early := e.sess.early
	e.sess.early = nil
	e.status = StatusConnected
	e.mu.Unlock()

	e.flushCandidates(transport, early)

	ongoing := domain.RecordStatusOngoing
	if err := e.store.Update(ctx, callID, domain.CallRecordUpdate{
		Status:    &ongoing,
		StartedAt: &now,
	}); err != nil {
		e.logger.Warn("call record update failed", "call_id", callID, "error", err)
	}

	e.publish(remoteID, signal.TypeCallAnswered, signal.CallAnswered{CallID: callID, Answer: answer})

	e.logger.Info("call answered", "call_id", callID)
	e.emitState()
	return nil
}

// RejectCall declines the pending incoming call. No media was acquired in
// the ringing state, so the engine returns straight to idle with no grace
// delay.
func (e *Engine) RejectCall(ctx context.Context, callID uuid.UUID) error {
	e.mu.Lock()
	if _, ok := e.pending[callID]; !ok || e.status != StatusRinging || e.sess == nil || e.sess.callID != callID {
		e.mu.Unlock()
		return domain.ErrNoPendingOffer
	}
	delete(e.pending, callID)
	remoteID := e.sess.remoteID
	e.sess = nil
	e.status = StatusIdle
	e.epoch++
	e.mu.Unlock()

	rejected := domain.RecordStatusRejected
	now := time.Now()
	if err := e.store.Update(ctx, callID, domain.CallRecordUpdate{
		Status:  &rejected,
		EndedAt: &now,
	}); err != nil {
		e.logger.Warn("call record update failed", "call_id", callID, "error", err)
	}

	e.publish(remoteID, signal.TypeCallRejected, signal.CallRejected{CallID: callID})

	e.logger.Info("call rejected", "call_id", callID)
	e.emitState()
	return nil
}

// EndCall hangs up the active call. Idempotent: calling it while idle or
// already ended is a no-op. Local teardown never waits on the remote side
// acknowledging the call-ended message.
func (e *Engine) EndCall(ctx context.Context) error {
	e.mu.Lock()
	if e.status == StatusIdle || e.status == StatusEnded {
		e.mu.Unlock()
		return nil
	}
	s := e.sess
	delete(e.pending, s.callID)
	e.status = StatusEnded
	e.epoch++
	e.scheduleGraceLocked()
	e.mu.Unlock()

	now := time.Now()
	duration := e.connectedSeconds(ctx, s, now)
	ended := domain.RecordStatusEnded
	if err := e.store.Update(ctx, s.callID, domain.CallRecordUpdate{
		Status:          &ended,
		EndedAt:         &now,
		DurationSeconds: &duration,
	}); err != nil {
		e.logger.Warn("call record update failed", "call_id", s.callID, "error", err)
	}

	e.publish(s.remoteID, signal.TypeCallEnded, signal.CallEnded{CallID: s.callID})

	e.teardown(s)
	e.logger.Info("call ended", "call_id", s.callID, "duration_seconds", duration)
	e.emitState()
	return nil
}

// ToggleAudio flips the local audio mute flag and returns the new enabled
// state. No renegotiation happens; muted tracks simply stop sending.
func (e *Engine) ToggleAudio() bool {
	return e.toggleTracks(media.TrackKindAudio)
}

// ToggleVideo flips the local video mute flag and returns the new enabled
// state.
func (e *Engine) ToggleVideo() bool {
	return e.toggleTracks(media.TrackKindVideo)
}

func (e *Engine) toggleTracks(kind media.TrackKind) bool {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return false
	}
	var enabled bool
	if kind == media.TrackKindAudio {
		e.sess.audioEnabled = !e.sess.audioEnabled
		enabled = e.sess.audioEnabled
	} else {
		e.sess.videoEnabled = !e.sess.videoEnabled
		enabled = e.sess.videoEnabled
	}
	local := e.sess.local
	e.mu.Unlock()

	for _, t := range media.TracksOfKind(local, kind) {
		t.SetEnabled(enabled)
	}
	e.emitState()
	return enabled
}

// handleMessage dispatches one signaling message. Unknown kinds and
// malformed payloads are dropped.
func (e *Engine) handleMessage(ctx context.Context, msg *pubsub.Message) {
	payload, err := signal.Decode(msg)
	if err != nil {
		e.logger.Debug("dropping signaling message", "type", msg.Type, "error", err)
		return
	}

	switch p := payload.(type) {
	case signal.IncomingCall:
		e.handleIncomingCall(ctx, p)
	case signal.CallAnswered:
		e.handleCallAnswered(ctx, p)
	case signal.CallRejected:
		e.handleCallRejected(ctx, p)
	case signal.CallEnded:
		e.handleCallEnded(ctx, p)
	case signal.Candidate:
		e.handleCandidate(ctx, p)
	}
}

// handleIncomingCall either surfaces the invite (idle) or auto-rejects it
// (busy line). The check-and-transition is atomic under the engine mutex so
// two near-simultaneous invites cannot both ring.
func (e *Engine) handleIncomingCall(ctx context.Context, p signal.IncomingCall) {
	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		e.publish(p.CallerID, signal.TypeCallRejected, signal.CallRejected{CallID: p.CallID})
		e.logger.Info("busy, auto-rejected incoming call", "call_id", p.CallID, "caller_id", p.CallerID)
		return
	}
	e.epoch++
	e.pending[p.CallID] = p
	e.sess = &session{
		callID:       p.CallID,
		remoteID:     p.CallerID,
		kind:         p.CallType,
		audioEnabled: true,
		videoEnabled: p.CallType.WantsVideo(),
	}
	e.status = StatusRinging
	fn := e.onIncoming
	e.mu.Unlock()

	if e.notifier != nil {
		e.notifier.Notify(ctx, notify.Event{
			Kind:       notify.EventIncomingCall,
			CallID:     p.CallID,
			Recipient:  e.cfg.ParticipantID,
			CallerName: p.CallerName,
			CallKind:   p.CallType,
		})
	}

	e.logger.Info("incoming call", "call_id", p.CallID, "caller_id", p.CallerID, "kind", p.CallType)
	e.emitState()
	if fn != nil {
		fn(p)
	}
}

// handleCallAnswered applies the answer as the remote description. Late or
// duplicate answers are ignored; a terminated session is never resurrected.
func (e *Engine) handleCallAnswered(ctx context.Context, p signal.CallAnswered) {
	e.mu.Lock()
	if e.status != StatusCalling || e.sess == nil || e.sess.callID != p.CallID {
		e.mu.Unlock()
		e.logger.Debug("stale call-answered ignored", "call_id", p.CallID)
		return
	}
	ep := e.epoch
	transport := e.sess.transport
	e.mu.Unlock()

	if transport == nil {
		// The answer outran the offer continuation. The caller's own
		// negotiation has not completed, so treat it as stale.
		e.logger.Debug("call-answered before transport ready, ignored", "call_id", p.CallID)
		return
	}

	if err := transport.SetRemoteDescription(ctx, p.Answer); err != nil {
		e.logger.Error("applying answer failed", "call_id", p.CallID, "error", err)
		e.failNegotiation(ctx, ep)
		return
	}

	now := time.Now()

	e.mu.Lock()
	if e.epoch != ep || e.status != StatusCalling {
		e.mu.Unlock()
		return
	}
	e.sess.remoteDescSet = true
	e.sess.startedAt = &now
	early := e.sess.early
	e.sess.early = nil
	e.status = StatusConnected
	e.mu.Unlock()

	e.flushCandidates(transport, early)

	e.logger.Info("call connected", "call_id", p.CallID)
	e.emitState()
}

// handleCallRejected tears down the outgoing attempt. The caller marks its
// own record rejected since the callee never writes to it.
func (e *Engine) handleCallRejected(ctx context.Context, p signal.CallRejected) {
	e.mu.Lock()
	if e.status != StatusCalling || e.sess == nil || e.sess.callID != p.CallID {
		e.mu.Unlock()
		e.logger.Debug("stale call-rejected ignored", "call_id", p.CallID)
		return
	}
	s := e.sess
	e.status = StatusEnded
	e.epoch++
	e.scheduleGraceLocked()
	e.mu.Unlock()

	rejected := domain.RecordStatusRejected
	now := time.Now()
	if err := e.store.Update(ctx, s.callID, domain.CallRecordUpdate{
		Status:  &rejected,
		EndedAt: &now,
	}); err != nil {
		e.logger.Warn("call record update failed", "call_id", s.callID, "error", err)
	}

	e.teardown(s)
	e.logger.Info("call rejected by remote", "call_id", s.callID)
	e.emitState()
}

// handleCallEnded mirrors EndCall's teardown without re-publishing, so two
// engines ending the same call cannot loop. The ending side already updated
// the record.
func (e *Engine) handleCallEnded(ctx context.Context, p signal.CallEnded) {
	e.mu.Lock()
	if e.status == StatusIdle || e.status == StatusEnded || e.sess == nil || e.sess.callID != p.CallID {
		e.mu.Unlock()
		e.logger.Debug("stale call-ended ignored", "call_id", p.CallID)
		return
	}
	s := e.sess
	wasRinging := e.status == StatusRinging
	delete(e.pending, s.callID)
	e.status = StatusEnded
	e.epoch++
	e.scheduleGraceLocked()
	e.mu.Unlock()

	e.teardown(s)

	if wasRinging && e.notifier != nil {
		e.notifier.Notify(ctx, notify.Event{
			Kind:      notify.EventMissedCall,
			CallID:    s.callID,
			Recipient: e.cfg.ParticipantID,
			CallKind:  s.kind,
		})
	}

	e.logger.Info("call ended by remote", "call_id", s.callID)
	e.emitState()
}

// handleCandidate applies the candidate to the active transport, or buffers
// it until the remote description is set. Candidates with no session at all
// are discarded.
func (e *Engine) handleCandidate(ctx context.Context, p signal.Candidate) {
	e.mu.Lock()
	if e.sess == nil || e.status == StatusIdle || e.status == StatusEnded {
		e.mu.Unlock()
		e.logger.Debug("ice candidate with no active call, discarded")
		return
	}
	if e.sess.transport == nil || !e.sess.remoteDescSet {
		e.sess.early = append(e.sess.early, p.Candidate)
		e.mu.Unlock()
		return
	}
	transport := e.sess.transport
	e.mu.Unlock()

	if err := transport.AddICECandidate(p.Candidate); err != nil {
		e.logger.Warn("adding ice candidate failed", "error", err)
	}
}

// wireTransport registers the transport callbacks. Both are guarded by the
// epoch captured at negotiation start so events from a torn-down transport
// cannot touch a newer session.
func (e *Engine) wireTransport(t media.Transport, ep uint64, remoteID uuid.UUID) {
	t.OnICECandidate(func(c signal.ICECandidate) {
		e.mu.Lock()
		live := e.epoch == ep
		e.mu.Unlock()
		if !live {
			return
		}
		e.publish(remoteID, signal.TypeICECandidate, signal.Candidate{Candidate: c})
	})

	t.OnRemoteTrack(func(tr media.Track) {
		e.mu.Lock()
		if e.epoch == ep && e.sess != nil {
			e.sess.remote = append(e.sess.remote, tr)
		}
		e.mu.Unlock()
	})
}

// abortAttempt resets a failed initiate/answer back to idle. The stream and
// transport are owned by the failed continuation until they are attached to
// the session, so they are always released here regardless of epoch.
func (e *Engine) abortAttempt(ep uint64, local media.Stream, transport media.Transport) {
	media.StopAll(local)
	if transport != nil {
		transport.Close()
	}

	e.mu.Lock()
	if e.epoch != ep || (e.status != StatusCalling && e.status != StatusRinging) {
		e.mu.Unlock()
		return
	}
	e.sess = nil
	e.status = StatusIdle
	e.epoch++
	e.mu.Unlock()
	e.emitState()
}

// failNegotiation terminates the session after a mid-call negotiation
// error. The remote side is told the call ended so it is not left hanging.
func (e *Engine) failNegotiation(ctx context.Context, ep uint64) {
	e.mu.Lock()
	if e.epoch != ep || e.sess == nil {
		e.mu.Unlock()
		return
	}
	s := e.sess
	e.status = StatusEnded
	e.epoch++
	e.scheduleGraceLocked()
	e.mu.Unlock()

	now := time.Now()
	ended := domain.RecordStatusEnded
	zero := 0
	if err := e.store.Update(ctx, s.callID, domain.CallRecordUpdate{
		Status:          &ended,
		EndedAt:         &now,
		DurationSeconds: &zero,
	}); err != nil {
		e.logger.Warn("call record update failed", "call_id", s.callID, "error", err)
	}

	e.publish(s.remoteID, signal.TypeCallEnded, signal.CallEnded{CallID: s.callID})
	e.teardown(s)
	e.emitState()
}

// scheduleGraceLocked arms the ended-to-idle timer. Caller holds the mutex.
func (e *Engine) scheduleGraceLocked() {
	if e.graceTimer != nil {
		e.graceTimer.Stop()
	}
	e.graceTimer = time.AfterFunc(e.cfg.EndGrace, func() {
		e.mu.Lock()
		if e.status != StatusEnded {
			e.mu.Unlock()
			return
		}
		e.sess = nil
		e.status = StatusIdle
		e.epoch++
		e.mu.Unlock()
		e.emitState()
	})
}

// teardown releases the session's local tracks and closes its transport.
// This runs on every path out of calling, ringing, and connected.
func (e *Engine) teardown(s *session) {
	if s == nil {
		return
	}
	media.StopAll(s.local)
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			e.logger.Warn("closing transport failed", "call_id", s.callID, "error", err)
		}
	}
}

// connectedSeconds computes call duration from the record's startedAt,
// falling back to the session's local clock if the store is unavailable.
// Zero if the call never connected.
func (e *Engine) connectedSeconds(ctx context.Context, s *session, now time.Time) int {
	if rec, err := e.store.Get(ctx, s.callID); err == nil && rec.StartedAt != nil {
		return int(now.Sub(*rec.StartedAt).Seconds())
	}
	if s.startedAt != nil {
		return int(now.Sub(*s.startedAt).Seconds())
	}
	return 0
}

// flushCandidates drains the early-candidate buffer into the transport.
func (e *Engine) flushCandidates(t media.Transport, candidates []signal.ICECandidate) {
	for _, c := range candidates {
		if err := t.AddICECandidate(c); err != nil {
			e.logger.Warn("flushing buffered ice candidate failed", "error", err)
		}
	}
}

// publish sends one signaling message to a participant's topic. Delivery
// failure is logged and never blocks local state progression.
func (e *Engine) publish(participantID uuid.UUID, msgType string, payload interface{}) {
	topic := pubsub.Topics.Calls(participantID.String())
	msg, err := signal.NewMessage(topic, msgType, payload)
	if err != nil {
		e.logger.Error("encoding signaling message failed", "type", msgType, "error", err)
		return
	}
	if err := e.ps.Publish(context.Background(), topic, msg); err != nil {
		e.logger.Warn("publishing signaling message failed", "type", msgType, "topic", topic, "error", err)
	}
}

func (e *Engine) emitState() {
	e.mu.Lock()
	fn := e.onState
	snap := e.snapshotLocked()
	e.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
