package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/auth"
	"github.com/observer/parley/internal/call"
	"github.com/observer/parley/internal/domain"
	"github.com/observer/parley/internal/media"
	"github.com/observer/parley/internal/signal"
)

// CallSession is the engine surface the gateway drives. *call.Engine
// implements it; tests substitute fakes.
type CallSession interface {
	Start(ctx context.Context) error
	Close() error

	StartCall(ctx context.Context, remoteID uuid.UUID, kind domain.CallKind) (uuid.UUID, error)
	AnswerCall(ctx context.Context, callID uuid.UUID) error
	RejectCall(ctx context.Context, callID uuid.UUID) error
	EndCall(ctx context.Context) error
	ToggleAudio() bool
	ToggleVideo() bool

	OnIncomingCall(fn func(signal.IncomingCall))
	OnStateChange(fn func(call.Snapshot))
	Snapshot() call.Snapshot
}

// SessionFactory builds the call engine for an authenticated participant.
type SessionFactory func(ctx context.Context, userID uuid.UUID, displayName string) (CallSession, error)

// Hub maintains the set of active clients and one call session per
// authenticated participant. A participant's session lives as long as at
// least one of their connections does.
type Hub struct {
	clients  map[uuid.UUID]map[*Client]bool
	sessions map[uuid.UUID]CallSession

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	tokens  *auth.TokenService
	factory SessionFactory
	logger  *slog.Logger
}

// NewHub creates a new Hub
func NewHub(tokens *auth.TokenService, factory SessionFactory, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		sessions:   make(map[uuid.UUID]CallSession),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		tokens:     tokens,
		factory:    factory,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllSessions()
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) handleRegister(client *Client) {
	h.logger.Debug("client connected", "remote_addr", client.conn.RemoteAddr())
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	userID := client.UserID()
	var closing CallSession
	if userID != uuid.Nil {
		if clients, ok := h.clients[userID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.clients, userID)
				closing = h.sessions[userID]
				delete(h.sessions, userID)
			}
		}
	}
	close(client.send)
	h.mu.Unlock()

	if closing != nil {
		if err := closing.Close(); err != nil {
			h.logger.Warn("closing call session failed", "user_id", userID, "error", err)
		}
	}
	h.logger.Debug("client disconnected", "user_id", userID)
}

func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[uuid.UUID]CallSession)
	h.mu.Unlock()

	for userID, s := range sessions {
		if err := s.Close(); err != nil {
			h.logger.Warn("closing call session failed", "user_id", userID, "error", err)
		}
	}
}

// HandleMessage processes incoming WebSocket messages
func (h *Hub) HandleMessage(ctx context.Context, client *Client, msg *Message) {
	if msg.Type == EventTypeAuth {
		h.handleAuth(ctx, client, msg.Payload)
		return
	}

	if !client.IsAuthenticated() {
		client.sendError("not_authenticated", "Must authenticate first")
		return
	}

	switch msg.Type {
	case EventTypeCallStart:
		h.handleCallStart(ctx, client, msg.Payload)
	case EventTypeCallAnswer:
		h.handleCallAnswer(ctx, client, msg.Payload)
	case EventTypeCallReject:
		h.handleCallReject(ctx, client, msg.Payload)
	case EventTypeCallEnd:
		h.handleCallEnd(ctx, client)
	case EventTypeToggleAudio:
		h.handleToggle(client, media.TrackKindAudio)
	case EventTypeToggleVideo:
		h.handleToggle(client, media.TrackKindVideo)
	default:
		client.sendError("unknown_event", "Unknown event type: "+msg.Type)
	}
}

func (h *Hub) handleAuth(ctx context.Context, client *Client, payload json.RawMessage) {
	var p AuthPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.sendError("invalid_payload", "Invalid auth payload")
		return
	}

	claims, err := h.tokens.ValidateAccessToken(p.Token)
	if err != nil {
		client.sendError("auth_failed", "Invalid or expired token")
		return
	}

	client.SetUser(claims.UserID, claims.DisplayName)

	if err := h.attachSession(ctx, client, claims.UserID, claims.DisplayName); err != nil {
		client.sendError("session_failed", "Failed to start call session")
		return
	}

	msg, _ := NewMessage(EventTypeAuthSuccess, AuthSuccessPayload{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
	})
	client.Send(msg)

	h.logger.Info("client authenticated", "user_id", claims.UserID)
}

// attachSession adds the connection to the user's set, creating and starting
// the call session on the first connection.
func (h *Hub) attachSession(ctx context.Context, client *Client, userID uuid.UUID, displayName string) error {
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true
	_, exists := h.sessions[userID]
	h.mu.Unlock()

	if exists {
		return nil
	}

	session, err := h.factory(ctx, userID, displayName)
	if err != nil {
		return err
	}

	session.OnIncomingCall(func(inv signal.IncomingCall) {
		h.BroadcastToUser(userID, EventTypeIncoming, inv)
	})
	session.OnStateChange(func(snap call.Snapshot) {
		h.BroadcastToUser(userID, EventTypeCallState, stateFromSnapshot(snap))
	})

	if err := session.Start(ctx); err != nil {
		session.Close()
		return err
	}

	h.mu.Lock()
	if _, raced := h.sessions[userID]; raced {
		// Another connection won the race; keep theirs.
		h.mu.Unlock()
		session.Close()
		return nil
	}
	h.sessions[userID] = session
	h.mu.Unlock()
	return nil
}

func (h *Hub) sessionFor(client *Client) (CallSession, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[client.UserID()]
	return s, ok
}

func (h *Hub) handleCallStart(ctx context.Context, client *Client, payload json.RawMessage) {
	var p CallStartPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.sendError("invalid_payload", "Invalid call start payload")
		return
	}

	receiverID, err := uuid.Parse(p.ReceiverID)
	if err != nil {
		client.sendError("invalid_receiver", "Invalid receiver ID")
		return
	}

	session, ok := h.sessionFor(client)
	if !ok {
		client.sendError("no_session", "No call session")
		return
	}

	callID, err := session.StartCall(ctx, receiverID, p.CallType)
	if err != nil {
		client.sendError(startErrorCode(err), "Call could not be started")
		return
	}

	msg, _ := NewMessage(EventTypeCallStarted, CallStartedPayload{CallID: callID})
	client.Send(msg)
}

func startErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrCallInProgress):
		return "call_in_progress"
	case errors.Is(err, domain.ErrInvalidKind):
		return "invalid_call_type"
	case errors.Is(err, media.ErrPermissionDenied), errors.Is(err, media.ErrDeviceUnavailable):
		return "media_failed"
	default:
		return "call_failed"
	}
}

func (h *Hub) parseCallID(client *Client, payload json.RawMessage) (uuid.UUID, bool) {
	var p CallIDPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.sendError("invalid_payload", "Invalid call payload")
		return uuid.Nil, false
	}
	callID, err := uuid.Parse(p.CallID)
	if err != nil {
		client.sendError("invalid_call_id", "Invalid call ID")
		return uuid.Nil, false
	}
	return callID, true
}

func (h *Hub) handleCallAnswer(ctx context.Context, client *Client, payload json.RawMessage) {
	callID, ok := h.parseCallID(client, payload)
	if !ok {
		return
	}
	session, ok := h.sessionFor(client)
	if !ok {
		client.sendError("no_session", "No call session")
		return
	}

	if err := session.AnswerCall(ctx, callID); err != nil {
		if errors.Is(err, domain.ErrNoPendingOffer) {
			client.sendError("no_pending_offer", "No pending call to answer")
		} else {
			client.sendError("answer_failed", "Call could not be answered")
		}
	}
}

func (h *Hub) handleCallReject(ctx context.Context, client *Client, payload json.RawMessage) {
	callID, ok := h.parseCallID(client, payload)
	if !ok {
		return
	}
	session, ok := h.sessionFor(client)
	if !ok {
		client.sendError("no_session", "No call session")
		return
	}

	if err := session.RejectCall(ctx, callID); err != nil {
		client.sendError("no_pending_offer", "No pending call to reject")
	}
}

func (h *Hub) handleCallEnd(ctx context.Context, client *Client) {
	session, ok := h.sessionFor(client)
	if !ok {
		client.sendError("no_session", "No call session")
		return
	}
	if err := session.EndCall(ctx); err != nil {
		h.logger.Warn("end call failed", "user_id", client.UserID(), "error", err)
	}
}

func (h *Hub) handleToggle(client *Client, kind media.TrackKind) {
	session, ok := h.sessionFor(client)
	if !ok {
		client.sendError("no_session", "No call session")
		return
	}

	var enabled bool
	if kind == media.TrackKindAudio {
		enabled = session.ToggleAudio()
	} else {
		enabled = session.ToggleVideo()
	}

	msg, _ := NewMessage(EventTypeToggled, ToggledPayload{Track: string(kind), Enabled: enabled})
	client.Send(msg)
}

// BroadcastToUser sends to all connections of a specific user
func (h *Hub) BroadcastToUser(userID uuid.UUID, eventType string, payload interface{}) {
	h.mu.RLock()
	userClients, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(userClients))
	for client := range userClients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	msg, err := NewMessage(eventType, payload)
	if err != nil {
		return
	}

	for _, client := range clients {
		client.Send(msg)
	}
}

// IsUserOnline checks if a user has any active connections
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}
