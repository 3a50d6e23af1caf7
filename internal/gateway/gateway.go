// Package gateway implements the Media Gateway: it accepts inbound media
// WebSocket connections from the telephony provider, creates a Call Session
// per connection, dispatches framed messages to it, and serializes outbound
// frames back. Grounded on the reference codebase's HandleTwilioWS
// upgrade/dispatch shape, generalized away from Twilio-specific framing.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/adhryush/voice-gateway/internal/apperrors"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/providers/llm"
	"github.com/adhryush/voice-gateway/internal/providers/stt"
	"github.com/adhryush/voice-gateway/internal/providers/tts"
	"github.com/adhryush/voice-gateway/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The telephony provider's media WebSocket does not send a
		// browser-style Origin header worth validating here; access
		// control for this endpoint is expected at the network layer.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Gateway owns the process-wide session registry and the concrete provider
// adapters wired into every new Call Session.
type Gateway struct {
	cfg *config.Config

	sttClient *stt.Client
	llmClient *llm.Client
	ttsClient *tts.Client

	registry *Registry
}

// Registry is the process-wide thread-safe map of live sessions keyed by
// connection_id, consulted by the admin RPC surface and the graceful
// shutdown drain.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session.Session)}
}

func (r *Registry) register(id string, s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
}

func (r *Registry) unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the session for connection_id, or nil if not found.
func (r *Registry) Get(id string) *session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// SessionInfo is the per-session summary the admin RPC surface exposes.
type SessionInfo struct {
	ConnectionID    string
	CallID          string
	CurrentLanguage string
	Status          session.Status
	StartedAt       time.Time
}

// List returns a snapshot of all live sessions.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for id, s := range r.sessions {
		status, lang, startedAt := s.Status()
		out = append(out, SessionInfo{
			ConnectionID:    id,
			CallID:          s.CallID(),
			CurrentLanguage: lang,
			Status:          status,
			StartedAt:       startedAt,
		})
	}
	return out
}

// ForceDisconnect drives the same Ending transition the silence watchdog
// uses for connection_id. Returns false if no such session is live.
func (r *Registry) ForceDisconnect(connectionID string) bool {
	s := r.Get(connectionID)
	if s == nil {
		return false
	}
	go s.Disconnect("disconnected by admin request")
	return true
}

// Drain force-disconnects every live session, used by graceful shutdown.
// It does not wait for completion; callers bound the wait with their own
// shutdown grace context.
func (r *Registry) Drain() {
	r.mu.RLock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		go s.Disconnect("server shutting down")
	}
}

// New creates a Gateway wired to the shared provider adapters.
func New(cfg *config.Config, sttC *stt.Client, llmC *llm.Client, ttsC *tts.Client) *Gateway {
	return &Gateway{
		cfg:       cfg,
		sttClient: sttC,
		llmClient: llmC,
		ttsClient: ttsC,
		registry:  NewRegistry(),
	}
}

// Registry exposes the gateway's session registry, e.g. for the admin RPC
// server and main's shutdown sequence.
func (g *Gateway) Registry() *Registry { return g.registry }

// Handler returns the /media-stream HTTP handler.
func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "failed to upgrade to websocket", http.StatusBadRequest)
			return
		}

		connectionID := uuid.NewString()
		sender := &wsSender{conn: conn}

		sess := session.New(connectionID, g.cfg, g.sttClient, g.llmClient, g.ttsClient, sender)
		g.registry.register(connectionID, sess)
		sess.Start(r.Context())

		g.runInboundLoop(connectionID, conn, sess)
	}
}

func (g *Gateway) runInboundLoop(connectionID string, conn *websocket.Conn, sess *session.Session) {
	defer func() {
		g.registry.unregister(connectionID)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			sess.HandleFatal(&apperrors.Fatal{Reason: "websocket read error", Cause: err})
			return
		}

		if err := sess.HandleFrame(message); err != nil {
			// ProtocolError: logged by HandleFrame already, session
			// continues per §7 — a malformed frame never tears
			// down the call.
			continue
		}
	}
}

// wsSender implements session.Sender over a gorilla/websocket connection.
// gorilla's Conn does not allow concurrent writers, and the watchdog
// goroutine and the inbound-frame call path can both push outbound frames,
// so every write is serialized behind writeMu.
type wsSender struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *wsSender) Send(frame session.OutboundFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSender) Close(code int, reason string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	deadline := time.Now().Add(2 * time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	return s.conn.Close()
}
