// Package ws implements the server side of the realtime websocket: the
// GET /v1/realtime upgrade, the read loop that decodes client events into
// the session actor, and the Transport the session writes server events
// back through.
//
// Grounded on pkg/providers/tts/lokutor.go's use of github.com/coder/
// websocket as a client; this is the same library's server-side Accept,
// the teacher's one domain dependency not yet exercised on the accepting
// side of a connection.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/session"
)

func randomID() string { return uuid.NewString() }

// Close codes (spec §6).
const (
	CloseNormal         = 1000
	CloseInvalidRequest = 4400
	CloseUnauthorized   = 4401
	CloseTimeout        = 4408
	CloseInternal       = 4500
)

// AuthFunc validates the upgrade request before the websocket handshake
// completes. Returning false rejects the connection with CloseUnauthorized
// (surfaced as HTTP 401, since the upgrade itself is refused).
type AuthFunc func(r *http.Request) bool

// Handler upgrades GET /v1/realtime to a websocket and runs one session
// per connection until the client disconnects or the server closes it.
type Handler struct {
	// Providers is called once per connection to resolve which STT/LLM/TTS
	// backends that session uses.
	Providers func(sessionID string) session.Providers
	// DefaultConfig seeds the session's configuration before any
	// session.update is received.
	DefaultConfig event.SessionConfig
	Auth          AuthFunc
	Logger        orchestrator.Logger
	IdleTimeout   time.Duration
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Auth != nil && !h.Auth(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}

	logger := h.Logger
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}

	sessionID := "sess_" + randomID()
	transport := &connTransport{conn: conn}

	var providers session.Providers
	if h.Providers != nil {
		providers = h.Providers(sessionID)
	}
	sess := session.New(sessionID, h.DefaultConfig, providers, transport, logger)
	sess.Start()
	closeCode, closeReason := CloseNormal, "connection closed"
	defer func() { sess.Close(closeCode, closeReason) }()

	idleTimeout := h.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	ctx := r.Context()
	for {
		readCtx, cancel := context.WithTimeout(ctx, idleTimeout)
		_, raw, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil && errors.Is(readCtx.Err(), context.DeadlineExceeded) {
				closeCode, closeReason = CloseTimeout, "idle timeout"
				logger.Debug("realtime connection idle timeout", "session_id", sessionID)
			} else if ctx.Err() == nil {
				logger.Debug("realtime connection closed", "session_id", sessionID, "err", err)
			}
			return
		}

		ev, decodeErr := event.Decode(raw)
		if decodeErr != nil {
			sess.Emit(event.NewError("", event.ErrInvalidRequest, decodeErr.Error()))
			continue
		}
		sess.HandleClientEvent(ctx, ev)
	}
}

// connTransport adapts a *websocket.Conn to session.Transport.
type connTransport struct {
	conn *websocket.Conn
}

func (c *connTransport) Send(ev event.ServerEvent) error {
	raw, err := event.Encode(ev)
	if err != nil {
		return err
	}
	return c.conn.Write(context.Background(), websocket.MessageText, raw)
}

func (c *connTransport) Close(code int, reason string) error {
	return c.conn.Close(websocket.StatusCode(code), reason)
}
