package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/chat"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/metrics"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

const errorEvent = chat.EventErrorMessage

func errorPayload(text string) chat.ErrorEvent {
	return chat.ErrorEvent{Message: text}
}

// Handler upgrades GET /ws requests and runs the connection lifecycle:
// resolve identity, register, subscribe rooms, dispatch send events, and tear
// everything down on disconnect.
type Handler struct {
	upgrader websocket.Upgrader
	sessions store.SessionStore
	registry *chat.Registry
	rooms    *chat.RoomManager
	router   *chat.Router
	logger   zerolog.Logger

	maxMessageSize int64
}

// NewHandler creates the WebSocket handler. allowedOrigins restricts which
// browser origins may connect; an empty list allows same-host requests only.
func NewHandler(sessions store.SessionStore, registry *chat.Registry, rooms *chat.RoomManager, router *chat.Router, allowedOrigins []string, maxMessageSize int64, logger zerolog.Logger) *Handler {
	if maxMessageSize <= 0 {
		maxMessageSize = 8 * 1024
	}
	h := &Handler{
		sessions:       sessions,
		registry:       registry,
		rooms:          rooms,
		router:         router,
		logger:         logger,
		maxMessageSize: maxMessageSize,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// ServeHTTP handles the connect event. Identity is resolved from the session
// collaborator before any registration; connections without a resolvable
// identity stay open but are denied all messaging operations until they
// reconnect with one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, authenticated := h.resolveIdentity(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	client := newClient(connID, conn, h.maxMessageSize, h.logger)

	metrics.ConnectionsActive.Inc()
	defer func() {
		// Disconnect: drop room membership and the registry entry. Unregister
		// and Unsubscribe are both idempotent, so the unauthenticated path is
		// harmless here.
		h.rooms.Unsubscribe(connID)
		h.registry.Unregister(connID)
		metrics.ConnectionsActive.Dec()
		conn.Close()
	}()

	if authenticated {
		h.registry.Register(connID, identity)
		h.rooms.SubscribePersonal(client, identity.ID)

		// Org rooms are joined from a fresh membership snapshot; changes made
		// after this point take effect on the next reconnect. Organizations
		// themselves have no memberships to subscribe.
		if identity.Type == models.EntityUser {
			if err := h.rooms.SubscribeOrgRooms(r.Context(), client, identity.ID); err != nil {
				h.logger.Error().Err(err).Str("conn_id", connID).Msg("org room subscription failed")
			}
		}

		h.logger.Info().
			Str("conn_id", connID).
			Str("identity", identity.String()).
			Msg("connection registered")
	} else {
		h.logger.Info().Str("conn_id", connID).Msg("unauthenticated connection; not registered")
	}

	go client.writePump()

	client.readPump(func(env Envelope) {
		h.handleEvent(r, client, env)
	})
}

// handleEvent dispatches one inbound envelope. Every failure results in
// exactly one error_message back to this connection and nothing else.
func (h *Handler) handleEvent(r *http.Request, client *Client, env Envelope) {
	switch env.Event {
	case EventPrivateMessage:
		var req SendRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			client.Send(errorEvent, errorPayload("Missing required fields."))
			return
		}
		if _, err := h.router.SendPrivate(r.Context(), client.ID(), req.RecipientID, req.Content); err != nil {
			client.Send(errorEvent, errorPayload(clientText(err)))
		}

	case EventGroupMessage:
		var req SendRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			client.Send(errorEvent, errorPayload("Missing required fields."))
			return
		}
		if _, err := h.router.SendGroup(r.Context(), client.ID(), req.RecipientID, req.Content); err != nil {
			client.Send(errorEvent, errorPayload(clientText(err)))
		}

	default:
		client.Send(errorEvent, errorPayload("Unknown event."))
	}
}

// resolveIdentity asks the session collaborator who owns this request. The
// token is taken from the Authorization header, the session cookie, or the
// token query parameter, in that order.
func (h *Handler) resolveIdentity(r *http.Request) (models.Entity, bool) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie("session"); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return models.Entity{}, false
	}

	identity, err := h.sessions.ResolveSession(r.Context(), token)
	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			h.logger.Error().Err(err).Msg("session resolution failed")
		}
		return models.Entity{}, false
	}
	if !identity.Type.Valid() {
		return models.Entity{}, false
	}
	return identity, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func clientText(err error) string {
	var ce chat.ClientError
	if errors.As(err, &ce) {
		return ce.ClientText()
	}
	return "Internal error."
}

// originChecker builds the upgrade origin check. Non-browser clients send no
// Origin header and are always allowed.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowedSet := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		allowedSet[strings.TrimSuffix(o, "/")] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowedSet[strings.TrimSuffix(origin, "/")] {
			return true
		}
		// Fall back to same-host when no allow-list is configured.
		if len(allowedSet) == 0 {
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return u.Host == r.Host
		}
		return false
	}
}
