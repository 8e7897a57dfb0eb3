package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/metrics"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

// Router validates incoming send requests, persists them, and fans the result
// out to the right room. Persistence and broadcast are one unit of work from
// the caller's point of view: if the save fails, no broadcast happens.
//
// Every returned error implements ClientError; the transport unicasts its
// ClientText back to the originating connection and nothing else.
type Router struct {
	registry   *Registry
	rooms      *RoomManager
	messages   store.MessageStore
	membership store.MembershipProvider
	logger     zerolog.Logger
}

// NewRouter creates a message router.
func NewRouter(registry *Registry, rooms *RoomManager, messages store.MessageStore, membership store.MembershipProvider, logger zerolog.Logger) *Router {
	return &Router{
		registry:   registry,
		rooms:      rooms,
		messages:   messages,
		membership: membership,
		logger:     logger,
	}
}

// SendPrivate handles a private_message request from connID. On success the
// persisted message is broadcast as new_message to the recipient's personal
// room only: the sender's own connections are not included, matching the
// client's optimistic rendering of its outgoing messages.
func (r *Router) SendPrivate(ctx context.Context, connID string, recipientID int64, content string) (*models.Message, error) {
	sender, ok := r.registry.Lookup(connID)
	if !ok {
		metrics.SendErrors.WithLabelValues("authentication").Inc()
		return nil, &AuthenticationError{ConnID: connID}
	}

	// An absent recipient id decodes to zero and counts as a missing field;
	// only a present-but-unusable id is an invalid recipient.
	if recipientID == 0 || strings.TrimSpace(content) == "" {
		metrics.SendErrors.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: "Missing required fields."}
	}
	if recipientID < 0 {
		metrics.SendErrors.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: "Invalid recipient ID."}
	}

	recipient := models.Entity{ID: recipientID, Type: models.EntityUser}
	msg, err := r.messages.SaveMessage(ctx, sender, recipient, content)
	if err != nil {
		if errors.Is(err, store.ErrEmptyContent) {
			metrics.SendErrors.WithLabelValues("validation").Inc()
			return nil, &ValidationError{Reason: "Missing required fields."}
		}
		metrics.SendErrors.WithLabelValues("persistence").Inc()
		r.logger.Error().Err(err).Str("conn_id", connID).Msg("failed to save private message")
		return nil, &PersistenceError{Op: "save private message", Err: err}
	}

	delivered := r.rooms.Broadcast(PersonalRoom(recipientID), EventNewMessage, NewMessageEvent(msg))
	metrics.MessagesSent.WithLabelValues("private").Inc()

	r.logger.Info().
		Int64("message_id", msg.ID).
		Str("sender", sender.String()).
		Int64("recipient_id", recipientID).
		Int("delivered", delivered).
		Msg("private message sent")
	return msg, nil
}

// SendGroup handles a group_message request from connID. Membership is
// re-queried on every send, not read from the connect-time snapshot. On
// success the message is broadcast as new_group_message to the org room,
// which includes the sender's own connection since the sender is itself a
// subscribed member.
func (r *Router) SendGroup(ctx context.Context, connID string, orgID int64, content string) (*models.Message, error) {
	sender, ok := r.registry.Lookup(connID)
	if !ok {
		metrics.SendErrors.WithLabelValues("authentication").Inc()
		return nil, &AuthenticationError{ConnID: connID}
	}

	if orgID == 0 || strings.TrimSpace(content) == "" {
		metrics.SendErrors.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: "Missing required fields."}
	}
	if orgID < 0 {
		metrics.SendErrors.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: "Invalid organization ID."}
	}

	member, err := r.membership.IsMember(ctx, sender.ID, orgID)
	if err != nil {
		metrics.SendErrors.WithLabelValues("persistence").Inc()
		r.logger.Error().Err(err).Str("conn_id", connID).Int64("org_id", orgID).Msg("membership check failed")
		return nil, &PersistenceError{Op: "membership check", Err: err}
	}
	if !member {
		metrics.SendErrors.WithLabelValues("authorization").Inc()
		return nil, &AuthorizationError{UserID: sender.ID, OrgID: orgID}
	}

	recipient := models.Entity{ID: orgID, Type: models.EntityOrg}
	msg, err := r.messages.SaveMessage(ctx, sender, recipient, content)
	if err != nil {
		if errors.Is(err, store.ErrEmptyContent) {
			metrics.SendErrors.WithLabelValues("validation").Inc()
			return nil, &ValidationError{Reason: "Missing required fields."}
		}
		metrics.SendErrors.WithLabelValues("persistence").Inc()
		r.logger.Error().Err(err).Str("conn_id", connID).Int64("org_id", orgID).Msg("failed to save group message")
		return nil, &PersistenceError{Op: "save group message", Err: err}
	}

	delivered := r.rooms.Broadcast(OrgRoom(orgID), EventNewGroupMessage, NewMessageEvent(msg))
	metrics.MessagesSent.WithLabelValues("group").Inc()

	r.logger.Info().
		Int64("message_id", msg.ID).
		Str("sender", sender.String()).
		Int64("org_id", orgID).
		Int("delivered", delivered).
		Msg("group message sent")
	return msg, nil
}
