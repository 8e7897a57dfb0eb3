package store

import (
	"context"
	"errors"
	"time"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// ErrEmptyContent is returned by SaveMessage when the content is empty or
// whitespace-only after trimming.
var ErrEmptyContent = errors.New("content must be a non-empty string")

// MessageStore is the durable side of the messaging core.
type MessageStore interface {
	// SaveMessage persists one message. The store assigns the message id and
	// the timestamp; both are set on the returned Message.
	SaveMessage(ctx context.Context, sender, recipient models.Entity, content string) (*models.Message, error)

	// GetConversation returns messages exchanged between a and b in either
	// direction: the most recent `limit` rows, ordered ascending by timestamp.
	GetConversation(ctx context.Context, a, b models.Entity, limit int) ([]models.Message, error)

	// GetGroupConversation returns messages addressed to the organization's
	// group chat, same limit and ordering semantics as GetConversation.
	GetGroupConversation(ctx context.Context, orgID int64, limit int) ([]models.Message, error)

	// MarkAsRead flags every currently-unread message from sender to recipient
	// as read and returns the number of rows affected.
	MarkAsRead(ctx context.Context, recipient, sender models.Entity) (int64, error)

	// CountMessages returns the total number of persisted messages.
	CountMessages(ctx context.Context) (int64, error)
}

// MembershipProvider is the narrow read interface onto the platform's
// organization membership data. The room manager snapshots it at connect time;
// the message router re-queries it on every group send.
type MembershipProvider interface {
	OrganizationsOf(ctx context.Context, userID int64) ([]int64, error)
	IsMember(ctx context.Context, userID, orgID int64) (bool, error)
}

// SessionStore resolves an opaque session token to the identity that was
// authenticated when the session was created. Sessions are owned by the
// platform's identity service; this service only reads them.
type SessionStore interface {
	ResolveSession(ctx context.Context, token string) (models.Entity, error)
	CreateSession(ctx context.Context, identity models.Entity, ttl time.Duration) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// ErrSessionNotFound is returned when a token resolves to no live session.
var ErrSessionNotFound = errors.New("session not found")

// DataStore is the full persistence surface the server wires up.
// Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	Close()
	Ping(ctx context.Context) error

	MessageStore
	MembershipProvider
}
