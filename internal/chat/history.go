package chat

import (
	"context"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/metrics"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

// History limits. Callers typically hydrate a chat view once at open with
// 10-50 messages; the loader clamps whatever it is handed.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// HistoryLoader is the read side of the messaging core: bounded, ordered
// retrieval of past messages for a 1:1 pair or a group. No caching; every
// call re-queries the store. The contract to callers is always ascending by
// timestamp, oldest first, ready for direct rendering into a scrolling view.
type HistoryLoader struct {
	messages store.MessageStore
}

// NewHistoryLoader creates a history loader over the message store.
func NewHistoryLoader(messages store.MessageStore) *HistoryLoader {
	return &HistoryLoader{messages: messages}
}

// Conversation returns the most recent messages exchanged between a and b,
// regardless of direction, ascending by timestamp.
func (l *HistoryLoader) Conversation(ctx context.Context, a, b models.Entity, limit int) ([]models.Message, error) {
	metrics.HistoryQueries.WithLabelValues("private").Inc()
	msgs, err := l.messages.GetConversation(ctx, a, b, clampLimit(limit))
	if err != nil {
		return nil, &PersistenceError{Op: "load conversation", Err: err}
	}
	return msgs, nil
}

// GroupConversation returns the most recent messages in an organization's
// group chat, ascending by timestamp.
func (l *HistoryLoader) GroupConversation(ctx context.Context, orgID int64, limit int) ([]models.Message, error) {
	metrics.HistoryQueries.WithLabelValues("group").Inc()
	msgs, err := l.messages.GetGroupConversation(ctx, orgID, clampLimit(limit))
	if err != nil {
		return nil, &PersistenceError{Op: "load group conversation", Err: err}
	}
	return msgs, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
