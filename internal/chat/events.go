package chat

import (
	"time"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// Server-to-client event names.
const (
	EventNewMessage      = "new_message"
	EventNewGroupMessage = "new_group_message"
	EventErrorMessage    = "error_message"
)

// MessageEvent is the payload broadcast for both new_message and
// new_group_message.
type MessageEvent struct {
	SenderID      int64             `json:"sender_id"`
	SenderType    models.EntityType `json:"sender_type"`
	RecipientID   int64             `json:"recipient_id"`
	RecipientType models.EntityType `json:"recipient_type"`
	Content       string            `json:"content"`
	Timestamp     time.Time         `json:"timestamp"`
	MessageID     int64             `json:"message_id"`
}

// ErrorEvent is the payload unicast to the originating connection when a send
// fails.
type ErrorEvent struct {
	Message string `json:"message"`
}

// NewMessageEvent builds the broadcast payload for a persisted message.
func NewMessageEvent(m *models.Message) MessageEvent {
	return MessageEvent{
		SenderID:      m.SenderID,
		SenderType:    m.SenderType,
		RecipientID:   m.RecipientID,
		RecipientType: m.RecipientType,
		Content:       m.Content,
		Timestamp:     m.Timestamp,
		MessageID:     m.ID,
	}
}
