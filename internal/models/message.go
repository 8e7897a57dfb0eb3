package models

import "time"

// Message is a persisted chat message. A row with an org recipient represents
// a broadcast to that organization's group room, never one row per member.
type Message struct {
	ID            int64      `json:"message_id"`
	SenderID      int64      `json:"sender_id"`
	SenderType    EntityType `json:"sender_type"`
	RecipientID   int64      `json:"recipient_id"`
	RecipientType EntityType `json:"recipient_type"`
	Content       string     `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
	IsRead        bool       `json:"is_read"`
}

// Sender returns the sending entity.
func (m *Message) Sender() Entity {
	return Entity{ID: m.SenderID, Type: m.SenderType}
}

// Recipient returns the receiving entity.
func (m *Message) Recipient() Entity {
	return Entity{ID: m.RecipientID, Type: m.RecipientType}
}
