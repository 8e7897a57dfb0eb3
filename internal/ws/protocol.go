// Package ws is the realtime transport: it upgrades HTTP connections to
// WebSocket, resolves the session identity, wires the connection into the
// chat core, and speaks a small JSON event protocol.
package ws

import "encoding/json"

// Client-to-server event names.
const (
	EventPrivateMessage = "private_message"
	EventGroupMessage   = "group_message"
)

// Envelope frames every message on the wire in both directions:
// {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendRequest is the inbound payload for private_message and group_message.
// For group sends recipient_id carries the organization id.
type SendRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
}
