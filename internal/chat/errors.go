// Package chat implements the realtime messaging core: the connection
// registry, room-based fan-out, the message router, and conversation history
// loading. The transport layer (internal/ws) feeds it connect, disconnect,
// and send events; the store layer persists messages and answers membership
// queries.
package chat

import "fmt"

// The router converts every failure into exactly one error_message event back
// to the originating connection. ClientText carries the user-visible string;
// the wrapped error (if any) stays server-side for logging.

// AuthenticationError means no identity could be resolved for the connection.
type AuthenticationError struct {
	ConnID string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("connection %s is not authenticated", e.ConnID)
}

// ClientText returns the message shown to the sending client.
func (e *AuthenticationError) ClientText() string {
	return "Sender not authenticated."
}

// ValidationError means the send request was malformed: a missing or invalid
// recipient id, or empty content.
type ValidationError struct {
	Reason string // client-visible
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func (e *ValidationError) ClientText() string {
	return e.Reason
}

// AuthorizationError means the sender is not currently a member of the target
// organization.
type AuthorizationError struct {
	UserID int64
	OrgID  int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not a member of organization %d", e.UserID, e.OrgID)
}

func (e *AuthorizationError) ClientText() string {
	return "User is not a member of the organization."
}

// PersistenceError wraps a store failure. The send is terminal: if persistence
// fails, no broadcast happens.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) ClientText() string {
	return "Failed to save message."
}

// ClientError is implemented by every error the router reports back to the
// sending connection.
type ClientError interface {
	error
	ClientText() string
}
