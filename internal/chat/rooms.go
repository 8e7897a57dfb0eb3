package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

// Conn is the slice of a transport connection the room manager needs: a
// stable id and a non-blocking send. Send reports false when the message
// could not be queued (slow or closing connection); delivery is best-effort
// and the room manager never retries.
type Conn interface {
	ID() string
	Send(event string, payload any) bool
}

// PersonalRoom returns the room key for an identity's private deliveries.
func PersonalRoom(identityID int64) string {
	return fmt.Sprintf("personal:%d", identityID)
}

// OrgRoom returns the room key for an organization's group chat.
func OrgRoom(orgID int64) string {
	return fmt.Sprintf("org:%d", orgID)
}

// RoomManager groups live connections into rooms and fans events out to them.
// Membership is transport-level state only: subscribed at connect, dropped at
// disconnect, never persisted.
type RoomManager struct {
	mu         sync.RWMutex
	rooms      map[string]map[string]Conn // room key -> conn id -> conn
	membership store.MembershipProvider
	logger     zerolog.Logger
}

// NewRoomManager creates an empty room manager backed by the given membership
// provider.
func NewRoomManager(membership store.MembershipProvider, logger zerolog.Logger) *RoomManager {
	return &RoomManager{
		rooms:      make(map[string]map[string]Conn),
		membership: membership,
		logger:     logger,
	}
}

// SubscribePersonal joins the connection to the identity's personal room.
func (m *RoomManager) SubscribePersonal(conn Conn, identityID int64) {
	m.join(PersonalRoom(identityID), conn)
}

// SubscribeOrgRooms queries the membership provider for the organizations the
// user currently belongs to and joins the connection to each org room. The
// query is a snapshot: membership changes after this call take effect only on
// the user's next reconnect.
func (m *RoomManager) SubscribeOrgRooms(ctx context.Context, conn Conn, userID int64) error {
	orgs, err := m.membership.OrganizationsOf(ctx, userID)
	if err != nil {
		return fmt.Errorf("membership lookup for user %d: %w", userID, err)
	}

	for _, orgID := range orgs {
		m.join(OrgRoom(orgID), conn)
	}

	m.logger.Debug().
		Str("conn_id", conn.ID()).
		Int64("user_id", userID).
		Int("org_rooms", len(orgs)).
		Msg("subscribed to org rooms")
	return nil
}

// Unsubscribe removes the connection from every room it joined. Called by the
// transport on disconnect.
func (m *RoomManager) Unsubscribe(connID string) {
	m.mu.Lock()
	for key, members := range m.rooms {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(m.rooms, key)
			}
		}
	}
	m.mu.Unlock()
}

// Broadcast delivers the event to every connection currently in the room and
// returns the number of connections it was queued for. No acknowledgment, no
// retry; an empty or unknown room is a valid zero-delivery outcome.
func (m *RoomManager) Broadcast(roomKey, event string, payload any) int {
	m.mu.RLock()
	members := make([]Conn, 0, len(m.rooms[roomKey]))
	for _, conn := range m.rooms[roomKey] {
		members = append(members, conn)
	}
	m.mu.RUnlock()

	delivered := 0
	for _, conn := range members {
		if conn.Send(event, payload) {
			delivered++
		} else {
			m.logger.Warn().
				Str("conn_id", conn.ID()).
				Str("room", roomKey).
				Str("event", event).
				Msg("dropped event for slow connection")
		}
	}
	return delivered
}

// RoomSize returns the number of connections currently in the room.
func (m *RoomManager) RoomSize(roomKey string) int {
	m.mu.RLock()
	n := len(m.rooms[roomKey])
	m.mu.RUnlock()
	return n
}

func (m *RoomManager) join(roomKey string, conn Conn) {
	m.mu.Lock()
	members, ok := m.rooms[roomKey]
	if !ok {
		members = make(map[string]Conn)
		m.rooms[roomKey] = members
	}
	members[conn.ID()] = conn
	m.mu.Unlock()
}
