package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

type sentEvent struct {
	event   string
	payload any
}

// fakeConn records everything sent to it.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	events []sentEvent
	reject bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, payload any) bool {
	if c.reject {
		return false
	}
	c.mu.Lock()
	c.events = append(c.events, sentEvent{event: event, payload: payload})
	c.mu.Unlock()
	return true
}

func (c *fakeConn) received() []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentEvent, len(c.events))
	copy(out, c.events)
	return out
}

// fakeMessageStore is an in-memory MessageStore for router tests.
type fakeMessageStore struct {
	mu      sync.Mutex
	saved   []models.Message
	nextID  int64
	saveErr error
}

func (s *fakeMessageStore) SaveMessage(ctx context.Context, sender, recipient models.Entity, content string) (*models.Message, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if strings.TrimSpace(content) == "" {
		return nil, store.ErrEmptyContent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	msg := models.Message{
		ID:            s.nextID,
		SenderID:      sender.ID,
		SenderType:    sender.Type,
		RecipientID:   recipient.ID,
		RecipientType: recipient.Type,
		Content:       content,
		Timestamp:     time.Now().UTC(),
	}
	s.saved = append(s.saved, msg)
	return &msg, nil
}

func (s *fakeMessageStore) GetConversation(ctx context.Context, a, b models.Entity, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.saved {
		if (m.Sender() == a && m.Recipient() == b) || (m.Sender() == b && m.Recipient() == a) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeMessageStore) GetGroupConversation(ctx context.Context, orgID int64, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.saved {
		if m.RecipientType == models.EntityOrg && m.RecipientID == orgID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeMessageStore) MarkAsRead(ctx context.Context, recipient, sender models.Entity) (int64, error) {
	return 0, nil
}

func (s *fakeMessageStore) CountMessages(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.saved)), nil
}

func (s *fakeMessageStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// fakeMembership maps users to the organizations they belong to.
type fakeMembership struct {
	mu        sync.Mutex
	orgsOf    map[int64][]int64
	lookupErr error
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{orgsOf: make(map[int64][]int64)}
}

func (m *fakeMembership) addMember(userID, orgID int64) {
	m.mu.Lock()
	m.orgsOf[userID] = append(m.orgsOf[userID], orgID)
	m.mu.Unlock()
}

func (m *fakeMembership) removeMember(userID, orgID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orgs := m.orgsOf[userID]
	for i, id := range orgs {
		if id == orgID {
			m.orgsOf[userID] = append(orgs[:i], orgs[i+1:]...)
			return
		}
	}
}

func (m *fakeMembership) OrganizationsOf(ctx context.Context, userID int64) ([]int64, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.orgsOf[userID]...), nil
}

func (m *fakeMembership) IsMember(ctx context.Context, userID, orgID int64) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.orgsOf[userID] {
		if id == orgID {
			return true, nil
		}
	}
	return false, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
