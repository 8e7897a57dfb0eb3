package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

func seedConversation(t *testing.T, s *fakeMessageStore, n int) (models.Entity, models.Entity) {
	t.Helper()
	alice := models.Entity{ID: 1, Type: models.EntityUser}
	bob := models.Entity{ID: 2, Type: models.EntityUser}
	ctx := context.Background()
	for i := 0; i < n; i++ {
		from, to := alice, bob
		if i%2 == 1 {
			from, to = bob, alice
		}
		if _, err := s.SaveMessage(ctx, from, to, "msg"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}
	return alice, bob
}

func TestConversationAscendingOrder(t *testing.T) {
	s := &fakeMessageStore{}
	alice, bob := seedConversation(t, s, 6)
	l := NewHistoryLoader(s)

	msgs, err := l.Conversation(context.Background(), alice, bob, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Fatal("messages must be ascending by timestamp")
		}
	}
}

func TestConversationSymmetric(t *testing.T) {
	s := &fakeMessageStore{}
	alice, bob := seedConversation(t, s, 4)
	l := NewHistoryLoader(s)
	ctx := context.Background()

	ab, err := l.Conversation(ctx, alice, bob, 10)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := l.Conversation(ctx, bob, alice, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ab) != len(ba) {
		t.Fatalf("conversation must be direction-agnostic: %d vs %d", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].ID != ba[i].ID {
			t.Fatal("same conversation queried from either side must match")
		}
	}
}

func TestConversationLimitKeepsMostRecent(t *testing.T) {
	s := &fakeMessageStore{}
	alice, bob := seedConversation(t, s, 8)
	l := NewHistoryLoader(s)

	msgs, err := l.Conversation(context.Background(), alice, bob, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	// The limit keeps the newest slice, still ascending.
	if msgs[len(msgs)-1].ID != 8 {
		t.Fatalf("expected the newest message last, got id %d", msgs[len(msgs)-1].ID)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, DefaultHistoryLimit},
		{-1, DefaultHistoryLimit},
		{25, 25},
		{MaxHistoryLimit, MaxHistoryLimit},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, c := range cases {
		if got := clampLimit(c.in); got != c.want {
			t.Fatalf("clampLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestGroupConversation(t *testing.T) {
	s := &fakeMessageStore{}
	ctx := context.Background()
	alice := models.Entity{ID: 1, Type: models.EntityUser}
	org := models.Entity{ID: 10, Type: models.EntityOrg}
	for i := 0; i < 3; i++ {
		if _, err := s.SaveMessage(ctx, alice, org, "standup"); err != nil {
			t.Fatal(err)
		}
	}
	// A private message to a different recipient stays out of the group view.
	if _, err := s.SaveMessage(ctx, alice, models.Entity{ID: 2, Type: models.EntityUser}, "psst"); err != nil {
		t.Fatal(err)
	}

	l := NewHistoryLoader(s)
	msgs, err := l.GroupConversation(ctx, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 group messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.RecipientID != 10 || m.RecipientType != models.EntityOrg {
			t.Fatalf("unexpected message in group view: %+v", m)
		}
	}
}

type failingStore struct {
	fakeMessageStore
}

func (s *failingStore) GetConversation(ctx context.Context, a, b models.Entity, limit int) ([]models.Message, error) {
	return nil, errors.New("query timeout")
}

func TestConversationStoreFailure(t *testing.T) {
	l := NewHistoryLoader(&failingStore{})

	_, err := l.Conversation(context.Background(), models.Entity{ID: 1, Type: models.EntityUser}, models.Entity{ID: 2, Type: models.EntityUser}, 10)

	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
