package models

import "testing"

func TestEntityTypeValid(t *testing.T) {
	if !EntityUser.Valid() || !EntityOrg.Valid() {
		t.Fatal("known types must be valid")
	}
	for _, bad := range []EntityType{"", "admin", "User"} {
		if bad.Valid() {
			t.Fatalf("%q must not be valid", bad)
		}
	}
}

func TestEntityString(t *testing.T) {
	e := Entity{ID: 42, Type: EntityUser}
	if got := e.String(); got != "user:42" {
		t.Fatalf("expected user:42, got %q", got)
	}
}

func TestMessageSenderRecipient(t *testing.T) {
	m := Message{SenderID: 1, SenderType: EntityUser, RecipientID: 10, RecipientType: EntityOrg}
	if m.Sender() != (Entity{ID: 1, Type: EntityUser}) {
		t.Fatalf("unexpected sender %v", m.Sender())
	}
	if m.Recipient() != (Entity{ID: 10, Type: EntityOrg}) {
		t.Fatalf("unexpected recipient %v", m.Recipient())
	}
}
