package models

import "fmt"

// EntityType distinguishes the two kinds of identities the platform knows:
// individual users and organizations.
type EntityType string

const (
	EntityUser EntityType = "user"
	EntityOrg  EntityType = "org"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	return t == EntityUser || t == EntityOrg
}

// Entity identifies a user or organization by id and type. It is the shape
// the session collaborator hands back and the shape the message store keys
// senders and recipients by.
type Entity struct {
	ID   int64      `json:"id"`
	Type EntityType `json:"type"`
}

func (e Entity) String() string {
	return fmt.Sprintf("%s:%d", e.Type, e.ID)
}
