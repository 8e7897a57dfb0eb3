package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunMigrations applies the messaging schema. Idempotent; safe to run at every
// boot. The org_members table belongs to the platform and is created only if
// the platform has not provisioned it yet.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL,
		sender_type TEXT NOT NULL,
		recipient_id BIGINT NOT NULL,
		recipient_type TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS org_members (
		org_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		join_date TIMESTAMPTZ DEFAULT NOW(),
		PRIMARY KEY (org_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair
		ON messages(sender_id, sender_type, recipient_id, recipient_type, timestamp);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient
		ON messages(recipient_type, recipient_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_org_members_user ON org_members(user_id);
	`

	_, err = conn.Exec(ctx, schema)
	return err
}

// SaveMessage persists one message and returns it with the assigned id and
// timestamp.
func (s *PostgresStore) SaveMessage(ctx context.Context, sender, recipient models.Entity, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	now := time.Now().UTC()
	msg := &models.Message{
		SenderID:      sender.ID,
		SenderType:    sender.Type,
		RecipientID:   recipient.ID,
		RecipientType: recipient.Type,
		Content:       content,
		Timestamp:     now,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, sender_type, recipient_id, recipient_type, content, timestamp, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING message_id
	`, sender.ID, string(sender.Type), recipient.ID, string(recipient.Type), content, now).Scan(&msg.ID)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetConversation returns the most recent `limit` messages exchanged between
// a and b in either direction, ascending by timestamp.
func (s *PostgresStore) GetConversation(ctx context.Context, a, b models.Entity, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT message_id, sender_id, sender_type, recipient_id, recipient_type, content, timestamp, is_read
		FROM messages
		WHERE (sender_id = $1 AND sender_type = $2 AND recipient_id = $3 AND recipient_type = $4)
		   OR (sender_id = $3 AND sender_type = $4 AND recipient_id = $1 AND recipient_type = $2)
		ORDER BY timestamp DESC, message_id DESC
		LIMIT $5
	`, a.ID, string(a.Type), b.ID, string(b.Type), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPgMessagesReversed(rows)
}

// GetGroupConversation returns the most recent `limit` messages addressed to
// the organization's group chat, ascending by timestamp.
func (s *PostgresStore) GetGroupConversation(ctx context.Context, orgID int64, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT message_id, sender_id, sender_type, recipient_id, recipient_type, content, timestamp, is_read
		FROM messages
		WHERE recipient_type = $1 AND recipient_id = $2
		ORDER BY timestamp DESC, message_id DESC
		LIMIT $3
	`, string(models.EntityOrg), orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPgMessagesReversed(rows)
}

// MarkAsRead flags unread messages from sender to recipient as read.
func (s *PostgresStore) MarkAsRead(ctx context.Context, recipient, sender models.Entity) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE sender_id = $1 AND sender_type = $2
		  AND recipient_id = $3 AND recipient_type = $4
		  AND is_read = FALSE
	`, sender.ID, string(sender.Type), recipient.ID, string(recipient.Type))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountMessages returns the total number of persisted messages.
func (s *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// OrganizationsOf returns the ids of every organization the user belongs to.
func (s *PostgresStore) OrganizationsOf(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT org_id FROM org_members WHERE user_id = $1 ORDER BY org_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		orgs = append(orgs, id)
	}
	return orgs, rows.Err()
}

// IsMember reports whether the user currently belongs to the organization.
func (s *PostgresStore) IsMember(ctx context.Context, userID, orgID int64) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM org_members WHERE org_id = $1 AND user_id = $2
	`, orgID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanPgMessagesReversed(rows pgx.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var senderType, recipientType string
		if err := rows.Scan(&m.ID, &m.SenderID, &senderType, &m.RecipientID, &recipientType, &m.Content, &m.Timestamp, &m.IsRead); err != nil {
			return nil, err
		}
		m.SenderType = models.EntityType(senderType)
		m.RecipientType = models.EntityType(recipientType)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
