package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the default store for
// development and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/parcheverde.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/parcheverde.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist. The org_members table is
// owned by the platform's membership service; it is created here too so the
// service runs standalone in development.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		sender_type TEXT NOT NULL,
		recipient_id INTEGER NOT NULL,
		recipient_type TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS org_members (
		org_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		join_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (org_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair
		ON messages(sender_id, sender_type, recipient_id, recipient_type, timestamp);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient
		ON messages(recipient_type, recipient_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_org_members_user ON org_members(user_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage persists one message and returns it with the assigned id and
// timestamp.
func (s *SQLiteStore) SaveMessage(ctx context.Context, sender, recipient models.Entity, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (sender_id, sender_type, recipient_id, recipient_type, content, timestamp, is_read)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, sender.ID, string(sender.Type), recipient.ID, string(recipient.Type), content, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Message{
		ID:            id,
		SenderID:      sender.ID,
		SenderType:    sender.Type,
		RecipientID:   recipient.ID,
		RecipientType: recipient.Type,
		Content:       content,
		Timestamp:     now,
	}, nil
}

// GetConversation returns the most recent `limit` messages exchanged between
// a and b in either direction, ascending by timestamp. The query fetches
// newest-first and the result is reversed before returning.
func (s *SQLiteStore) GetConversation(ctx context.Context, a, b models.Entity, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, sender_id, sender_type, recipient_id, recipient_type, content, timestamp, is_read
		FROM messages
		WHERE (sender_id = ? AND sender_type = ? AND recipient_id = ? AND recipient_type = ?)
		   OR (sender_id = ? AND sender_type = ? AND recipient_id = ? AND recipient_type = ?)
		ORDER BY timestamp DESC, message_id DESC
		LIMIT ?
	`, a.ID, string(a.Type), b.ID, string(b.Type),
		b.ID, string(b.Type), a.ID, string(a.Type),
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesReversed(rows)
}

// GetGroupConversation returns the most recent `limit` messages addressed to
// the organization's group chat, ascending by timestamp.
func (s *SQLiteStore) GetGroupConversation(ctx context.Context, orgID int64, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, sender_id, sender_type, recipient_id, recipient_type, content, timestamp, is_read
		FROM messages
		WHERE recipient_type = ? AND recipient_id = ?
		ORDER BY timestamp DESC, message_id DESC
		LIMIT ?
	`, string(models.EntityOrg), orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesReversed(rows)
}

// MarkAsRead flags unread messages from sender to recipient as read.
func (s *SQLiteStore) MarkAsRead(ctx context.Context, recipient, sender models.Entity) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET is_read = 1
		WHERE sender_id = ? AND sender_type = ?
		  AND recipient_id = ? AND recipient_type = ?
		  AND is_read = 0
	`, sender.ID, string(sender.Type), recipient.ID, string(recipient.Type))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountMessages returns the total number of persisted messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// OrganizationsOf returns the ids of every organization the user belongs to.
func (s *SQLiteStore) OrganizationsOf(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT org_id FROM org_members WHERE user_id = ? ORDER BY org_id
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
func (s *SQLiteStore) IsMember(ctx context.Context, userID, orgID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM org_members WHERE org_id = ? AND user_id = ?
	`, orgID, userID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddMember inserts a membership row. Used by development seeding and tests;
// production membership is written by the platform, not this service.
func (s *SQLiteStore) AddMember(ctx context.Context, orgID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO org_members (org_id, user_id) VALUES (?, ?)
	`, orgID, userID)
	return err
}

// scanMessagesReversed drains rows (fetched newest-first) and returns them
// oldest-first.
func scanMessagesReversed(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var senderType, recipientType string
		var isRead int
		if err := rows.Scan(&m.ID, &m.SenderID, &senderType, &m.RecipientID, &recipientType, &m.Content, &m.Timestamp, &isRead); err != nil {
			return nil, err
		}
		m.SenderType = models.EntityType(senderType)
		m.RecipientType = models.EntityType(recipientType)
		m.IsRead = isRead == 1
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
