package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"hrassist-backend/internal/models"
	"hrassist-backend/internal/store"
)

// Compile-time check to ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)

// SQLiteStore persists conversations in an embedded sqlite database. It is
// the synchronous local tier: callers treat write failures as best-effort and
// read failures as "no data".
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the chat database under dataDir and migrates the
// schema.
func New(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chat.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		scope TEXT NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		messages_json TEXT NOT NULL,
		PRIMARY KEY (scope, id)
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_scope_updated
		ON conversations(scope, updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveScope upserts the given conversations under scope in one transaction.
// Rows absent from the slice are left untouched.
func (s *SQLiteStore) SaveScope(ctx context.Context, scope string, conversations []models.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback()

	for _, conv := range conversations {
		messagesJSON, err := json.Marshal(conv.Messages)
		if err != nil {
			log.Printf("WARN [SQLiteStore] SaveScope: skipping conversation %s, marshal failed: %v", conv.ID, err)
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversations (scope, id, title, created_at, updated_at, messages_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(scope, id) DO UPDATE SET
				title = excluded.title,
				updated_at = excluded.updated_at,
				messages_json = excluded.messages_json
		`, scope, conv.ID.String(), conv.Title, conv.CreatedAt, conv.UpdatedAt, string(messagesJSON))
		if err != nil {
			return fmt.Errorf("upsert conversation %s: %w", conv.ID, err)
		}
	}

	return tx.Commit()
}

// LoadScope returns every conversation stored for scope, most recently
// updated first. Rows whose message payload no longer parses are skipped with
// a warning rather than failing the whole load.
func (s *SQLiteStore) LoadScope(ctx context.Context, scope string) ([]models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at, messages_json
		FROM conversations
		WHERE scope = ?
		ORDER BY updated_at DESC
	`, scope)
	if err != nil {
		return nil, fmt.Errorf("query conversations for scope %s: %w", scope, err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		var idStr, messagesJSON string
		if err := rows.Scan(&idStr, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt, &messagesJSON); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			log.Printf("WARN [SQLiteStore] LoadScope: skipping row with bad id %q: %v", idStr, err)
			continue
		}
		conv.ID = id
		conv.Scope = scope
		if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
			log.Printf("WARN [SQLiteStore] LoadScope: skipping conversation %s, corrupt messages: %v", idStr, err)
			continue
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}

	return conversations, nil
}
