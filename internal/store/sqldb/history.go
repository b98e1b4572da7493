package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// HistoryStore implements store.HistoryStore on database/sql.
type HistoryStore struct {
	db *DB
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Insertion order is tracked with an app-assigned position column so the same
// DDL works on both Postgres and SQLite.
const insertHistory = `INSERT INTO history_messages (id, character_id, pos, role, content, created_at)
	 VALUES (?, ?, (SELECT COALESCE(MAX(pos), 0) + 1 FROM history_messages WHERE character_id = ?), ?, ?, ?)`

func (s *HistoryStore) Append(ctx context.Context, m store.HistoryMessage) error {
	_, err := s.db.ExecContext(ctx, s.db.rebind(insertHistory),
		uuid.NewString(), m.CharacterID, m.CharacterID, m.Role, m.Content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append history message: %w", err)
	}
	return nil
}

func (s *HistoryStore) List(ctx context.Context, characterID string) ([]store.HistoryMessage, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(
		`SELECT character_id, pos, role, content, created_at
		 FROM history_messages WHERE character_id = ? ORDER BY pos`), characterID)
	if err != nil {
		return nil, fmt.Errorf("list history messages: %w", err)
	}
	defer rows.Close()

	var result []store.HistoryMessage
	for rows.Next() {
		var m store.HistoryMessage
		if err := rows.Scan(&m.CharacterID, &m.Pos, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *HistoryStore) Reset(ctx context.Context, characterID, greeting string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`DELETE FROM history_messages WHERE character_id = ?`), characterID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.db.rebind(insertHistory),
		uuid.NewString(), characterID, characterID, "assistant", greeting, time.Now().UTC()); err != nil {
		return fmt.Errorf("seed greeting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history reset: %w", err)
	}
	return nil
}
