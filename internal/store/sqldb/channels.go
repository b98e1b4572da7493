package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// ChannelStore implements store.ChannelStore on database/sql.
type ChannelStore struct {
	db *DB
}

func NewChannelStore(db *DB) *ChannelStore {
	return &ChannelStore{db: db}
}

func (s *ChannelStore) FindOrCreate(ctx context.Context, channelID, guildID string) (*store.Channel, error) {
	ch, err := s.Get(ctx, channelID)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.rebind(
		`INSERT INTO channels (id, guild_id, random_reply_chance, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		channelID, guildID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	return s.Get(ctx, channelID)
}

func (s *ChannelStore) Get(ctx context.Context, channelID string) (*store.Channel, error) {
	var ch store.Channel
	err := s.db.QueryRowContext(ctx, s.db.rebind(
		`SELECT id, guild_id, random_reply_chance, created_at, updated_at
		 FROM channels WHERE id = ?`), channelID,
	).Scan(&ch.ID, &ch.GuildID, &ch.RandomReplyChance, &ch.CreatedAt, &ch.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	return &ch, nil
}

func (s *ChannelStore) SetRandomReplyChance(ctx context.Context, channelID string, chance float64) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`UPDATE channels SET random_reply_chance = ?, updated_at = ? WHERE id = ?`),
		chance, time.Now().UTC(), channelID,
	)
	if err != nil {
		return fmt.Errorf("set random reply chance: %w", err)
	}
	return requireRow(res)
}
