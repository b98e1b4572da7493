package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// GuildStore implements store.GuildStore on database/sql.
type GuildStore struct {
	db *DB
}

func NewGuildStore(db *DB) *GuildStore {
	return &GuildStore{db: db}
}

const guildColumns = `id, messages_format, jailbreak_prompt,
	cai_token, cai_plus_mode, aisekai_auth_token, aisekai_refresh_token,
	openai_token, openai_model, openai_endpoint,
	koboldai_endpoint, horde_token, horde_model,
	created_at, updated_at`

func (s *GuildStore) FindOrCreate(ctx context.Context, guildID string) (*store.Guild, error) {
	g, err := s.Get(ctx, guildID)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.rebind(
		`INSERT INTO guilds (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		guildID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert guild: %w", err)
	}
	return s.Get(ctx, guildID)
}

func (s *GuildStore) Get(ctx context.Context, guildID string) (*store.Guild, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(
		`SELECT `+guildColumns+` FROM guilds WHERE id = ?`), guildID)
	return scanGuild(row)
}

func (s *GuildStore) Update(ctx context.Context, g *store.Guild) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`UPDATE guilds SET
			messages_format = ?, jailbreak_prompt = ?,
			cai_token = ?, cai_plus_mode = ?,
			aisekai_auth_token = ?, aisekai_refresh_token = ?,
			openai_token = ?, openai_model = ?, openai_endpoint = ?,
			koboldai_endpoint = ?, horde_token = ?, horde_model = ?,
			updated_at = ?
		 WHERE id = ?`),
		g.MessagesFormat, g.JailbreakPrompt,
		g.CAIToken, g.CAIPlusMode,
		g.AisekaiAuthToken, g.AisekaiRefreshToken,
		g.OpenAIToken, g.OpenAIModel, g.OpenAIEndpoint,
		g.KoboldAIEndpoint, g.HordeToken, g.HordeModel,
		g.UpdatedAt, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update guild: %w", err)
	}
	return requireRow(res)
}

func (s *GuildStore) SetAisekaiTokens(ctx context.Context, guildID, authToken, refreshToken string) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`UPDATE guilds SET aisekai_auth_token = ?, aisekai_refresh_token = ?, updated_at = ?
		 WHERE id = ?`),
		authToken, refreshToken, time.Now().UTC(), guildID,
	)
	if err != nil {
		return fmt.Errorf("update aisekai tokens: %w", err)
	}
	return requireRow(res)
}

func (s *GuildStore) ListBlockedUsers(ctx context.Context, guildID string) ([]store.BlockedUser, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(
		`SELECT guild_id, user_id, from_at, hours FROM blocked_users WHERE guild_id = ?`), guildID)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	defer rows.Close()

	var result []store.BlockedUser
	for rows.Next() {
		var b store.BlockedUser
		if err := rows.Scan(&b.GuildID, &b.UserID, &b.From, &b.Hours); err != nil {
			return nil, fmt.Errorf("scan blocked user: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *GuildStore) BlockUser(ctx context.Context, b store.BlockedUser) error {
	// One active block per (guild, user): a re-block replaces the old entry.
	_, err := s.db.ExecContext(ctx, s.db.rebind(
		`INSERT INTO blocked_users (id, guild_id, user_id, from_at, hours)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (guild_id, user_id) DO UPDATE SET from_at = excluded.from_at, hours = excluded.hours`),
		uuid.NewString(), b.GuildID, b.UserID, b.From, b.Hours,
	)
	if err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

func (s *GuildStore) UnblockUser(ctx context.Context, guildID, userID string) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`DELETE FROM blocked_users WHERE guild_id = ? AND user_id = ?`), guildID, userID)
	if err != nil {
		return fmt.Errorf("unblock user: %w", err)
	}
	return requireRow(res)
}

func scanGuild(row *sql.Row) (*store.Guild, error) {
	var g store.Guild
	err := row.Scan(
		&g.ID, &g.MessagesFormat, &g.JailbreakPrompt,
		&g.CAIToken, &g.CAIPlusMode, &g.AisekaiAuthToken, &g.AisekaiRefreshToken,
		&g.OpenAIToken, &g.OpenAIModel, &g.OpenAIEndpoint,
		&g.KoboldAIEndpoint, &g.HordeToken, &g.HordeModel,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan guild: %w", err)
	}
	return &g, nil
}

// requireRow maps zero affected rows to store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
