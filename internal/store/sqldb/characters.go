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

// CharacterStore implements store.CharacterStore on database/sql.
type CharacterStore struct {
	db *DB
}

func NewCharacterStore(db *DB) *CharacterStore {
	return &CharacterStore{db: db}
}

const characterColumns = `id, webhook_token, channel_id, integration_type,
	name, avatar_url, greeting, call_prefix, remote_character_id, active_history_id,
	api_token, api_model, api_endpoint, jailbreak_prompt, messages_format,
	gen_temperature, gen_max_tokens, gen_freq_penalty, gen_presence_penalty,
	references_enabled, swipes_enabled, stop_btn_enabled, crutch_enabled,
	reply_chance, response_delay, messages_sent, last_call_at,
	created_at, updated_at`

func (s *CharacterStore) Create(ctx context.Context, c *store.Character) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, s.db.rebind(
		`INSERT INTO characters (`+characterColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.WebhookToken, c.ChannelID, string(c.IntegrationType),
		c.Name, c.AvatarURL, c.Greeting, nilStr(c.CallPrefix), nilStr(c.RemoteCharacterID), c.ActiveHistoryID,
		c.APIToken, c.APIModel, c.APIEndpoint, c.JailbreakPrompt, c.MessagesFormat,
		c.Temperature, c.MaxTokens, c.FreqPenalty, c.PresencePenalty,
		c.ReferencesEnabled, c.SwipesEnabled, c.StopButtonEnabled, c.CrutchEnabled,
		c.ReplyChance, c.ResponseDelay, c.MessagesSent, c.LastCallAt,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert character: %w", err)
	}
	return nil
}

func (s *CharacterStore) Get(ctx context.Context, id string) (*store.Character, error) {
	row := s.db.QueryRowContext(ctx, s.db.rebind(
		`SELECT `+characterColumns+` FROM characters WHERE id = ?`), id)
	c, err := scanCharacter(row.Scan)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CharacterStore) Update(ctx context.Context, c *store.Character) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`UPDATE characters SET
			integration_type = ?, name = ?, avatar_url = ?, greeting = ?,
			call_prefix = ?, remote_character_id = ?, active_history_id = ?,
			api_token = ?, api_model = ?, api_endpoint = ?, jailbreak_prompt = ?, messages_format = ?,
			gen_temperature = ?, gen_max_tokens = ?, gen_freq_penalty = ?, gen_presence_penalty = ?,
			references_enabled = ?, swipes_enabled = ?, stop_btn_enabled = ?, crutch_enabled = ?,
			reply_chance = ?, response_delay = ?, messages_sent = ?, last_call_at = ?,
			updated_at = ?
		 WHERE id = ?`),
		string(c.IntegrationType), c.Name, c.AvatarURL, c.Greeting,
		nilStr(c.CallPrefix), nilStr(c.RemoteCharacterID), c.ActiveHistoryID,
		c.APIToken, c.APIModel, c.APIEndpoint, c.JailbreakPrompt, c.MessagesFormat,
		c.Temperature, c.MaxTokens, c.FreqPenalty, c.PresencePenalty,
		c.ReferencesEnabled, c.SwipesEnabled, c.StopButtonEnabled, c.CrutchEnabled,
		c.ReplyChance, c.ResponseDelay, c.MessagesSent, c.LastCallAt,
		c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	return requireRow(res)
}

func (s *CharacterStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`DELETE FROM characters WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	return requireRow(res)
}

func (s *CharacterStore) ListByChannel(ctx context.Context, channelID string) ([]*store.Character, error) {
	return s.list(ctx, s.db.rebind(
		`SELECT `+characterColumns+` FROM characters WHERE channel_id = ? ORDER BY created_at`), channelID)
}

func (s *CharacterStore) ListByGuild(ctx context.Context, guildID string) ([]*store.Character, error) {
	return s.list(ctx, s.db.rebind(
		`SELECT `+characterColumns+` FROM characters
		 WHERE channel_id IN (SELECT id FROM channels WHERE guild_id = ?)
		 ORDER BY created_at`), guildID)
}

func (s *CharacterStore) SetActiveHistoryID(ctx context.Context, id string, historyID *string) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`UPDATE characters SET active_history_id = ?, updated_at = ? WHERE id = ?`),
		historyID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set active history id: %w", err)
	}
	return requireRow(res)
}

func (s *CharacterStore) RecordCall(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`UPDATE characters SET messages_sent = messages_sent + 1, last_call_at = ?, updated_at = ? WHERE id = ?`),
		now, now, id)
	if err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	return requireRow(res)
}

func (s *CharacterStore) ListHunted(ctx context.Context, characterID string) ([]store.HuntedUser, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(
		`SELECT character_id, user_id, chance FROM hunted_users WHERE character_id = ?`), characterID)
	if err != nil {
		return nil, fmt.Errorf("list hunted users: %w", err)
	}
	defer rows.Close()

	var result []store.HuntedUser
	for rows.Next() {
		var h store.HuntedUser
		if err := rows.Scan(&h.CharacterID, &h.UserID, &h.Chance); err != nil {
			return nil, fmt.Errorf("scan hunted user: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (s *CharacterStore) AddHunted(ctx context.Context, h store.HuntedUser) error {
	_, err := s.db.ExecContext(ctx, s.db.rebind(
		`INSERT INTO hunted_users (id, character_id, user_id, chance)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (character_id, user_id) DO UPDATE SET chance = excluded.chance`),
		uuid.NewString(), h.CharacterID, h.UserID, h.Chance,
	)
	if err != nil {
		return fmt.Errorf("add hunted user: %w", err)
	}
	return nil
}

func (s *CharacterStore) RemoveHunted(ctx context.Context, characterID, userID string) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		`DELETE FROM hunted_users WHERE character_id = ? AND user_id = ?`), characterID, userID)
	if err != nil {
		return fmt.Errorf("remove hunted user: %w", err)
	}
	return requireRow(res)
}

func (s *CharacterStore) list(ctx context.Context, query string, args ...any) ([]*store.Character, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var result []*store.Character
	for rows.Next() {
		c, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCharacter(scan func(...any) error) (*store.Character, error) {
	var c store.Character
	var integrationType string
	var callPrefix, remoteCharacterID *string
	err := scan(
		&c.ID, &c.WebhookToken, &c.ChannelID, &integrationType,
		&c.Name, &c.AvatarURL, &c.Greeting, &callPrefix, &remoteCharacterID, &c.ActiveHistoryID,
		&c.APIToken, &c.APIModel, &c.APIEndpoint, &c.JailbreakPrompt, &c.MessagesFormat,
		&c.Temperature, &c.MaxTokens, &c.FreqPenalty, &c.PresencePenalty,
		&c.ReferencesEnabled, &c.SwipesEnabled, &c.StopButtonEnabled, &c.CrutchEnabled,
		&c.ReplyChance, &c.ResponseDelay, &c.MessagesSent, &c.LastCallAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan character: %w", err)
	}
	c.IntegrationType = store.IntegrationType(integrationType)
	c.CallPrefix = derefStr(callPrefix)
	c.RemoteCharacterID = derefStr(remoteCharacterID)
	return &c, nil
}
