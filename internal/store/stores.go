package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// GuildStore persists guild defaults and the guild block list.
type GuildStore interface {
	// FindOrCreate returns the guild record, creating an empty one on first touch.
	FindOrCreate(ctx context.Context, guildID string) (*Guild, error)
	Get(ctx context.Context, guildID string) (*Guild, error)
	Update(ctx context.Context, g *Guild) error

	// SetAisekaiTokens persists a refreshed session/refresh token pair in one write.
	SetAisekaiTokens(ctx context.Context, guildID, authToken, refreshToken string) error

	ListBlockedUsers(ctx context.Context, guildID string) ([]BlockedUser, error)
	BlockUser(ctx context.Context, b BlockedUser) error
	UnblockUser(ctx context.Context, guildID, userID string) error
}

// ChannelStore persists tracked channels.
type ChannelStore interface {
	FindOrCreate(ctx context.Context, channelID, guildID string) (*Channel, error)
	Get(ctx context.Context, channelID string) (*Channel, error)
	SetRandomReplyChance(ctx context.Context, channelID string, chance float64) error
}

// CharacterStore persists characters and their hunted-user sets.
type CharacterStore interface {
	Create(ctx context.Context, c *Character) error
	Get(ctx context.Context, id string) (*Character, error)
	Update(ctx context.Context, c *Character) error
	// Delete removes the character and, via cascade, its hunted users and history.
	Delete(ctx context.Context, id string) error

	ListByChannel(ctx context.Context, channelID string) ([]*Character, error)
	ListByGuild(ctx context.Context, guildID string) ([]*Character, error)

	SetActiveHistoryID(ctx context.Context, id string, historyID *string) error
	RecordCall(ctx context.Context, id string) error

	ListHunted(ctx context.Context, characterID string) ([]HuntedUser, error)
	AddHunted(ctx context.Context, h HuntedUser) error
	RemoveHunted(ctx context.Context, characterID, userID string) error
}

// HistoryStore persists the local message log of local-memory characters.
type HistoryStore interface {
	Append(ctx context.Context, m HistoryMessage) error
	List(ctx context.Context, characterID string) ([]HistoryMessage, error)
	// Reset clears the log and seeds it with the greeting as a single
	// assistant-authored entry, in one transaction.
	Reset(ctx context.Context, characterID, greeting string) error
}

// Stores is the top-level container for all storage backends.
type Stores struct {
	Guilds     GuildStore
	Channels   ChannelStore
	Characters CharacterStore
	History    HistoryStore
}
