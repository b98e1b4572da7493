// Package store defines the persisted entities of the character engine and
// the storage interfaces the rest of the engine depends on. Implementations
// live in subpackages (sqldb for Postgres/SQLite).
package store

import "time"

// IntegrationType identifies which conversational backend a character is bound to.
// Exactly one integration type is active per character.
type IntegrationType string

const (
	IntegrationNone          IntegrationType = ""
	IntegrationCharacterAI   IntegrationType = "characterai"
	IntegrationAisekai       IntegrationType = "aisekai"
	IntegrationOpenAI        IntegrationType = "openai"
	IntegrationKoboldAI      IntegrationType = "koboldai"
	IntegrationHordeKoboldAI IntegrationType = "horde-koboldai"
)

// HasRemoteMemory reports whether the backend keeps conversation state on its
// own side. Local-memory kinds store their history in HistoryMessage rows.
func (t IntegrationType) HasRemoteMemory() bool {
	return t == IntegrationCharacterAI || t == IntegrationAisekai
}

// Guild holds per-server defaults. A guild record is created lazily on the
// first command that touches it and is never deleted explicitly.
type Guild struct {
	ID              string
	MessagesFormat  *string
	JailbreakPrompt *string

	// Per-backend default credentials, one slot per integration kind.
	CAIToken            *string
	CAIPlusMode         bool
	AisekaiAuthToken    *string
	AisekaiRefreshToken *string
	OpenAIToken         *string
	OpenAIModel         *string
	OpenAIEndpoint      *string
	KoboldAIEndpoint    *string
	HordeToken          *string
	HordeModel          *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Channel is a guild text channel tracked by the engine.
type Channel struct {
	ID                string
	GuildID           string
	RandomReplyChance float64 // 0–100; chance that an untargeted message engages a character
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Character is a persona bound 1:1 to a channel webhook. The character ID is
// the Discord webhook ID; WebhookToken is the webhook secret.
type Character struct {
	ID           string
	WebhookToken string
	ChannelID    string

	IntegrationType   IntegrationType
	Name              string
	AvatarURL         string
	Greeting          string
	CallPrefix        string // short alias, unique within the channel when set
	RemoteCharacterID string // backend-side character id
	ActiveHistoryID   *string

	// Personal overrides; nil falls back to the guild default.
	APIToken        *string
	APIModel        *string
	APIEndpoint     *string
	JailbreakPrompt *string
	MessagesFormat  *string

	// Generation parameters, passed through to the backend as-is.
	Temperature     *float64
	MaxTokens       *int
	FreqPenalty     *float64
	PresencePenalty *float64

	ReferencesEnabled bool
	SwipesEnabled     bool
	StopButtonEnabled bool
	CrutchEnabled     bool

	ReplyChance   float64
	ResponseDelay int
	MessagesSent  int64
	LastCallAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlockedUser suppresses a user from triggering any character on a guild.
// Hours == 0 blocks indefinitely.
type BlockedUser struct {
	GuildID string
	UserID  string
	From    time.Time
	Hours   int
}

// ActiveAt reports whether the block is in effect at the given instant.
func (b BlockedUser) ActiveAt(now time.Time) bool {
	if b.Hours == 0 {
		return true
	}
	return now.Before(b.From.Add(time.Duration(b.Hours) * time.Hour))
}

// HuntedUser is a character's standing probabilistic interest in a target.
// The target may be a platform user or another character's webhook ID.
type HuntedUser struct {
	CharacterID string
	UserID      string
	Chance      float64 // 0–100
}

// HistoryMessage is one entry of a character's local conversation log. Only
// backends without server-side memory use it; ordering follows Pos.
type HistoryMessage struct {
	CharacterID string
	Pos         int64
	Role        string // "user" or "assistant"
	Content     string
	CreatedAt   time.Time
}
