// Package config holds the engine configuration: a JSON5 file overlaid with
// environment variables. Secrets (bot token, DSN) come from env only and are
// never written back to the config file.
package config

// Config is the root configuration for the character engine.
type Config struct {
	Discord      Discord      `json:"discord"`
	Database     Database     `json:"database"`
	Defaults     Defaults     `json:"defaults"`
	Integrations Integrations `json:"integrations"`
}

// Discord configures the bot connection.
type Discord struct {
	Token string `json:"-"` // from env CHARENGINE_DISCORD_TOKEN only
}

// Database selects the storage backend. A Postgres DSN (env only) switches the
// engine to managed mode; otherwise the SQLite file is used.
type Database struct {
	PostgresDSN string `json:"-"` // from env CHARENGINE_POSTGRES_DSN only
	SQLitePath  string `json:"sqlite_path,omitempty"`
}

// Defaults are applied when neither a character nor a guild sets a value.
type Defaults struct {
	MessagesFormat string `json:"messages_format"`
	ResponseDelay  int    `json:"response_delay"`
}

// Integrations configures the backend API clients.
type Integrations struct {
	CharacterAI    CharacterAI `json:"characterai"`
	Aisekai        Aisekai     `json:"aisekai"`
	Horde          Horde       `json:"horde"`
	RequestTimeout int         `json:"request_timeout_seconds"`
}

// CharacterAI configures the character.ai client.
type CharacterAI struct {
	BaseURL     string `json:"base_url"`
	PlusBaseURL string `json:"plus_base_url"`
}

// Aisekai configures the Aisekai client.
type Aisekai struct {
	BaseURL string `json:"base_url"`
}

// Horde configures the worker-discovery client.
type Horde struct {
	BaseURL string `json:"base_url"`
}
