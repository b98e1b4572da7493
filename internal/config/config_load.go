package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// DefaultMessagesFormat mirrors the format suggested to new servers: the
// referenced-message block collapses when the user message is not a reply.
const DefaultMessagesFormat = `{{ref_msg_begin}}((In response to '{{ref_msg_text}}' from '{{ref_msg_user}}')){{ref_msg_end}}\n{{user}} says:\n{{msg}}`

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: Database{
			SQLitePath: defaultSQLitePath(),
		},
		Defaults: Defaults{
			MessagesFormat: DefaultMessagesFormat,
			ResponseDelay:  1,
		},
		Integrations: Integrations{
			CharacterAI: CharacterAI{
				BaseURL:     "https://beta.character.ai",
				PlusBaseURL: "https://plus.character.ai",
			},
			Aisekai: Aisekai{
				BaseURL: "https://api.aisekai.ai",
			},
			Horde: Horde{
				BaseURL: "https://horde.koboldai.net/api",
			},
			RequestTimeout: 60,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// RequireToken validates that the bot token is present. Commands that talk to
// Discord call this; migrations do not need a token.
func (c *Config) RequireToken() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("CHARENGINE_DISCORD_TOKEN is not set")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHARENGINE_DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("CHARENGINE_POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("CHARENGINE_SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "character-engine.db"
	}
	return filepath.Join(home, ".character-engine", "engine.db")
}

// ResolvePath picks the config file path: explicit flag, then env, then
// config.json5 in the working directory.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("CHARENGINE_CONFIG"); v != "" {
		return v
	}
	return "config.json5"
}
