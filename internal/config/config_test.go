package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CHARENGINE_DISCORD_TOKEN", "tok")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json5"))
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Defaults.MessagesFormat != DefaultMessagesFormat {
		t.Errorf("MessagesFormat = %q", cfg.Defaults.MessagesFormat)
	}
	if cfg.Integrations.Horde.BaseURL == "" {
		t.Error("horde base URL default missing")
	}
	if cfg.Discord.Token != "tok" {
		t.Errorf("Token = %q, want env value", cfg.Discord.Token)
	}
}

func TestLoad_FileWithEnvOverlay(t *testing.T) {
	t.Setenv("CHARENGINE_DISCORD_TOKEN", "env-token")
	t.Setenv("CHARENGINE_SQLITE_PATH", "/env/engine.db")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	// JSON5: comments and trailing commas allowed.
	body := `{
	// storage
	database: { sqlite_path: "/file/engine.db" },
	defaults: { response_delay: 3, },
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Database.SQLitePath != "/env/engine.db" {
		t.Errorf("SQLitePath = %q, env should win over file", cfg.Database.SQLitePath)
	}
	if cfg.Defaults.ResponseDelay != 3 {
		t.Errorf("ResponseDelay = %d, want 3 from file", cfg.Defaults.ResponseDelay)
	}
}

func TestRequireToken(t *testing.T) {
	cfg := Default()
	cfg.Discord.Token = ""
	if err := cfg.RequireToken(); err == nil {
		t.Error("expected error without token")
	}
	cfg.Discord.Token = "tok"
	if err := cfg.RequireToken(); err != nil {
		t.Errorf("RequireToken() err = %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("explicit.json5"); got != "explicit.json5" {
		t.Errorf("flag path = %q", got)
	}

	t.Setenv("CHARENGINE_CONFIG", "/env/config.json5")
	if got := ResolvePath(""); got != "/env/config.json5" {
		t.Errorf("env path = %q", got)
	}

	t.Setenv("CHARENGINE_CONFIG", "")
	if got := ResolvePath(""); got != "config.json5" {
		t.Errorf("default path = %q", got)
	}
}
