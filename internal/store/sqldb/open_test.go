package sqldb

import "testing"

func TestRebindDollar(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM guilds WHERE id = ?", "SELECT * FROM guilds WHERE id = $1"},
		{"UPDATE channels SET chance = ? WHERE id = ?", "UPDATE channels SET chance = $1 WHERE id = $2"},
		{"INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)"},
	}
	for _, tt := range tests {
		if got := rebindDollar(tt.in); got != tt.want {
			t.Errorf("rebindDollar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRebindPerDriver(t *testing.T) {
	pg := &DB{driver: "pgx"}
	if got := pg.rebind("WHERE id = ?"); got != "WHERE id = $1" {
		t.Errorf("pgx rebind = %q", got)
	}

	lite := &DB{driver: "sqlite"}
	if got := lite.rebind("WHERE id = ?"); got != "WHERE id = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
