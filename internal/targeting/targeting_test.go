package targeting

import (
	"testing"
	"time"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

func char(id, prefix string) *store.Character {
	return &store.Character{ID: id, CallPrefix: prefix, ChannelID: "chan1"}
}

func channel(chance float64) *store.Channel {
	return &store.Channel{ID: "chan1", GuildID: "guild1", RandomReplyChance: chance}
}

func TestBlocked(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		block store.BlockedUser
		at    time.Time
		want  bool
	}{
		{
			"indefinite block active far in the future",
			store.BlockedUser{UserID: "u1", From: start, Hours: 0},
			start.Add(24 * 365 * time.Hour),
			true,
		},
		{
			"timed block active before expiry",
			store.BlockedUser{UserID: "u1", From: start, Hours: 2},
			start.Add(119 * time.Minute),
			true,
		},
		{
			"timed block inactive at exact expiry",
			store.BlockedUser{UserID: "u1", From: start, Hours: 2},
			start.Add(2 * time.Hour),
			false,
		},
		{
			"timed block inactive after expiry",
			store.BlockedUser{UserID: "u1", From: start, Hours: 2},
			start.Add(3 * time.Hour),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blocked([]store.BlockedUser{tt.block}, "u1", tt.at)
			if got != tt.want {
				t.Errorf("Blocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlocked_OtherUserUnaffected(t *testing.T) {
	blocks := []store.BlockedUser{{UserID: "u1", Hours: 0}}
	if Blocked(blocks, "u2", time.Now()) {
		t.Error("block for u1 should not affect u2")
	}
}

func TestDecide_Addressed(t *testing.T) {
	e := NewWithRand(func() float64 { return 0.99 })
	c := char("w1", "sph")

	got := e.Decide(Message{AuthorID: "u1", Content: "sph hello there"},
		channel(0), []*store.Character{c}, nil, nil, time.Now())
	if len(got) != 1 || got[0].Reason != ReasonAddressed {
		t.Fatalf("Decide() = %+v, want one addressed engagement", got)
	}
}

func TestDecide_AddressedByReply(t *testing.T) {
	e := New()
	c := char("w1", "")

	got := e.Decide(Message{AuthorID: "u1", Content: "anything", RepliedToSenderID: "w1"},
		channel(0), []*store.Character{c}, nil, nil, time.Now())
	if len(got) != 1 || got[0].Reason != ReasonAddressed {
		t.Fatalf("Decide() = %+v, want one addressed engagement", got)
	}
}

func TestDecide_PrefixCaseInsensitive(t *testing.T) {
	e := New()
	c := char("w1", "Sph")

	got := e.Decide(Message{AuthorID: "u1", Content: "sPH hi"},
		channel(0), []*store.Character{c}, nil, nil, time.Now())
	if len(got) != 1 {
		t.Fatalf("Decide() = %+v, want one engagement", got)
	}
}

func TestDecide_HuntedChance100AlwaysEngages(t *testing.T) {
	e := NewWithRand(func() float64 { return 0.999999 })
	c := char("w1", "")
	hunted := map[string][]store.HuntedUser{
		"w1": {{CharacterID: "w1", UserID: "u1", Chance: 100}},
	}

	for i := 0; i < 50; i++ {
		got := e.Decide(Message{AuthorID: "u1", Content: "hi"},
			channel(0), []*store.Character{c}, hunted, nil, time.Now())
		if len(got) != 1 || got[0].Reason != ReasonHunted {
			t.Fatalf("trial %d: Decide() = %+v, want hunted engagement", i, got)
		}
	}
}

func TestDecide_HuntedChance0NeverEngages(t *testing.T) {
	e := NewWithRand(func() float64 { return 0 })
	c := char("w1", "")
	hunted := map[string][]store.HuntedUser{
		"w1": {{CharacterID: "w1", UserID: "u1", Chance: 0}},
	}

	for i := 0; i < 50; i++ {
		got := e.Decide(Message{AuthorID: "u1", Content: "hi"},
			channel(0), []*store.Character{c}, hunted, nil, time.Now())
		if len(got) != 0 {
			t.Fatalf("trial %d: Decide() = %+v, want no engagement", i, got)
		}
	}
}

func TestDecide_RandomReplyChance100(t *testing.T) {
	e := NewWithRand(func() float64 { return 0.999999 })
	c := char("w1", "")

	for i := 0; i < 50; i++ {
		got := e.Decide(Message{AuthorID: "u1", Content: "hi"},
			channel(100), []*store.Character{c}, nil, nil, time.Now())
		if len(got) != 1 || got[0].Reason != ReasonRandom {
			t.Fatalf("trial %d: Decide() = %+v, want random engagement", i, got)
		}
	}
}

func TestDecide_NoEngagementPaths(t *testing.T) {
	e := New()
	c := char("w1", "sph")

	got := e.Decide(Message{AuthorID: "u1", Content: "unrelated"},
		channel(0), []*store.Character{c}, nil, nil, time.Now())
	if len(got) != 0 {
		t.Errorf("Decide() = %+v, want no engagement", got)
	}
}

func TestDecide_BlockedAuthorNeverEngages(t *testing.T) {
	e := NewWithRand(func() float64 { return 0 }) // every draw passes
	c := char("w1", "sph")
	hunted := map[string][]store.HuntedUser{
		"w1": {{CharacterID: "w1", UserID: "u1", Chance: 100}},
	}
	blocks := []store.BlockedUser{{UserID: "u1", From: time.Now(), Hours: 0}}

	got := e.Decide(Message{AuthorID: "u1", Content: "sph hello"},
		channel(100), []*store.Character{c}, hunted, blocks, time.Now())
	if len(got) != 0 {
		t.Errorf("blocked author engaged: %+v", got)
	}
}

func TestDecide_MultipleCharactersMayEngage(t *testing.T) {
	e := New()
	c1 := char("w1", "alpha")
	c2 := char("w2", "")
	hunted := map[string][]store.HuntedUser{
		"w2": {{CharacterID: "w2", UserID: "u1", Chance: 100}},
	}

	got := e.Decide(Message{AuthorID: "u1", Content: "alpha hi"},
		channel(0), []*store.Character{c1, c2}, hunted, nil, time.Now())
	if len(got) != 2 {
		t.Fatalf("Decide() returned %d engagements, want 2: %+v", len(got), got)
	}
}

func TestDecide_CharacterIgnoresItself(t *testing.T) {
	e := New()
	c := char("w1", "")
	hunted := map[string][]store.HuntedUser{
		"w1": {{CharacterID: "w1", UserID: "w1", Chance: 100}},
	}

	got := e.Decide(Message{AuthorID: "w1", Content: "hi"},
		channel(100), []*store.Character{c}, hunted, nil, time.Now())
	if len(got) != 0 {
		t.Errorf("character engaged on its own message: %+v", got)
	}
}
