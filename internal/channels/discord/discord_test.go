package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/zarathos291x/Character-Engine-Discord/internal/characters"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

type fakeCharacterStore struct {
	store.CharacterStore
	byChannel map[string][]*store.Character
}

func (f *fakeCharacterStore) ListByChannel(_ context.Context, channelID string) ([]*store.Character, error) {
	return f.byChannel[channelID], nil
}

func copyInteraction(channelID, sourceChannelID, query string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: channelID,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "copy-character-from-channel",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Name:  "source-channel",
					Type:  discordgo.ApplicationCommandOptionChannel,
					Value: sourceChannelID,
				},
				{
					Name:  "webhook-id-or-prefix",
					Type:  discordgo.ApplicationCommandOptionString,
					Value: query,
				},
			},
		},
	}}
}

func TestParseMention(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<@90362673038905344>", "90362673038905344"},
		{"<@!90362673038905344>", "90362673038905344"},
		{"90362673038905344", ""},
		{"<@abc>", ""},
		{"hello", ""},
	}
	for _, tt := range tests {
		if got := parseMention(tt.in); got != tt.want {
			t.Errorf("parseMention(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSnowflake(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"90362673038905344", true},
		{"1234", false},
		{"9036267303890534a", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isSnowflake(tt.in); got != tt.want {
			t.Errorf("isSnowflake(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStrippedContent(t *testing.T) {
	char := &store.Character{ID: "w1", CallPrefix: "sph"}

	m := &discordgo.MessageCreate{Message: &discordgo.Message{Content: "sph hello"}}
	if got := strippedContent(char, m); got != " hello" {
		t.Errorf("strippedContent() = %q, want %q", got, " hello")
	}

	m = &discordgo.MessageCreate{Message: &discordgo.Message{Content: "unrelated"}}
	if got := strippedContent(char, m); got != "unrelated" {
		t.Errorf("strippedContent() = %q, want unchanged content", got)
	}

	// Reply-addressed messages keep their full content.
	m = &discordgo.MessageCreate{Message: &discordgo.Message{
		Content:          "sphere of influence",
		MessageReference: &discordgo.MessageReference{MessageID: "123"},
	}}
	if got := strippedContent(char, m); got != "sphere of influence" {
		t.Errorf("strippedContent() = %q, want unchanged content", got)
	}
}

func TestResolveCopySource_ResolvesInSourceChannel(t *testing.T) {
	// Same name in both channels: the source-channel option decides.
	cs := &fakeCharacterStore{byChannel: map[string][]*store.Character{
		"chan-src":  {{ID: "wh-1", Name: "Sphinx", ChannelID: "chan-src"}},
		"chan-here": {{ID: "wh-2", Name: "Sphinx", ChannelID: "chan-here"}},
	}}
	c := &Channel{resolver: characters.NewResolver(cs)}

	i := copyInteraction("chan-here", "chan-src", "sph")
	src, ok := c.resolveCopySource(context.Background(), i, options(i))
	if !ok {
		t.Fatal("resolveCopySource failed")
	}
	if src.ID != "wh-1" {
		t.Errorf("resolved %s, want wh-1 from the source channel", src.ID)
	}
}

func TestResolveCopySource_ExactIDInSourceChannel(t *testing.T) {
	cs := &fakeCharacterStore{byChannel: map[string][]*store.Character{
		"chan-src": {
			{ID: "wh-1", Name: "Sphinx", ChannelID: "chan-src"},
			{ID: "wh-2", Name: "Spectre", ChannelID: "chan-src"},
		},
	}}
	c := &Channel{resolver: characters.NewResolver(cs)}

	i := copyInteraction("chan-here", "chan-src", "wh-2")
	src, ok := c.resolveCopySource(context.Background(), i, options(i))
	if !ok {
		t.Fatal("resolveCopySource failed")
	}
	if src.ID != "wh-2" {
		t.Errorf("resolved %s, want wh-2", src.ID)
	}
}

func TestDisplayName(t *testing.T) {
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		Author: &discordgo.User{Username: "lemon", GlobalName: "Lemon"},
		Member: &discordgo.Member{Nick: "Citrus"},
	}}
	if got := displayName(m); got != "Citrus" {
		t.Errorf("displayName() = %q, want nickname", got)
	}

	m.Member = nil
	if got := displayName(m); got != "Lemon" {
		t.Errorf("displayName() = %q, want global name", got)
	}

	m.Author.GlobalName = ""
	if got := displayName(m); got != "lemon" {
		t.Errorf("displayName() = %q, want username", got)
	}
}
