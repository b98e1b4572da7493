package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/zarathos291x/Character-Engine-Discord/internal/characters"
	"github.com/zarathos291x/Character-Engine-Discord/internal/format"
	"github.com/zarathos291x/Character-Engine-Discord/internal/integrations"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
	"github.com/zarathos291x/Character-Engine-Discord/internal/webhooks"
)

const defaultGreeting = "Hey! I'm {{char}}!"

func (c *Channel) cmdSpawnCharacter(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	if _, err := c.stores.Guilds.FindOrCreate(ctx, i.GuildID); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	if _, err := c.stores.Channels.FindOrCreate(ctx, i.ChannelID, i.GuildID); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}

	greeting := opts.str("greeting")
	if greeting == "" {
		greeting = defaultGreeting
	}

	char, err := c.manager.Create(ctx, webhooks.CreateParams{
		ChannelID:         i.ChannelID,
		IntegrationType:   store.IntegrationType(opts.str("integration-type")),
		Name:              opts.str("name"),
		AvatarURL:         opts.str("avatar-url"),
		Greeting:          greeting,
		CallPrefix:        opts.str("call-prefix"),
		RemoteCharacterID: opts.str("character-id"),
		ResponseDelay:     c.cfg.Defaults.ResponseDelay,
	})
	if err != nil {
		c.followup(i, warnEmbed("Failed to create character: "+err.Error()))
		return
	}

	text := format.RenderGreeting(char.Greeting, char.Name, invokerName(i))
	if err := c.sender.Send(ctx, char.ID, format.TruncateForDiscord(text)); err != nil {
		c.followup(i, warnEmbed("Character created, but greeting failed: "+err.Error()))
		return
	}

	c.followup(i, successEmbed(fmt.Sprintf("**%s** spawned (webhook `%s`)", char.Name, char.ID)))
}

func (c *Channel) cmdDeleteCharacter(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	char, ok := c.findCharacter(ctx, i, opts.str("webhook-id-or-prefix"))
	if !ok {
		return
	}
	if err := c.manager.Delete(ctx, char); err != nil {
		c.followup(i, warnEmbed("Failed to delete character: "+err.Error()))
		return
	}
	c.followup(i, successEmbed(fmt.Sprintf("**%s** removed", char.Name)))
}

func (c *Channel) cmdClearCharacters(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	var (
		chars []*store.Character
		err   error
	)
	switch opts.str("scope") {
	case "server":
		chars, err = c.stores.Characters.ListByGuild(ctx, i.GuildID)
	default:
		chars, err = c.stores.Characters.ListByChannel(ctx, i.ChannelID)
	}
	if err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	if len(chars) == 0 {
		c.followup(i, warnEmbed("No characters found"))
		return
	}

	if err := c.manager.BulkDelete(ctx, chars); err != nil {
		c.followup(i, warnEmbed("Some characters could not be removed: "+err.Error()))
		return
	}
	c.followup(i, successEmbed(fmt.Sprintf("Removed %d character(s)", len(chars))))
}

func (c *Channel) cmdCopyCharacter(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	src, ok := c.resolveCopySource(ctx, i, opts)
	if !ok {
		return
	}

	if _, err := c.stores.Guilds.FindOrCreate(ctx, i.GuildID); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	if _, err := c.stores.Channels.FindOrCreate(ctx, i.ChannelID, i.GuildID); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}

	clone, err := c.manager.Copy(ctx, src, i.ChannelID)
	if err != nil {
		c.followup(i, warnEmbed("Failed to copy character: "+err.Error()))
		return
	}
	c.followup(i, successEmbed(fmt.Sprintf("**%s** copied here (webhook `%s`)", clone.Name, clone.ID)))
}

func (c *Channel) cmdSetRandomReplyChance(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")

	chance := opts.number("chance", 0)
	if chance < 0 || chance > 100 {
		c.respond(i, warnEmbed("Chance must be between 0 and 100"), true)
		return
	}

	if _, err := c.stores.Channels.FindOrCreate(ctx, i.ChannelID, i.GuildID); err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}
	if err := c.stores.Channels.SetRandomReplyChance(ctx, i.ChannelID, chance); err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}
	c.respond(i, successEmbed(fmt.Sprintf("Random reply chance set to %.1f%%", chance)), silent)
}

func (c *Channel) cmdHuntUser(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	char, ok := c.findCharacter(ctx, i, opts.str("webhook-id-or-prefix"))
	if !ok {
		return
	}

	targetID, ok := c.resolveHuntTarget(ctx, i, opts.str("user-id-or-character-prefix"))
	if !ok {
		return
	}

	chance := opts.number("chance", 100)
	if chance < 0 || chance > 100 {
		c.followup(i, warnEmbed("Chance must be between 0 and 100"))
		return
	}

	err := c.stores.Characters.AddHunted(ctx, store.HuntedUser{
		CharacterID: char.ID,
		UserID:      targetID,
		Chance:      chance,
	})
	if err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	c.followup(i, successEmbed(fmt.Sprintf("**%s** now hunts <@%s> (%.1f%%)", char.Name, targetID, chance)))
}

func (c *Channel) cmdStopHuntUser(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	char, ok := c.findCharacter(ctx, i, opts.str("webhook-id-or-prefix"))
	if !ok {
		return
	}
	targetID, ok := c.resolveHuntTarget(ctx, i, opts.str("user-id-or-character-prefix"))
	if !ok {
		return
	}

	if err := c.stores.Characters.RemoveHunted(ctx, char.ID, targetID); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	c.followup(i, successEmbed(fmt.Sprintf("**%s** stopped hunting <@%s>", char.Name, targetID)))
}

func (c *Channel) cmdResetCharacter(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	char, ok := c.findCharacter(ctx, i, opts.str("webhook-id-or-prefix"))
	if !ok {
		return
	}
	guild, err := c.stores.Guilds.FindOrCreate(ctx, i.GuildID)
	if err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}

	if err := c.integrations.ResetConversation(ctx, guild, char); err != nil {
		switch {
		case errors.Is(err, integrations.ErrNoBackendConfigured):
			c.followup(i, warnEmbed("No API backend is set for this character"))
		case errors.Is(err, integrations.ErrAuthFailed):
			c.followup(i, warnEmbed("Backend authorization failed; set new credentials and try again"))
		default:
			c.followup(i, warnEmbed("Failed to reset character: "+err.Error()))
		}
		return
	}

	text := fmt.Sprintf("<@%s> %s", invokerID(i), format.RenderGreeting(char.Greeting, char.Name, invokerName(i)))
	c.sender.Ensure(char.ID, char.WebhookToken)
	if err := c.sender.Send(ctx, char.ID, format.TruncateForDiscord(text)); err != nil {
		c.followup(i, warnEmbed("Conversation reset, but greeting failed: "+err.Error()))
		return
	}
	c.followup(i, successEmbed(fmt.Sprintf("**%s** starts over", char.Name)))
}

func (c *Channel) cmdSay(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	char, ok := c.findCharacter(ctx, i, opts.str("webhook-id-or-prefix"))
	if !ok {
		return
	}

	c.sender.Ensure(char.ID, char.WebhookToken)
	if err := c.sender.Send(ctx, char.ID, format.TruncateForDiscord(opts.str("text"))); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	c.followup(i, successEmbed("Done"))
}

// resolveCopySource resolves the copied character inside the source channel,
// so name prefixes work the same way they do for in-channel commands.
func (c *Channel) resolveCopySource(ctx context.Context, i *discordgo.InteractionCreate, opts cmdOptions) (*store.Character, bool) {
	sourceID := opts.channel("source-channel")
	if sourceID == "" {
		sourceID = i.ChannelID
	}
	char, err := c.resolver.Resolve(ctx, sourceID, opts.str("webhook-id-or-prefix"))
	if err != nil {
		if errors.Is(err, characters.ErrCharacterNotFound) {
			c.followup(i, warnEmbed("Character not found in the source channel"))
		} else {
			c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		}
		return nil, false
	}
	return char, true
}

// findCharacter resolves a character in the interaction's channel, reporting
// failures to the invoker.
func (c *Channel) findCharacter(ctx context.Context, i *discordgo.InteractionCreate, query string) (*store.Character, bool) {
	char, err := c.resolver.Resolve(ctx, i.ChannelID, query)
	if err != nil {
		if errors.Is(err, characters.ErrCharacterNotFound) {
			c.followup(i, warnEmbed("Character not found in this channel"))
		} else {
			c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		}
		return nil, false
	}
	return char, true
}

// resolveHuntTarget accepts a user mention, a raw user ID, or another
// character's prefix in the same channel.
func (c *Channel) resolveHuntTarget(ctx context.Context, i *discordgo.InteractionCreate, raw string) (string, bool) {
	if id := parseMention(raw); id != "" {
		return id, true
	}
	if isSnowflake(raw) {
		return raw, true
	}
	char, err := c.resolver.Resolve(ctx, i.ChannelID, raw)
	if err != nil {
		c.followup(i, warnEmbed("Target not found: give a user mention, user ID, or a character prefix"))
		return "", false
	}
	return char.ID, true
}

func parseMention(s string) string {
	if !strings.HasPrefix(s, "<@") || !strings.HasSuffix(s, ">") {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">")
	id = strings.TrimPrefix(id, "!")
	if isSnowflake(id) {
		return id
	}
	return ""
}

func isSnowflake(s string) bool {
	if len(s) < 17 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	return ""
}

func invokerName(i *discordgo.InteractionCreate) string {
	if i.Member == nil || i.Member.User == nil {
		return "user"
	}
	if i.Member.Nick != "" {
		return i.Member.Nick
	}
	if i.Member.User.GlobalName != "" {
		return i.Member.User.GlobalName
	}
	return i.Member.User.Username
}
