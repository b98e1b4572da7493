package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zarathos291x/Character-Engine-Discord/internal/format"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

func (c *Channel) updateGuild(ctx context.Context, i *discordgo.InteractionCreate, silent bool, mutate func(*store.Guild), success string) {
	g, err := c.stores.Guilds.FindOrCreate(ctx, i.GuildID)
	if err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}
	mutate(g)
	if err := c.stores.Guilds.Update(ctx, g); err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}
	c.respond(i, successEmbed(success), silent)
}

func (c *Channel) cmdSetServerMessagesFormat(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")

	f := opts.str("new-format")
	if err := format.Validate(f); err != nil {
		c.respond(i, warnEmbed("Invalid format: "+err.Error()), true)
		return
	}
	c.updateGuild(ctx, i, silent, func(g *store.Guild) {
		g.MessagesFormat = &f
	}, "Default messages format updated")
}

func (c *Channel) cmdDropServerMessagesFormat(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.MessagesFormat = nil
	}, "Default messages format dropped")
}

func (c *Channel) cmdSetServerJailbreakPrompt(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	prompt := opts.str("new-prompt")
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.JailbreakPrompt = &prompt
	}, "Default jailbreak prompt updated")
}

func (c *Channel) cmdDropServerJailbreakPrompt(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.JailbreakPrompt = nil
	}, "Default jailbreak prompt dropped")
}

func (c *Channel) cmdSetServerCAIToken(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	token := opts.str("token")
	plus := opts.boolean("has-plus-subscription")
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.CAIToken = &token
		g.CAIPlusMode = plus
	}, "Default CharacterAI token updated")
}

func (c *Channel) cmdSetServerAisekaiAuth(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	if _, err := c.stores.Guilds.FindOrCreate(ctx, i.GuildID); err != nil {
		c.followup(i, warnEmbed("Something went wrong: "+err.Error()))
		return
	}
	if err := c.integrations.AuthorizeAisekai(ctx, i.GuildID, opts.str("email"), opts.str("password")); err != nil {
		c.followup(i, warnEmbed("Aisekai sign-in failed"))
		return
	}
	c.followup(i, successEmbed("Aisekai account connected"))
}

func (c *Channel) cmdSetServerOpenAIAPI(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	token := opts.str("token")
	model := opts.str("model")
	endpoint := opts.str("endpoint")
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.OpenAIToken = &token
		if model != "" {
			g.OpenAIModel = &model
		}
		if endpoint != "" {
			g.OpenAIEndpoint = &endpoint
		}
	}, "Default OpenAI API updated")
}

func (c *Channel) cmdSetServerKoboldAIAPI(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	endpoint := opts.str("endpoint")
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.KoboldAIEndpoint = &endpoint
	}, "Default KoboldAI endpoint updated")
}

func (c *Channel) cmdSetServerHordeAPI(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	token := opts.str("token")
	model := opts.str("model")
	c.updateGuild(ctx, i, opts.boolean("silent"), func(g *store.Guild) {
		g.HordeToken = &token
		if model != "" {
			g.HordeModel = &model
		}
	}, "Default Horde KoboldAI API updated")
}

func (c *Channel) cmdGetHordeWorkers(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")
	c.deferResponse(i, silent)

	workers, err := c.integrations.ListHordeWorkers(ctx)
	if err != nil {
		c.followup(i, warnEmbed("Failed to fetch workers: "+err.Error()))
		return
	}
	if len(workers) == 0 {
		c.followup(i, warnEmbed("No text workers online"))
		return
	}

	var b strings.Builder
	limit := min(len(workers), 10)
	for _, w := range workers[:limit] {
		fmt.Fprintf(&b, "**%s**\nmodels: %s\nmax length: %d | max context: %d\nperformance: %s | uptime: %s\n\n",
			w.Name,
			strings.Join(w.Models, ", "),
			w.MaxLength,
			w.MaxContextLength,
			w.Performance,
			(time.Duration(w.Uptime) * time.Second).String(),
		)
	}

	c.followup(i, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Horde text workers (%d online, showing %d)", len(workers), limit),
		Description: b.String(),
		Color:       colorSuccess,
	})
}

func (c *Channel) cmdBlockUser(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")

	raw := opts.str("user-id")
	userID := parseMention(raw)
	if userID == "" && isSnowflake(raw) {
		userID = raw
	}
	if userID == "" {
		c.respond(i, warnEmbed("Give a user mention or a user ID"), true)
		return
	}

	if _, err := c.stores.Guilds.FindOrCreate(ctx, i.GuildID); err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}

	hours := int(opts.integer("hours"))
	err := c.stores.Guilds.BlockUser(ctx, store.BlockedUser{
		GuildID: i.GuildID,
		UserID:  userID,
		From:    time.Now(),
		Hours:   hours,
	})
	if err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}

	if hours == 0 {
		c.respond(i, successEmbed(fmt.Sprintf("<@%s> blocked", userID)), silent)
	} else {
		c.respond(i, successEmbed(fmt.Sprintf("<@%s> blocked for %d hour(s)", userID, hours)), silent)
	}
}

func (c *Channel) cmdUnblockUser(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	silent := opts.boolean("silent")

	raw := opts.str("user-id")
	userID := parseMention(raw)
	if userID == "" && isSnowflake(raw) {
		userID = raw
	}
	if userID == "" {
		c.respond(i, warnEmbed("Give a user mention or a user ID"), true)
		return
	}

	if err := c.stores.Guilds.UnblockUser(ctx, i.GuildID, userID); err != nil {
		c.respond(i, warnEmbed("Something went wrong: "+err.Error()), silent)
		return
	}
	c.respond(i, successEmbed(fmt.Sprintf("<@%s> unblocked", userID)), silent)
}

func (c *Channel) cmdPing(_ context.Context, i *discordgo.InteractionCreate) {
	c.respond(i, successEmbed(fmt.Sprintf("Pong! `%d ms`", c.session.HeartbeatLatency().Milliseconds())), false)
}

func (c *Channel) cmdHelp(_ context.Context, i *discordgo.InteractionCreate) {
	c.respond(i, &discordgo.MessageEmbed{
		Title: "Character Engine",
		Description: "**How to use**\n" +
			"1. Use `/spawn-character` to create a character in a channel.\n" +
			"2. Set up its API backend with one of the `/set-server-...` commands.\n" +
			"3. Call the character by its prefix, reply to its messages, or let it hunt users with `/hunt-user`.\n\n" +
			"Character identifiers: most commands take a webhook ID or a unique character name prefix.\n" +
			"Use `/help-messages-format` to learn about message templates.",
		Color: colorSuccess,
	}, false)
}

func (c *Channel) cmdHelpMessagesFormat(_ context.Context, i *discordgo.InteractionCreate) {
	c.respond(i, &discordgo.MessageEmbed{
		Title: "Messages format",
		Description: "Templates shape what a character receives:\n\n" +
			"`{{msg}}` - the user's message (required)\n" +
			"`{{user}}` - the author's display name\n" +
			"`{{ref_msg_begin}}`, `{{ref_msg_user}}`, `{{ref_msg_text}}`, `{{ref_msg_end}}` - reply block, removed when the message is not a reply\n" +
			"`\\n` - line break\n\n" +
			"Example:\n`{{user}} says: {{msg}}`\nMessage \"Hello!\" from Lemon becomes:\n`Lemon says: Hello!`",
		Color: colorSuccess,
	}, false)
}
