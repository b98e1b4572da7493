package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

type commandHandler func(ctx context.Context, i *discordgo.InteractionCreate)

// managerOnly lists the commands gated on the Manage Webhooks permission.
// Read-only and cosmetic commands stay open to everyone.
var managerOnly = map[string]bool{
	"spawn-character":                 true,
	"delete-character":                true,
	"clear-characters":                true,
	"copy-character-from-channel":     true,
	"set-channel-random-reply-chance": true,
	"hunt-user":                       true,
	"stop-hunt-user":                  true,
	"reset-character":                 true,
	"set-server-messages-format":      true,
	"drop-server-messages-format":     true,
	"set-server-jailbreak-prompt":     true,
	"drop-server-jailbreak-prompt":    true,
	"set-server-cai-token":            true,
	"set-server-aisekai-auth":         true,
	"set-server-openai-api":           true,
	"set-server-koboldai-api":         true,
	"set-server-horde-koboldai-api":   true,
	"say":                             true,
	"block-user":                      true,
	"unblock-user":                    true,
}

func (c *Channel) commandHandlers() map[string]commandHandler {
	return map[string]commandHandler{
		"spawn-character":                 c.cmdSpawnCharacter,
		"delete-character":                c.cmdDeleteCharacter,
		"clear-characters":                c.cmdClearCharacters,
		"copy-character-from-channel":     c.cmdCopyCharacter,
		"set-channel-random-reply-chance": c.cmdSetRandomReplyChance,
		"hunt-user":                       c.cmdHuntUser,
		"stop-hunt-user":                  c.cmdStopHuntUser,
		"reset-character":                 c.cmdResetCharacter,
		"set-server-messages-format":      c.cmdSetServerMessagesFormat,
		"drop-server-messages-format":     c.cmdDropServerMessagesFormat,
		"set-server-jailbreak-prompt":     c.cmdSetServerJailbreakPrompt,
		"drop-server-jailbreak-prompt":    c.cmdDropServerJailbreakPrompt,
		"set-server-cai-token":            c.cmdSetServerCAIToken,
		"set-server-aisekai-auth":         c.cmdSetServerAisekaiAuth,
		"set-server-openai-api":           c.cmdSetServerOpenAIAPI,
		"set-server-koboldai-api":         c.cmdSetServerKoboldAIAPI,
		"set-server-horde-koboldai-api":   c.cmdSetServerHordeAPI,
		"get-horde-koboldai-workers":      c.cmdGetHordeWorkers,
		"say":                             c.cmdSay,
		"block-user":                      c.cmdBlockUser,
		"unblock-user":                    c.cmdUnblockUser,
		"ping":                            c.cmdPing,
		"help":                            c.cmdHelp,
		"help-messages-format":            c.cmdHelpMessagesFormat,
	}
}

func (c *Channel) registerCommands(ctx context.Context) error {
	_, err := c.session.ApplicationCommandBulkOverwrite(c.botUserID, "", commandDefinitions, discordgo.WithContext(ctx))
	return err
}

func (c *Channel) handleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		return
	}

	name := i.ApplicationCommandData().Name
	h, ok := c.handlers[name]
	if !ok {
		slog.Warn("unknown command", "command", name)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if managerOnly[name] && !isManager(i) {
		c.respond(i, warnEmbed("You need the Manage Webhooks permission to use this command"), true)
		return
	}

	slog.Debug("command received", "command", name, "guild_id", i.GuildID)
	h(ctx, i)
}

// isManager reports whether the invoking member may manage characters.
func isManager(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	perms := i.Member.Permissions
	return perms&discordgo.PermissionAdministrator != 0 ||
		perms&discordgo.PermissionManageWebhooks != 0
}

var silentOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionBoolean,
	Name:        "silent",
	Description: "Respond only to you",
}

func characterOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "webhook-id-or-prefix",
		Description: desc,
		Required:    true,
	}
}

func stringOption(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "spawn-character",
		Description: "Create a character-webhook in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("name", "Character display name", true),
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "integration-type",
				Description: "Conversational backend",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "CharacterAI", Value: "characterai"},
					{Name: "Aisekai", Value: "aisekai"},
					{Name: "OpenAI", Value: "openai"},
					{Name: "KoboldAI", Value: "koboldai"},
					{Name: "Horde KoboldAI", Value: "horde-koboldai"},
				},
			},
			stringOption("greeting", "First message of a fresh conversation", false),
			stringOption("avatar-url", "Avatar image URL", false),
			stringOption("call-prefix", "Short prefix that addresses the character", false),
			stringOption("character-id", "Backend-side character id", false),
			silentOption,
		},
	},
	{
		Name:        "delete-character",
		Description: "Remove character-webhook from channel",
		Options: []*discordgo.ApplicationCommandOption{
			characterOption("Webhook ID or character name prefix"),
			silentOption,
		},
	},
	{
		Name:        "clear-characters",
		Description: "Remove all character-webhooks from this channel/server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "scope",
				Description: "What to clear",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "channel", Value: "channel"},
					{Name: "server", Value: "server"},
				},
			},
			silentOption,
		},
	},
	{
		Name:        "copy-character-from-channel",
		Description: "Copy a character from another channel into this one",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "source-channel",
				Description:  "Channel the character currently lives in",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
			characterOption("Webhook ID or character name prefix in the source channel"),
			silentOption,
		},
	},
	{
		Name:        "set-channel-random-reply-chance",
		Description: "Set random character replies chance for this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "chance",
				Description: "Chance in percent (0-100)",
				Required:    true,
			},
			silentOption,
		},
	},
	{
		Name:        "hunt-user",
		Description: "Make character respond on messages of certain user (or bot)",
		Options: []*discordgo.ApplicationCommandOption{
			characterOption("Webhook ID or character name prefix"),
			stringOption("user-id-or-character-prefix", "User mention, user ID, or another character's prefix", true),
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "chance",
				Description: "Response chance in percent (default 100)",
			},
			silentOption,
		},
	},
	{
		Name:        "stop-hunt-user",
		Description: "Stop hunting user",
		Options: []*discordgo.ApplicationCommandOption{
			characterOption("Webhook ID or character name prefix"),
			stringOption("user-id-or-character-prefix", "User mention, user ID, or another character's prefix", true),
			silentOption,
		},
	},
	{
		Name:        "reset-character",
		Description: "Forget all history and start chat from the beginning",
		Options: []*discordgo.ApplicationCommandOption{
			characterOption("Webhook ID or character name prefix"),
			silentOption,
		},
	},
	{
		Name:        "set-server-messages-format",
		Description: "Change messages format used for all new characters on this server by default",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("new-format", "Template; must contain {{msg}}", true),
			silentOption,
		},
	},
	{
		Name:        "drop-server-messages-format",
		Description: "Drop default messages format for this server",
		Options:     []*discordgo.ApplicationCommandOption{silentOption},
	},
	{
		Name:        "set-server-jailbreak-prompt",
		Description: "Change default jailbreak prompt for this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("new-prompt", "Prompt text", true),
			silentOption,
		},
	},
	{
		Name:        "drop-server-jailbreak-prompt",
		Description: "Drop default jailbreak prompt for this server",
		Options:     []*discordgo.ApplicationCommandOption{silentOption},
	},
	{
		Name:        "set-server-cai-token",
		Description: "Set default CharacterAI auth token for this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("token", "CharacterAI auth token", true),
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "has-plus-subscription",
				Description: "Route requests to the c.ai+ host",
			},
			silentOption,
		},
	},
	{
		Name:        "set-server-aisekai-auth",
		Description: "Set default Aisekai account for this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("email", "Account email", true),
			stringOption("password", "Account password", true),
			silentOption,
		},
	},
	{
		Name:        "set-server-openai-api",
		Description: "Set default OpenAI API for this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("token", "API token", true),
			stringOption("model", "Model id", false),
			stringOption("endpoint", "API endpoint override", false),
			silentOption,
		},
	},
	{
		Name:        "set-server-koboldai-api",
		Description: "Set default KoboldAI API for this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("endpoint", "KoboldAI endpoint URL", true),
			silentOption,
		},
	},
	{
		Name:        "set-server-horde-koboldai-api",
		Description: "Set default Horde KoboldAI API for this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("token", "Horde API token", true),
			stringOption("model", "Preferred model", false),
			silentOption,
		},
	},
	{
		Name:        "get-horde-koboldai-workers",
		Description: "Get the list of available Horde KoboldAI workers",
		Options:     []*discordgo.ApplicationCommandOption{silentOption},
	},
	{
		Name:        "say",
		Description: "Make character say something",
		Options: []*discordgo.ApplicationCommandOption{
			characterOption("Webhook ID or character name prefix"),
			stringOption("text", "Text to say", true),
			silentOption,
		},
	},
	{
		Name:        "block-user",
		Description: "Make characters ignore certain user on this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("user-id", "User mention or ID", true),
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "hours",
				Description: "Block duration in hours (0 or empty = forever)",
			},
			silentOption,
		},
	},
	{
		Name:        "unblock-user",
		Description: "Unblock a user on this server",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("user-id", "User mention or ID", true),
			silentOption,
		},
	},
	{
		Name:        "ping",
		Description: "ping",
	},
	{
		Name:        "help",
		Description: "All basic info about bot",
	},
	{
		Name:        "help-messages-format",
		Description: "Info about messages format",
	},
}
