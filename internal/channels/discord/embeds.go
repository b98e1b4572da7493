package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

const (
	colorSuccess = 0x5cb85c
	colorWarn    = 0xd9534f
)

func successEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: "✅ " + text, Color: colorSuccess}
}

func warnEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: "⚠ " + text, Color: colorWarn}
}

// respond answers an interaction with a single embed. With silent set, the
// reply is ephemeral.
func (c *Channel) respond(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, silent bool) {
	var flags discordgo.MessageFlags
	if silent {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
	if err != nil {
		slog.Warn("interaction respond", "error", err)
	}
}

// deferResponse acknowledges the interaction so slow handlers get more than
// the three-second interaction window.
func (c *Channel) deferResponse(i *discordgo.InteractionCreate, silent bool) {
	var flags discordgo.MessageFlags
	if silent {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err != nil {
		slog.Warn("interaction defer", "error", err)
	}
}

func (c *Channel) followup(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := c.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		slog.Warn("interaction followup", "error", err)
	}
}

type cmdOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

func options(i *discordgo.InteractionCreate) cmdOptions {
	data := i.ApplicationCommandData()
	m := make(cmdOptions, len(data.Options))
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}

func (o cmdOptions) str(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o cmdOptions) boolean(name string) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return false
}

func (o cmdOptions) number(name string, fallback float64) float64 {
	if opt, ok := o[name]; ok {
		return opt.FloatValue()
	}
	return fallback
}

func (o cmdOptions) channel(name string) string {
	if opt, ok := o[name]; ok {
		return opt.ChannelValue(nil).ID
	}
	return ""
}

func (o cmdOptions) integer(name string) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return 0
}
