// Package discord is the engine's Discord transport: the gateway connection,
// the slash command surface, and the message handler that decides whether a
// character speaks.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zarathos291x/Character-Engine-Discord/internal/characters"
	"github.com/zarathos291x/Character-Engine-Discord/internal/config"
	"github.com/zarathos291x/Character-Engine-Discord/internal/format"
	"github.com/zarathos291x/Character-Engine-Discord/internal/integrations"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
	"github.com/zarathos291x/Character-Engine-Discord/internal/targeting"
	"github.com/zarathos291x/Character-Engine-Discord/internal/webhooks"
)

const (
	handleTimeout  = 2 * time.Minute
	refTextPreview = 200
)

// Channel connects to Discord via the Bot API using gateway events.
type Channel struct {
	session   *discordgo.Session
	cfg       config.Config
	botUserID string // populated on start

	stores       *store.Stores
	engine       *targeting.Engine
	sender       *webhooks.Sender
	manager      *webhooks.Manager
	resolver     *characters.Resolver
	integrations *integrations.Service

	handlers map[string]commandHandler
}

// New creates the Discord channel and wires the webhook-backed identity
// provider into the lifecycle manager.
func New(cfg config.Config, stores *store.Stores, svc *integrations.Service, log *slog.Logger) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	provider := NewWebhookProvider(session)
	sender := webhooks.NewSender(provider)

	c := &Channel{
		session:      session,
		cfg:          cfg,
		stores:       stores,
		engine:       targeting.New(),
		sender:       sender,
		manager:      webhooks.NewManager(provider, sender, stores, log),
		resolver:     characters.NewResolver(stores.Characters),
		integrations: svc,
	}
	c.handlers = c.commandHandlers()
	return c, nil
}

// Start opens the gateway connection and registers the slash commands.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting discord bot")

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleInteraction)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.botUserID = user.ID

	if err := c.registerCommands(ctx); err != nil {
		c.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}

	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the gateway connection.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	return c.session.Close()
}

// handleMessage runs the targeting decision for every guild message. Plain
// bots are ignored, but webhook-authored messages pass through so characters
// can hunt each other.
func (c *Channel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.botUserID {
		return
	}
	if m.GuildID == "" {
		return
	}
	if m.Author.Bot && m.WebhookID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	guild, err := c.stores.Guilds.FindOrCreate(ctx, m.GuildID)
	if err != nil {
		slog.Error("load guild", "guild_id", m.GuildID, "error", err)
		return
	}
	channel, err := c.stores.Channels.FindOrCreate(ctx, m.ChannelID, m.GuildID)
	if err != nil {
		slog.Error("load channel", "channel_id", m.ChannelID, "error", err)
		return
	}

	chars, err := c.stores.Characters.ListByChannel(ctx, m.ChannelID)
	if err != nil {
		slog.Error("list channel characters", "channel_id", m.ChannelID, "error", err)
		return
	}
	if len(chars) == 0 {
		return
	}

	blocks, err := c.stores.Guilds.ListBlockedUsers(ctx, m.GuildID)
	if err != nil {
		slog.Error("list blocked users", "guild_id", m.GuildID, "error", err)
		return
	}

	hunted := make(map[string][]store.HuntedUser, len(chars))
	for _, ch := range chars {
		entries, err := c.stores.Characters.ListHunted(ctx, ch.ID)
		if err != nil {
			slog.Error("list hunted users", "character_id", ch.ID, "error", err)
			continue
		}
		hunted[ch.ID] = entries
	}

	msg := targeting.Message{
		AuthorID:          m.Author.ID,
		Content:           m.Content,
		RepliedToSenderID: repliedToSenderID(m),
	}

	for _, e := range c.engine.Decide(msg, channel, chars, hunted, blocks, time.Now()) {
		c.engage(ctx, guild, e.Character, m, e.Reason)
	}
}

// engage formats the inbound message for one engaged character, records it,
// and speaks through the character's webhook.
func (c *Channel) engage(ctx context.Context, guild *store.Guild, char *store.Character, m *discordgo.MessageCreate, reason targeting.Reason) {
	settings := characters.EffectiveSettings(guild, char)
	// Neither character nor guild set a format: the engine-level default applies.
	if char.MessagesFormat == nil && guild.MessagesFormat == nil && c.cfg.Defaults.MessagesFormat != "" {
		settings.MessagesFormat = c.cfg.Defaults.MessagesFormat
	}

	in := format.Input{
		Message:  strippedContent(char, m),
		UserName: displayName(m),
	}
	if char.ReferencesEnabled && m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		in.HasRef = true
		in.RefAuthor = m.ReferencedMessage.Author.Username
		in.RefText = truncate(m.ReferencedMessage.Content, refTextPreview)
	}
	text := format.Render(settings.MessagesFormat, in)

	if !char.IntegrationType.HasRemoteMemory() {
		err := c.stores.History.Append(ctx, store.HistoryMessage{
			CharacterID: char.ID,
			Role:        "user",
			Content:     text,
		})
		if err != nil {
			slog.Warn("append history", "character_id", char.ID, "error", err)
		}
	}
	if err := c.stores.Characters.RecordCall(ctx, char.ID); err != nil {
		slog.Warn("record call", "character_id", char.ID, "error", err)
	}

	if char.ResponseDelay > 0 {
		select {
		case <-time.After(time.Duration(char.ResponseDelay) * time.Second):
		case <-ctx.Done():
			return
		}
	}

	c.sender.Ensure(char.ID, char.WebhookToken)
	if err := c.sender.Send(ctx, char.ID, format.TruncateForDiscord(text)); err != nil {
		slog.Warn("character send", "character_id", char.ID, "error", err)
		return
	}

	slog.Debug("character engaged",
		"character_id", char.ID,
		"channel_id", m.ChannelID,
		"reason", string(reason),
	)
}

// strippedContent removes the character's call prefix from an addressed
// message so the prefix never leaks into the conversation.
func strippedContent(char *store.Character, m *discordgo.MessageCreate) string {
	content := m.Content
	if char.CallPrefix == "" || len(content) < len(char.CallPrefix) {
		return content
	}
	if targeting.Addressed(char, targeting.Message{Content: content}) && m.MessageReference == nil {
		return content[len(char.CallPrefix):]
	}
	return content
}

func repliedToSenderID(m *discordgo.MessageCreate) string {
	if m.ReferencedMessage == nil || m.ReferencedMessage.Author == nil {
		return ""
	}
	return m.ReferencedMessage.Author.ID
}

// displayName prefers server nickname, then global display name, then username.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
