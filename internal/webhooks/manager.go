package webhooks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zarathos291x/Character-Engine-Discord/internal/format"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

const (
	bulkDeleteConcurrency = 8
	compensateTimeout     = 15 * time.Second
)

// Manager owns the character identity lifecycle: the remote webhook and the
// local record move together, remote-first on create and local-always on
// delete.
type Manager struct {
	provider IdentityProvider
	sender   *Sender
	stores   *store.Stores
	client   *http.Client
	log      *slog.Logger
}

func NewManager(p IdentityProvider, sender *Sender, stores *store.Stores, log *slog.Logger) *Manager {
	return &Manager{
		provider: p,
		sender:   sender,
		stores:   stores,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// SafeName rewrites webhook names Discord rejects: a name containing
// "discord" gets its latin o and c swapped for the Cyrillic lookalikes.
func SafeName(name string) string {
	if !strings.Contains(strings.ToLower(name), "discord") {
		return name
	}
	name = strings.ReplaceAll(name, "o", "о")
	return strings.ReplaceAll(name, "c", "с")
}

// CreateParams describes a character to spawn in a channel.
type CreateParams struct {
	ChannelID         string
	IntegrationType   store.IntegrationType
	Name              string
	AvatarURL         string
	Greeting          string
	CallPrefix        string
	RemoteCharacterID string

	// Engine-level defaults stamped onto the new character.
	MessagesFormat *string
	ResponseDelay  int
}

// Create provisions the remote identity first and persists the character only
// on success, so a failed webhook call leaves no local record behind. The
// reverse failure (local write after remote success) is compensated by
// deleting the fresh webhook.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*store.Character, error) {
	avatar := FetchAvatar(ctx, m.client, p.AvatarURL)

	id, token, err := m.provider.CreateIdentity(ctx, p.ChannelID, SafeName(p.Name), avatarReader(avatar))
	if err != nil {
		return nil, fmt.Errorf("%w: create webhook: %v", ErrRemoteIdentity, err)
	}

	c := &store.Character{
		ID:                id,
		WebhookToken:      token,
		ChannelID:         p.ChannelID,
		IntegrationType:   p.IntegrationType,
		Name:              p.Name,
		AvatarURL:         p.AvatarURL,
		Greeting:          p.Greeting,
		CallPrefix:        strings.ToLower(p.CallPrefix),
		RemoteCharacterID: p.RemoteCharacterID,
		MessagesFormat:    p.MessagesFormat,
		ResponseDelay:     p.ResponseDelay,
	}
	if err := m.stores.Characters.Create(ctx, c); err != nil {
		m.compensateDelete(ctx, id)
		return nil, fmt.Errorf("persist character: %w", err)
	}

	if !c.IntegrationType.HasRemoteMemory() && c.Greeting != "" {
		if err := m.stores.History.Reset(ctx, c.ID, c.Greeting); err != nil {
			m.log.Warn("seed greeting history", "character_id", c.ID, "error", err)
		}
	}

	m.sender.Register(id, token)
	return c, nil
}

// Copy clones a character into another channel under a fresh identity.
// Conversation state never travels: ActiveHistoryID is dropped and local
// history restarts at the greeting. If announcing the greeting fails after
// the records are committed, both the webhook and the record are rolled back
// so the channel is not left with a mute character.
func (m *Manager) Copy(ctx context.Context, src *store.Character, targetChannelID string) (*store.Character, error) {
	if _, err := m.provider.GetIdentity(ctx, src.ID); err != nil {
		return nil, fmt.Errorf("source identity %s: %w", src.ID, err)
	}

	avatar := FetchAvatar(ctx, m.client, src.AvatarURL)

	id, token, err := m.provider.CreateIdentity(ctx, targetChannelID, SafeName(src.Name), avatarReader(avatar))
	if err != nil {
		return nil, fmt.Errorf("%w: create webhook: %v", ErrRemoteIdentity, err)
	}

	clone := *src
	clone.ID = id
	clone.WebhookToken = token
	clone.ChannelID = targetChannelID
	clone.ActiveHistoryID = nil
	clone.MessagesSent = 0
	clone.LastCallAt = nil

	if err := m.stores.Characters.Create(ctx, &clone); err != nil {
		m.compensateDelete(ctx, id)
		return nil, fmt.Errorf("persist character copy: %w", err)
	}

	if !clone.IntegrationType.HasRemoteMemory() && clone.Greeting != "" {
		if err := m.stores.History.Reset(ctx, clone.ID, clone.Greeting); err != nil {
			m.log.Warn("seed greeting history", "character_id", clone.ID, "error", err)
		}
	}

	m.sender.Register(id, token)

	if clone.Greeting != "" {
		greeting := format.RenderGreeting(clone.Greeting, clone.Name, "everyone")
		if err := m.sender.Send(ctx, id, format.TruncateForDiscord(greeting)); err != nil {
			m.rollbackCopy(ctx, &clone)
			return nil, fmt.Errorf("announce greeting: %w", err)
		}
	}
	return &clone, nil
}

func (m *Manager) rollbackCopy(ctx context.Context, c *store.Character) {
	m.sender.Unregister(c.ID)
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := m.provider.DeleteIdentity(dctx, c.ID); err != nil {
		m.log.Warn("rollback webhook delete", "webhook_id", c.ID, "error", err)
	}
	if err := m.stores.Characters.Delete(dctx, c.ID); err != nil {
		m.log.Warn("rollback record delete", "character_id", c.ID, "error", err)
	}
}

// compensateDelete removes a just-created webhook after a later step failed.
// It runs detached from the command context so a cancelled command still gets
// its compensating delete through instead of orphaning the remote identity.
func (m *Manager) compensateDelete(ctx context.Context, id string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := m.provider.DeleteIdentity(dctx, id); err != nil {
		m.log.Warn("compensating webhook delete failed", "webhook_id", id, "error", err)
	}
}

// Delete removes one character. The remote delete is best-effort; local
// removal happens regardless, so the engine's view always converges to
// "character gone".
func (m *Manager) Delete(ctx context.Context, c *store.Character) error {
	m.sender.Unregister(c.ID)
	if err := m.provider.DeleteIdentity(ctx, c.ID); err != nil {
		m.log.Warn("remote webhook delete", "webhook_id", c.ID, "error", err)
	}
	if err := m.stores.Characters.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("delete character record: %w", err)
	}
	return nil
}

// BulkDelete removes every given character concurrently. Remote failures are
// logged and swallowed per character; each goroutine still runs its local
// removal, and the aggregate error only reflects local removals.
func (m *Manager) BulkDelete(ctx context.Context, chars []*store.Character) error {
	var g errgroup.Group
	g.SetLimit(bulkDeleteConcurrency)

	for _, c := range chars {
		g.Go(func() error {
			m.sender.Unregister(c.ID)
			if err := m.provider.DeleteIdentity(ctx, c.ID); err != nil {
				m.log.Warn("remote webhook delete", "webhook_id", c.ID, "error", err)
			}
			if err := m.stores.Characters.Delete(ctx, c.ID); err != nil {
				return fmt.Errorf("delete character %s: %w", c.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
