package discord

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/zarathos291x/Character-Engine-Discord/internal/webhooks"
)

// WebhookProvider implements the identity provider on top of Discord channel
// webhooks.
type WebhookProvider struct {
	session *discordgo.Session
}

func NewWebhookProvider(session *discordgo.Session) *WebhookProvider {
	return &WebhookProvider{session: session}
}

func (p *WebhookProvider) CreateIdentity(ctx context.Context, channelID, name string, avatar io.Reader) (string, string, error) {
	avatarURI := ""
	if avatar != nil {
		data, err := io.ReadAll(avatar)
		if err != nil {
			return "", "", fmt.Errorf("read avatar: %w", err)
		}
		avatarURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	}

	wh, err := p.session.WebhookCreate(channelID, name, avatarURI, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", fmt.Errorf("create webhook: %w", err)
	}
	return wh.ID, wh.Token, nil
}

func (p *WebhookProvider) GetIdentity(ctx context.Context, id string) (*webhooks.Identity, error) {
	wh, err := p.session.Webhook(id, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, webhooks.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("fetch webhook: %w", err)
	}
	return &webhooks.Identity{ID: wh.ID, Name: wh.Name}, nil
}

func (p *WebhookProvider) DeleteIdentity(ctx context.Context, id string) error {
	err := p.session.WebhookDelete(id, discordgo.WithContext(ctx))
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

func (p *WebhookProvider) Send(ctx context.Context, id, token, text string) error {
	_, err := p.session.WebhookExecute(id, token, false, &discordgo.WebhookParams{Content: text}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("execute webhook: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var rerr *discordgo.RESTError
	return errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound
}
