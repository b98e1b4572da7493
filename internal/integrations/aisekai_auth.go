package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// authRefresher rotates a guild's Aisekai token pair. Refreshes for the same
// guild are serialized so that concurrent 401s cannot burn the refresh token
// twice; each triggering call gets exactly one refresh attempt.
type authRefresher struct {
	client *AisekaiClient
	guilds store.GuildStore
	log    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAuthRefresher(client *AisekaiClient, guilds store.GuildStore, log *slog.Logger) *authRefresher {
	return &authRefresher{
		client: client,
		guilds: guilds,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (r *authRefresher) guildLock(guildID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[guildID] = l
	}
	return l
}

// Refresh consumes the guild's refresh token and returns the new auth token.
// The new pair is persisted before the token is handed back, so a crash after
// this call cannot leave the stored pair behind the live session.
func (r *authRefresher) Refresh(ctx context.Context, guildID string) (string, error) {
	lock := r.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	g, err := r.guilds.Get(ctx, guildID)
	if err != nil {
		return "", fmt.Errorf("load guild: %w", err)
	}
	if g.AisekaiRefreshToken == nil || *g.AisekaiRefreshToken == "" {
		return "", fmt.Errorf("no refresh token on record: %w", ErrAuthFailed)
	}

	pair, err := r.client.RefreshSession(ctx, *g.AisekaiRefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if err := r.guilds.SetAisekaiTokens(ctx, guildID, pair.AccessToken, pair.RefreshToken); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	r.log.Info("aisekai session refreshed", "guild_id", guildID)
	return pair.AccessToken, nil
}
