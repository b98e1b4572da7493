package integrations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zarathos291x/Character-Engine-Discord/internal/characters"
	"github.com/zarathos291x/Character-Engine-Discord/internal/config"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// Service dispatches backend operations across the integration kinds. All
// kinds share one reset protocol: afterwards the character behaves as if the
// conversation had just started, greeting included.
type Service struct {
	stores    *store.Stores
	cai       *CAIClient
	aisekai   *AisekaiClient
	horde     *HordeClient
	refresher *authRefresher
	log       *slog.Logger
}

func NewService(cfg config.Integrations, stores *store.Stores, log *slog.Logger) *Service {
	aisekai := NewAisekaiClient(cfg)
	return &Service{
		stores:    stores,
		cai:       NewCAIClient(cfg),
		aisekai:   aisekai,
		horde:     NewHordeClient(cfg),
		refresher: newAuthRefresher(aisekai, stores.Guilds, log),
		log:       log,
	}
}

// ResetConversation restarts the character's conversation on its backend.
// Remote-memory kinds reset server-side state; local kinds clear the stored
// history and seed it with the greeting.
func (s *Service) ResetConversation(ctx context.Context, g *store.Guild, c *store.Character) error {
	settings := characters.EffectiveSettings(g, c)

	switch c.IntegrationType {
	case store.IntegrationNone:
		return ErrNoBackendConfigured

	case store.IntegrationCharacterAI:
		return s.resetCharacterAI(ctx, g, c, settings)

	case store.IntegrationAisekai:
		return s.resetAisekai(ctx, g, c, settings)

	case store.IntegrationOpenAI, store.IntegrationKoboldAI, store.IntegrationHordeKoboldAI:
		if err := s.stores.History.Reset(ctx, c.ID, c.Greeting); err != nil {
			return fmt.Errorf("reset local history: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown integration type %q: %w", c.IntegrationType, ErrNoBackendConfigured)
	}
}

func (s *Service) resetCharacterAI(ctx context.Context, g *store.Guild, c *store.Character, settings characters.Settings) error {
	if settings.APIToken == "" {
		return fmt.Errorf("no character.ai token configured: %w", ErrAuthFailed)
	}

	handle, err := s.cai.CreateNewChat(ctx, settings.APIToken, c.RemoteCharacterID, g.CAIPlusMode)
	if err != nil {
		return err
	}
	if err := s.stores.Characters.SetActiveHistoryID(ctx, c.ID, &handle); err != nil {
		return fmt.Errorf("store chat handle: %w", err)
	}
	s.log.Info("characterai chat reset", "character_id", c.ID, "handle", handle)
	return nil
}

// resetAisekai runs the bounded reset sequence: one call, then on a 401 a
// single token refresh followed by a single retry. A second failure is
// terminal for this trigger; the next user action starts a fresh sequence.
func (s *Service) resetAisekai(ctx context.Context, g *store.Guild, c *store.Character, settings characters.Settings) error {
	if c.ActiveHistoryID == nil || *c.ActiveHistoryID == "" {
		return fmt.Errorf("character has no active chat: %w", ErrBackendUnavailable)
	}
	if settings.APIToken == "" {
		return fmt.Errorf("no aisekai session on record: %w", ErrAuthFailed)
	}

	greeting, err := s.aisekai.ResetChatHistory(ctx, settings.APIToken, *c.ActiveHistoryID)
	if err != nil {
		if !IsUnauthorized(err) {
			return fmt.Errorf("%w: %v", ErrBackendError, err)
		}
		token, rerr := s.refresher.Refresh(ctx, g.ID)
		if rerr != nil {
			return rerr
		}
		greeting, err = s.aisekai.ResetChatHistory(ctx, token, *c.ActiveHistoryID)
		if err != nil {
			return fmt.Errorf("%w: retry after refresh: %v", ErrBackendError, err)
		}
	}

	// The backend opens the fresh conversation with its own greeting; the
	// stored one follows it.
	if greeting != "" && greeting != c.Greeting {
		c.Greeting = greeting
		if err := s.stores.Characters.Update(ctx, c); err != nil {
			return fmt.Errorf("store refreshed greeting: %w", err)
		}
	}
	return nil
}

// AuthorizeAisekai signs in with account credentials and stores the resulting
// token pair as the guild's session. Credentials are used once and discarded.
func (s *Service) AuthorizeAisekai(ctx context.Context, guildID, email, password string) error {
	pair, err := s.aisekai.Authorize(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if err := s.stores.Guilds.SetAisekaiTokens(ctx, guildID, pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}

// ListHordeWorkers surfaces the cluster's current text workers.
func (s *Service) ListHordeWorkers(ctx context.Context) ([]HordeWorker, error) {
	return s.horde.ListTextWorkers(ctx)
}
