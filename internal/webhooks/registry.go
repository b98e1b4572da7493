package webhooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Discord allows roughly 30 webhook executions per minute per webhook; the
// limiter stays under that with a small burst for conversational back-and-forth.
const (
	sendInterval = 2 * time.Second
	sendBurst    = 5
)

type senderHandle struct {
	token   string
	limiter *rate.Limiter
}

// Sender delivers character messages through their webhook identities, one
// rate limiter per identity. Handles survive for the process lifetime; on
// restart they are rebuilt from the character table.
type Sender struct {
	provider IdentityProvider
	handles  sync.Map // id -> *senderHandle
}

func NewSender(p IdentityProvider) *Sender {
	return &Sender{provider: p}
}

func (s *Sender) Register(id, token string) {
	s.handles.Store(id, &senderHandle{
		token:   token,
		limiter: rate.NewLimiter(rate.Every(sendInterval), sendBurst),
	})
}

// Ensure registers the handle unless one already exists. Used on the send
// path so characters created before the last restart regain a handle without
// resetting a live limiter.
func (s *Sender) Ensure(id, token string) {
	s.handles.LoadOrStore(id, &senderHandle{
		token:   token,
		limiter: rate.NewLimiter(rate.Every(sendInterval), sendBurst),
	})
}

func (s *Sender) Unregister(id string) {
	s.handles.Delete(id)
}

// Send waits for the identity's rate limiter and posts the text. A stale or
// never-registered id fails with ErrRemoteIdentity instead of panicking, so a
// character deleted mid-flight degrades to a logged error.
func (s *Sender) Send(ctx context.Context, id, text string) error {
	v, ok := s.handles.Load(id)
	if !ok {
		return fmt.Errorf("%w: no send handle for identity %s", ErrRemoteIdentity, id)
	}
	h := v.(*senderHandle)

	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if err := s.provider.Send(ctx, id, h.token, text); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteIdentity, err)
	}
	return nil
}
