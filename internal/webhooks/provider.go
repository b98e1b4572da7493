// Package webhooks manages the Discord webhook identities characters speak
// through: creation, copying across channels, deletion, and rate-limited
// message delivery.
package webhooks

import (
	"context"
	"errors"
	"io"
)

// ErrRemoteIdentity wraps failures of the remote identity surface (webhook
// create/delete/execute).
var ErrRemoteIdentity = errors.New("remote identity operation failed")

// ErrIdentityNotFound means the remote identity no longer exists.
var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the remote side of a character: the webhook as the platform
// sees it.
type Identity struct {
	ID   string
	Name string
}

// IdentityProvider is the platform surface behind character identities. The
// Discord transport implements it with channel webhooks.
type IdentityProvider interface {
	// CreateIdentity provisions a named identity in the channel and returns
	// its id and send token. avatar may be nil.
	CreateIdentity(ctx context.Context, channelID, name string, avatar io.Reader) (id, token string, err error)

	// GetIdentity fetches the identity, or ErrIdentityNotFound.
	GetIdentity(ctx context.Context, id string) (*Identity, error)

	// DeleteIdentity removes the identity. An identity that is already gone
	// is not an error.
	DeleteIdentity(ctx context.Context, id string) error

	// Send posts text through the identity.
	Send(ctx context.Context, id, token, text string) error
}
