// Package characters resolves user-supplied identifiers to spawned
// characters and computes their effective backend settings.
package characters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// ErrCharacterNotFound is returned when an identifier matches no
// character, or matches more than one by prefix.
var ErrCharacterNotFound = errors.New("character not found")

// Resolver looks up characters within a single channel.
type Resolver struct {
	characters store.CharacterStore
}

func NewResolver(cs store.CharacterStore) *Resolver {
	return &Resolver{characters: cs}
}

// Resolve finds the character in channelID identified by query. The
// query is tried as an exact webhook ID first, then as a
// case-insensitive prefix of character names. A prefix that matches
// several characters is treated the same as no match, so the caller
// never acts on the wrong character.
func (r *Resolver) Resolve(ctx context.Context, channelID, query string) (*store.Character, error) {
	chars, err := r.characters.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}

	for _, c := range chars {
		if c.ID == query {
			return c, nil
		}
	}

	q := strings.ToLower(query)
	var match *store.Character
	for _, c := range chars {
		if strings.HasPrefix(strings.ToLower(c.Name), q) {
			if match != nil {
				return nil, ErrCharacterNotFound
			}
			match = c
		}
	}
	if match == nil {
		return nil, ErrCharacterNotFound
	}
	return match, nil
}
