// Package targeting decides which characters react to an inbound message:
// explicit calls, hunted senders, and per-channel random replies, gated by the
// guild block list.
package targeting

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

// Engine evaluates engagement decisions. The random source is injectable so
// chance paths are testable.
type Engine struct {
	rand func() float64 // uniform draw in [0, 1)
}

func New() *Engine {
	return &Engine{rand: rand.Float64}
}

// NewWithRand creates an Engine with a custom uniform source.
func NewWithRand(r func() float64) *Engine {
	return &Engine{rand: r}
}

// Message is the inbound message under decision.
type Message struct {
	AuthorID string
	Content  string
	// RepliedToSenderID is the author id of the message this one replies to,
	// empty when the message is not a reply.
	RepliedToSenderID string
}

// Reason records which path triggered an engagement.
type Reason string

const (
	ReasonAddressed Reason = "addressed"
	ReasonHunted    Reason = "hunted"
	ReasonRandom    Reason = "random"
)

// Engagement is one character's decision to react.
type Engagement struct {
	Character *store.Character
	Reason    Reason
}

// Decide returns every character that engages on the message. Characters are
// independent: several may engage on the same message. A blocked author never
// triggers any path.
func (e *Engine) Decide(
	msg Message,
	ch *store.Channel,
	chars []*store.Character,
	hunted map[string][]store.HuntedUser,
	blocks []store.BlockedUser,
	now time.Time,
) []Engagement {
	if Blocked(blocks, msg.AuthorID, now) {
		return nil
	}

	var result []Engagement
	for _, c := range chars {
		if c.ID == msg.AuthorID {
			continue // a character never reacts to itself
		}

		switch {
		case Addressed(c, msg):
			result = append(result, Engagement{Character: c, Reason: ReasonAddressed})
		case e.hunts(hunted[c.ID], msg.AuthorID):
			result = append(result, Engagement{Character: c, Reason: ReasonHunted})
		case ch.RandomReplyChance > 0 && e.draw(ch.RandomReplyChance):
			result = append(result, Engagement{Character: c, Reason: ReasonRandom})
		}
	}
	return result
}

// Addressed reports whether the message explicitly calls the character: the
// content starts with its call prefix, or the message replies to one of the
// character's own messages.
func Addressed(c *store.Character, msg Message) bool {
	if msg.RepliedToSenderID != "" && msg.RepliedToSenderID == c.ID {
		return true
	}
	if c.CallPrefix == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(msg.Content), strings.ToLower(c.CallPrefix))
}

// Blocked reports whether the author has an active block. Hours == 0 blocks
// indefinitely; otherwise the block expires at From + Hours.
func Blocked(blocks []store.BlockedUser, authorID string, now time.Time) bool {
	for _, b := range blocks {
		if b.UserID == authorID && b.ActiveAt(now) {
			return true
		}
	}
	return false
}

func (e *Engine) hunts(entries []store.HuntedUser, authorID string) bool {
	for _, h := range entries {
		if h.UserID == authorID {
			return e.draw(h.Chance)
		}
	}
	return false
}

// draw returns true with the given percent chance.
func (e *Engine) draw(chance float64) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return e.rand()*100 < chance
}
