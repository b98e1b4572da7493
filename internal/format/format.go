// Package format validates and renders message-format templates: the shape of
// what a character receives when a user talks to it.
package format

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholders recognized in a messages format. The ref_msg trio wraps the
// referenced (replied-to) message so the whole block can be dropped when the
// user message is not a reply.
const (
	PlaceholderMessage  = "{{msg}}"
	PlaceholderUser     = "{{user}}"
	PlaceholderRefBegin = "{{ref_msg_begin}}"
	PlaceholderRefUser  = "{{ref_msg_user}}"
	PlaceholderRefText  = "{{ref_msg_text}}"
	PlaceholderRefEnd   = "{{ref_msg_end}}"
)

// Placeholders substituted inside character greetings.
const (
	PlaceholderChar = "{{char}}"
)

// DiscordMessageLimit is the hard cap on a single Discord message.
const DiscordMessageLimit = 2000

// ErrInvalidFormat reports a malformed messages format.
var ErrInvalidFormat = errors.New("invalid messages format")

// Validate checks a candidate messages format: {{msg}} is required, and the
// correlated ref_msg begin/text/end placeholders appear either all together
// or not at all.
func Validate(format string) error {
	if !strings.Contains(format, PlaceholderMessage) {
		return fmt.Errorf("%w: missing %s placeholder", ErrInvalidFormat, PlaceholderMessage)
	}

	refs := 0
	for _, p := range []string{PlaceholderRefBegin, PlaceholderRefText, PlaceholderRefEnd} {
		if strings.Contains(format, p) {
			refs++
		}
	}
	if refs != 0 && refs != 3 {
		return fmt.Errorf("%w: ref_msg placeholders must appear all together (found %d of 3)", ErrInvalidFormat, refs)
	}
	return nil
}

// Input carries the values substituted into a format.
type Input struct {
	Message  string
	UserName string

	// Referenced (replied-to) message, used when HasRef is true.
	HasRef    bool
	RefAuthor string
	RefText   string
}

// Render substitutes the placeholders of a validated format. It never fails:
// with no reference present, the whole ref_msg block is removed; the begin and
// end markers themselves never survive into the output. Literal \n sequences
// become newlines last.
func Render(format string, in Input) string {
	out := format

	if strings.Contains(out, PlaceholderRefBegin) {
		if in.HasRef {
			out = strings.ReplaceAll(out, PlaceholderRefText, in.RefText)
			out = strings.ReplaceAll(out, PlaceholderRefUser, in.RefAuthor)
			out = strings.ReplaceAll(out, PlaceholderRefBegin, "")
			out = strings.ReplaceAll(out, PlaceholderRefEnd, "")
		} else {
			out = stripRefBlock(out)
		}
	}

	out = strings.ReplaceAll(out, PlaceholderUser, in.UserName)
	out = strings.ReplaceAll(out, PlaceholderMessage, in.Message)
	return strings.ReplaceAll(out, `\n`, "\n")
}

// RenderGreeting substitutes {{char}} and {{user}} in a character greeting.
func RenderGreeting(greeting, charName, userName string) string {
	out := strings.ReplaceAll(greeting, PlaceholderChar, "**"+charName+"**")
	return strings.ReplaceAll(out, PlaceholderUser, "**"+userName+"**")
}

// TruncateForDiscord cuts a message down to the Discord length limit. The
// limit counts characters, not bytes, so the cut is taken on runes.
func TruncateForDiscord(s string) string {
	if len(s) <= DiscordMessageLimit {
		return s // cannot exceed the limit in characters either
	}
	runes := []rune(s)
	if len(runes) <= DiscordMessageLimit {
		return s
	}
	return string(runes[:DiscordMessageLimit-6]) + "[...]"
}

func stripRefBlock(format string) string {
	begin := strings.Index(format, PlaceholderRefBegin)
	end := strings.Index(format, PlaceholderRefEnd)
	if begin < 0 || end < 0 || end < begin {
		return format
	}
	return format[:begin] + format[end+len(PlaceholderRefEnd):]
}
