package characters

import "github.com/zarathos291x/Character-Engine-Discord/internal/store"

// FallbackMessagesFormat is used when neither the character nor the
// guild define one.
const FallbackMessagesFormat = "{{msg}}"

// Settings is the flattened view a backend call actually uses, after
// the character-over-guild cascade has been applied.
type Settings struct {
	APIToken        string
	APIModel        string
	APIEndpoint     string
	JailbreakPrompt string
	MessagesFormat  string

	Temperature     *float64
	MaxTokens       *int
	FreqPenalty     *float64
	PresencePenalty *float64
}

// EffectiveSettings resolves the settings for one character within its
// guild. Per-character overrides win; otherwise the guild credential
// slot for the character's backend kind applies.
func EffectiveSettings(g *store.Guild, c *store.Character) Settings {
	s := Settings{
		Temperature:     c.Temperature,
		MaxTokens:       c.MaxTokens,
		FreqPenalty:     c.FreqPenalty,
		PresencePenalty: c.PresencePenalty,
	}

	switch c.IntegrationType {
	case store.IntegrationCharacterAI:
		s.APIToken = pick(c.APIToken, g.CAIToken)
	case store.IntegrationAisekai:
		s.APIToken = pick(c.APIToken, g.AisekaiAuthToken)
	case store.IntegrationOpenAI:
		s.APIToken = pick(c.APIToken, g.OpenAIToken)
		s.APIModel = pick(c.APIModel, g.OpenAIModel)
		s.APIEndpoint = pick(c.APIEndpoint, g.OpenAIEndpoint)
	case store.IntegrationKoboldAI:
		s.APIEndpoint = pick(c.APIEndpoint, g.KoboldAIEndpoint)
	case store.IntegrationHordeKoboldAI:
		s.APIToken = pick(c.APIToken, g.HordeToken)
		s.APIModel = pick(c.APIModel, g.HordeModel)
	}

	s.JailbreakPrompt = pick(c.JailbreakPrompt, g.JailbreakPrompt)

	s.MessagesFormat = pick(c.MessagesFormat, g.MessagesFormat)
	if s.MessagesFormat == "" {
		s.MessagesFormat = FallbackMessagesFormat
	}
	return s
}

func pick(override, fallback *string) string {
	if override != nil && *override != "" {
		return *override
	}
	if fallback != nil {
		return *fallback
	}
	return ""
}
