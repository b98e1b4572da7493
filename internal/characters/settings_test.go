package characters

import (
	"testing"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

func strp(s string) *string { return &s }

func TestEffectiveSettings(t *testing.T) {
	tests := []struct {
		name  string
		guild store.Guild
		char  store.Character
		want  Settings
	}{
		{
			name:  "character token overrides guild",
			guild: store.Guild{OpenAIToken: strp("guild-key"), OpenAIModel: strp("gpt-4o")},
			char: store.Character{
				IntegrationType: store.IntegrationOpenAI,
				APIToken:        strp("char-key"),
			},
			want: Settings{APIToken: "char-key", APIModel: "gpt-4o", MessagesFormat: FallbackMessagesFormat},
		},
		{
			name:  "guild slot fills missing override",
			guild: store.Guild{CAIToken: strp("cai-token")},
			char:  store.Character{IntegrationType: store.IntegrationCharacterAI},
			want:  Settings{APIToken: "cai-token", MessagesFormat: FallbackMessagesFormat},
		},
		{
			name:  "kobold uses endpoint slot, not tokens",
			guild: store.Guild{KoboldAIEndpoint: strp("http://kobold:5000"), OpenAIToken: strp("unused")},
			char:  store.Character{IntegrationType: store.IntegrationKoboldAI},
			want:  Settings{APIEndpoint: "http://kobold:5000", MessagesFormat: FallbackMessagesFormat},
		},
		{
			name:  "horde model cascade",
			guild: store.Guild{HordeToken: strp("0000000000"), HordeModel: strp("guild-model")},
			char: store.Character{
				IntegrationType: store.IntegrationHordeKoboldAI,
				APIModel:        strp("char-model"),
			},
			want: Settings{APIToken: "0000000000", APIModel: "char-model", MessagesFormat: FallbackMessagesFormat},
		},
		{
			name:  "messages format falls through character then guild",
			guild: store.Guild{MessagesFormat: strp("guild: {{msg}}")},
			char:  store.Character{IntegrationType: store.IntegrationAisekai},
			want:  Settings{MessagesFormat: "guild: {{msg}}"},
		},
		{
			name:  "jailbreak prompt cascade",
			guild: store.Guild{JailbreakPrompt: strp("guild prompt")},
			char: store.Character{
				IntegrationType: store.IntegrationOpenAI,
				JailbreakPrompt: strp("char prompt"),
			},
			want: Settings{JailbreakPrompt: "char prompt", MessagesFormat: FallbackMessagesFormat},
		},
		{
			name:  "no backend configured yields empty credentials",
			guild: store.Guild{OpenAIToken: strp("unused")},
			char:  store.Character{IntegrationType: store.IntegrationNone},
			want:  Settings{MessagesFormat: FallbackMessagesFormat},
		},
		{
			name:  "empty-string override falls back",
			guild: store.Guild{OpenAIToken: strp("guild-key")},
			char: store.Character{
				IntegrationType: store.IntegrationOpenAI,
				APIToken:        strp(""),
			},
			want: Settings{APIToken: "guild-key", MessagesFormat: FallbackMessagesFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveSettings(&tt.guild, &tt.char)
			if got.APIToken != tt.want.APIToken {
				t.Errorf("APIToken = %q, want %q", got.APIToken, tt.want.APIToken)
			}
			if got.APIModel != tt.want.APIModel {
				t.Errorf("APIModel = %q, want %q", got.APIModel, tt.want.APIModel)
			}
			if got.APIEndpoint != tt.want.APIEndpoint {
				t.Errorf("APIEndpoint = %q, want %q", got.APIEndpoint, tt.want.APIEndpoint)
			}
			if got.JailbreakPrompt != tt.want.JailbreakPrompt {
				t.Errorf("JailbreakPrompt = %q, want %q", got.JailbreakPrompt, tt.want.JailbreakPrompt)
			}
			if got.MessagesFormat != tt.want.MessagesFormat {
				t.Errorf("MessagesFormat = %q, want %q", got.MessagesFormat, tt.want.MessagesFormat)
			}
		})
	}
}
