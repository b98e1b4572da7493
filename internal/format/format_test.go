package format

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"plain msg only", "{{msg}}", false},
		{"msg with user", "{{user}} says: {{msg}}", false},
		{"missing msg", "{{user}} says something", true},
		{"empty", "", true},
		{
			"full ref trio",
			"{{ref_msg_begin}}({{ref_msg_text}} from {{ref_msg_user}}){{ref_msg_end}} {{msg}}",
			false,
		},
		{"one ref placeholder", "{{ref_msg_begin}} {{msg}}", true},
		{"two ref placeholders", "{{ref_msg_begin}}{{ref_msg_text}} {{msg}}", true},
		{"begin and end without text", "{{ref_msg_begin}}{{ref_msg_end}} {{msg}}", true},
		// ref_msg_user is not part of the correlated trio.
		{"ref user alone", "{{ref_msg_user}} {{msg}}", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.format)
			if tt.wantErr && !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Validate(%q) = %v, want ErrInvalidFormat", tt.format, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.format, err)
			}
		})
	}
}

func TestRender_Basic(t *testing.T) {
	got := Render("{{user}} says: {{msg}}", Input{Message: "Hello!", UserName: "Lemon"})
	if got != "Lemon says: Hello!" {
		t.Errorf("Render() = %q, want %q", got, "Lemon says: Hello!")
	}
}

func TestRender_WithReference(t *testing.T) {
	f := `{{ref_msg_begin}}((In response to '{{ref_msg_text}}' from '{{ref_msg_user}}')){{ref_msg_end}}\n{{user}} says:\n{{msg}}`
	if err := Validate(f); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got := Render(f, Input{
		Message:   "Are you there?",
		UserName:  "Lemon",
		HasRef:    true,
		RefAuthor: "Met",
		RefText:   "Hello",
	})

	want := "((In response to 'Hello' from 'Met'))\nLemon says:\nAre you there?"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if strings.Contains(got, "ref_msg") {
		t.Errorf("begin/end markers leaked into output: %q", got)
	}
}

func TestRender_NoReferenceStripsBlock(t *testing.T) {
	f := `{{ref_msg_begin}}(re: {{ref_msg_text}}){{ref_msg_end}}{{user}}: {{msg}}`
	got := Render(f, Input{Message: "hi", UserName: "Lemon"})
	if got != "Lemon: hi" {
		t.Errorf("Render() = %q, want %q", got, "Lemon: hi")
	}
}

func TestRender_UnescapesNewlines(t *testing.T) {
	got := Render(`{{user}}:\n{{msg}}`, Input{Message: "hi", UserName: "A"})
	if got != "A:\nhi" {
		t.Errorf("Render() = %q, want %q", got, "A:\nhi")
	}
}

func TestRenderGreeting(t *testing.T) {
	got := RenderGreeting("Hi {{user}}, I am {{char}}.", "Sphynx", "Lemon")
	want := "Hi **Lemon**, I am **Sphynx**."
	if got != want {
		t.Errorf("RenderGreeting() = %q, want %q", got, want)
	}
}

func TestTruncateForDiscord(t *testing.T) {
	short := "hello"
	if got := TruncateForDiscord(short); got != short {
		t.Errorf("short message modified: %q", got)
	}

	long := strings.Repeat("x", DiscordMessageLimit+50)
	got := TruncateForDiscord(long)
	if len(got) > DiscordMessageLimit {
		t.Errorf("truncated message still over limit: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "[...]") {
		t.Errorf("truncated message missing marker: %q", got[len(got)-10:])
	}
}

func TestTruncateForDiscord_MultiByte(t *testing.T) {
	exact := strings.Repeat("й", DiscordMessageLimit)
	if got := TruncateForDiscord(exact); got != exact {
		t.Error("message at the character limit was modified")
	}

	long := strings.Repeat("й", DiscordMessageLimit+1)
	got := TruncateForDiscord(long)
	if !utf8.ValidString(got) {
		t.Errorf("truncated message is not valid UTF-8: ...%q", got[len(got)-12:])
	}
	if n := utf8.RuneCountInString(got); n > DiscordMessageLimit {
		t.Errorf("truncated message = %d chars, want <= %d", n, DiscordMessageLimit)
	}
	if !strings.HasSuffix(got, "[...]") {
		t.Error("truncated message missing marker")
	}
}
