package characters

import (
	"context"
	"errors"
	"testing"

	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

type fakeCharacterStore struct {
	store.CharacterStore
	chars []*store.Character
}

func (f *fakeCharacterStore) ListByChannel(_ context.Context, _ string) ([]*store.Character, error) {
	return f.chars, nil
}

func TestResolve(t *testing.T) {
	chars := []*store.Character{
		{ID: "111", Name: "Sphinx of Black Quartz", ChannelID: "c1"},
		{ID: "222", Name: "Sparrow", ChannelID: "c1"},
		{ID: "333", Name: "Judge", ChannelID: "c1"},
	}
	r := NewResolver(&fakeCharacterStore{chars: chars})

	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr bool
	}{
		{"exact id", "222", "222", false},
		{"unique prefix", "jud", "333", false},
		{"prefix is case-insensitive", "SPHI", "111", false},
		{"ambiguous prefix", "sp", "", true},
		{"no match", "dragon", "", true},
		{"id beats prefix", "111", "111", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), "c1", tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrCharacterNotFound) {
					t.Fatalf("Resolve(%q) err = %v, want ErrCharacterNotFound", tt.query, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) err = %v", tt.query, err)
			}
			if got.ID != tt.wantID {
				t.Errorf("Resolve(%q) = %s, want %s", tt.query, got.ID, tt.wantID)
			}
		})
	}
}
