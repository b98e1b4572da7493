package integrations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zarathos291x/Character-Engine-Discord/internal/config"
	"github.com/zarathos291x/Character-Engine-Discord/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGuildStore struct {
	store.GuildStore
	guild     *store.Guild
	setCalls  int
	lastAuth  string
	lastFresh string
}

func (f *fakeGuildStore) Get(_ context.Context, _ string) (*store.Guild, error) {
	return f.guild, nil
}

func (f *fakeGuildStore) SetAisekaiTokens(_ context.Context, _, auth, refresh string) error {
	f.setCalls++
	f.lastAuth = auth
	f.lastFresh = refresh
	f.guild.AisekaiAuthToken = &auth
	f.guild.AisekaiRefreshToken = &refresh
	return nil
}

type fakeCharStore struct {
	store.CharacterStore
	historyID *string
	updated   *store.Character
}

func (f *fakeCharStore) SetActiveHistoryID(_ context.Context, _ string, id *string) error {
	f.historyID = id
	return nil
}

func (f *fakeCharStore) Update(_ context.Context, c *store.Character) error {
	f.updated = c
	return nil
}

type fakeHistoryStore struct {
	store.HistoryStore
	resets int
}

func (f *fakeHistoryStore) Reset(_ context.Context, _, _ string) error {
	f.resets++
	return nil
}

func strp(s string) *string { return &s }

func newTestService(t *testing.T, base string, guilds *fakeGuildStore, chars *fakeCharStore, hist *fakeHistoryStore) *Service {
	t.Helper()
	cfg := config.Integrations{
		CharacterAI:    config.CharacterAI{BaseURL: base, PlusBaseURL: base},
		Aisekai:        config.Aisekai{BaseURL: base},
		Horde:          config.Horde{BaseURL: base},
		RequestTimeout: 5,
	}
	stores := &store.Stores{Guilds: guilds, Characters: chars, History: hist}
	return NewService(cfg, stores, discardLogger())
}

func aisekaiGuild() *store.Guild {
	return &store.Guild{
		ID:                  "g1",
		AisekaiAuthToken:    strp("stale-auth"),
		AisekaiRefreshToken: strp("refresh-1"),
	}
}

func aisekaiCharacter() *store.Character {
	return &store.Character{
		ID:              "w1",
		IntegrationType: store.IntegrationAisekai,
		ActiveHistoryID: strp("chat-1"),
	}
}

func TestResetAisekai_PersistentUnauthorizedStopsAfterOneRefresh(t *testing.T) {
	var resetCalls, refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auths/refresh-token":
			refreshCalls++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"accessToken":"auth-2","refreshToken":"refresh-2"}`))
		case "/v1/chats/chat-1/reset":
			resetCalls++
			w.WriteHeader(http.StatusUnauthorized)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	guilds := &fakeGuildStore{guild: aisekaiGuild()}
	svc := newTestService(t, srv.URL, guilds, &fakeCharStore{}, &fakeHistoryStore{})

	err := svc.ResetConversation(context.Background(), guilds.guild, aisekaiCharacter())
	if !errors.Is(err, ErrBackendError) {
		t.Fatalf("err = %v, want ErrBackendError", err)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh attempts = %d, want exactly 1", refreshCalls)
	}
	if resetCalls != 2 {
		t.Errorf("reset attempts = %d, want 2 (original + one retry)", resetCalls)
	}
}

func TestResetAisekai_RefreshFailureIsAuthFailed(t *testing.T) {
	var refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auths/refresh-token":
			refreshCalls++
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	guilds := &fakeGuildStore{guild: aisekaiGuild()}
	svc := newTestService(t, srv.URL, guilds, &fakeCharStore{}, &fakeHistoryStore{})

	err := svc.ResetConversation(context.Background(), guilds.guild, aisekaiCharacter())
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh attempts = %d, want exactly 1", refreshCalls)
	}
	if guilds.setCalls != 0 {
		t.Errorf("tokens persisted %d times after failed refresh, want 0", guilds.setCalls)
	}
}

func TestResetAisekai_RefreshRecovers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auths/refresh-token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"accessToken":"auth-2","refreshToken":"refresh-2"}`))
		case "/v1/chats/chat-1/reset":
			if r.Header.Get("Authorization") == "Bearer auth-2" {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"greeting":"Fresh start!"}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	guilds := &fakeGuildStore{guild: aisekaiGuild()}
	chars := &fakeCharStore{}
	svc := newTestService(t, srv.URL, guilds, chars, &fakeHistoryStore{})

	c := aisekaiCharacter()
	if err := svc.ResetConversation(context.Background(), guilds.guild, c); err != nil {
		t.Fatalf("ResetConversation() err = %v", err)
	}
	if guilds.setCalls != 1 {
		t.Fatalf("tokens persisted %d times, want 1", guilds.setCalls)
	}
	if guilds.lastAuth != "auth-2" || guilds.lastFresh != "refresh-2" {
		t.Errorf("persisted pair = (%q, %q), want (auth-2, refresh-2)", guilds.lastAuth, guilds.lastFresh)
	}
	if c.Greeting != "Fresh start!" {
		t.Errorf("greeting = %q, want backend greeting", c.Greeting)
	}
	if chars.updated == nil || chars.updated.ID != "w1" {
		t.Error("refreshed greeting not persisted")
	}
}

func TestResetCharacterAI_EmptyHandleIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"external_id":""}`))
	}))
	defer srv.Close()

	guilds := &fakeGuildStore{guild: &store.Guild{ID: "g1", CAIToken: strp("cai-token")}}
	chars := &fakeCharStore{}
	svc := newTestService(t, srv.URL, guilds, chars, &fakeHistoryStore{})

	c := &store.Character{ID: "w1", IntegrationType: store.IntegrationCharacterAI, RemoteCharacterID: "remote-1"}
	err := svc.ResetConversation(context.Background(), guilds.guild, c)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if chars.historyID != nil {
		t.Error("chat handle stored despite empty backend response")
	}
}

func TestResetCharacterAI_StoresNewHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token cai-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"external_id":"chat-9"}`))
	}))
	defer srv.Close()

	guilds := &fakeGuildStore{guild: &store.Guild{ID: "g1", CAIToken: strp("cai-token")}}
	chars := &fakeCharStore{}
	svc := newTestService(t, srv.URL, guilds, chars, &fakeHistoryStore{})

	c := &store.Character{ID: "w1", IntegrationType: store.IntegrationCharacterAI, RemoteCharacterID: "remote-1"}
	if err := svc.ResetConversation(context.Background(), guilds.guild, c); err != nil {
		t.Fatalf("ResetConversation() err = %v", err)
	}
	if chars.historyID == nil || *chars.historyID != "chat-9" {
		t.Errorf("stored handle = %v, want chat-9", chars.historyID)
	}
}

func TestResetLocalKindsClearHistory(t *testing.T) {
	hist := &fakeHistoryStore{}
	svc := newTestService(t, "http://unreachable.invalid", &fakeGuildStore{guild: &store.Guild{ID: "g1"}}, &fakeCharStore{}, hist)

	for _, kind := range []store.IntegrationType{
		store.IntegrationOpenAI,
		store.IntegrationKoboldAI,
		store.IntegrationHordeKoboldAI,
	} {
		c := &store.Character{ID: "w1", IntegrationType: kind, Greeting: "hello"}
		if err := svc.ResetConversation(context.Background(), &store.Guild{ID: "g1"}, c); err != nil {
			t.Fatalf("%s: err = %v", kind, err)
		}
	}
	if hist.resets != 3 {
		t.Errorf("history resets = %d, want 3", hist.resets)
	}
}

func TestResetNoBackendConfigured(t *testing.T) {
	svc := newTestService(t, "http://unreachable.invalid", &fakeGuildStore{guild: &store.Guild{ID: "g1"}}, &fakeCharStore{}, &fakeHistoryStore{})

	c := &store.Character{ID: "w1", IntegrationType: store.IntegrationNone}
	err := svc.ResetConversation(context.Background(), &store.Guild{ID: "g1"}, c)
	if !errors.Is(err, ErrNoBackendConfigured) {
		t.Fatalf("err = %v, want ErrNoBackendConfigured", err)
	}
}

func TestListHordeWorkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/workers" || r.URL.Query().Get("type") != "text" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"worker-1","models":["m1","m2"],"max_length":512,"max_context_length":2048,"performance":"1.2 tokens/s","uptime":3600}]`))
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL, &fakeGuildStore{guild: &store.Guild{ID: "g1"}}, &fakeCharStore{}, &fakeHistoryStore{})

	workers, err := svc.ListHordeWorkers(context.Background())
	if err != nil {
		t.Fatalf("ListHordeWorkers() err = %v", err)
	}
	if len(workers) != 1 || workers[0].Name != "worker-1" || len(workers[0].Models) != 2 {
		t.Errorf("workers = %+v", workers)
	}
}
