package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zarathos291x/Character-Engine-Discord/internal/config"
)

// AisekaiClient talks to the Aisekai API. Sessions are short-lived bearer
// tokens; a paired refresh token mints the next session.
type AisekaiClient struct {
	baseURL string
	client  *http.Client
}

func NewAisekaiClient(cfg config.Integrations) *AisekaiClient {
	return &AisekaiClient{
		baseURL: strings.TrimRight(cfg.Aisekai.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second},
	}
}

// TokenPair is one session: the bearer token used on API calls plus the
// refresh token that replaces it once it expires.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Authorize exchanges account credentials for a token pair.
func (a *AisekaiClient) Authorize(ctx context.Context, email, password string) (TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := a.post(ctx, "/v1/auths/sign-in", "", body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("aisekai: sign in: %w", err)
	}
	return pair, nil
}

// RefreshSession exchanges a refresh token for a new token pair. The old pair
// is invalid after this call succeeds.
func (a *AisekaiClient) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var pair TokenPair
	if err := a.post(ctx, "/v1/auths/refresh-token", "", body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("aisekai: refresh session: %w", err)
	}
	return pair, nil
}

// ResetChatHistory clears the remote conversation behind chatID and returns
// the fresh greeting the backend opens the new conversation with. A 401 is
// returned as *HTTPError so the caller can decide to refresh and retry.
func (a *AisekaiClient) ResetChatHistory(ctx context.Context, authToken, chatID string) (string, error) {
	var out struct {
		Greeting string `json:"greeting"`
	}
	if err := a.post(ctx, "/v1/chats/"+chatID+"/reset", authToken, struct{}{}, &out); err != nil {
		return "", err
	}
	return out.Greeting, nil
}

func (a *AisekaiClient) post(ctx context.Context, path, bearer string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{Status: resp.StatusCode, Body: "aisekai: " + string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
