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

// CAIClient talks to the character.ai private API. Plus-mode accounts are
// routed to a separate host.
type CAIClient struct {
	baseURL     string
	plusBaseURL string
	client      *http.Client
}

func NewCAIClient(cfg config.Integrations) *CAIClient {
	return &CAIClient{
		baseURL:     strings.TrimRight(cfg.CharacterAI.BaseURL, "/"),
		plusBaseURL: strings.TrimRight(cfg.CharacterAI.PlusBaseURL, "/"),
		client:      &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second},
	}
}

type caiCreateChatRequest struct {
	CharacterExternalID string `json:"character_external_id"`
}

type caiCreateChatResponse struct {
	ExternalID string `json:"external_id"`
}

// CreateNewChat opens a fresh chat with the remote character and returns its
// handle. The backend occasionally accepts the request but returns an empty
// handle; that is surfaced as ErrBackendUnavailable so the caller keeps the
// previous conversation.
func (c *CAIClient) CreateNewChat(ctx context.Context, token, remoteCharacterID string, plusMode bool) (string, error) {
	host := c.baseURL
	if plusMode {
		host = c.plusBaseURL
	}

	data, err := json.Marshal(caiCreateChatRequest{CharacterExternalID: remoteCharacterID})
	if err != nil {
		return "", fmt.Errorf("characterai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/chat/history/create/", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("characterai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("characterai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &HTTPError{Status: resp.StatusCode, Body: "characterai: " + string(body)}
	}

	var out caiCreateChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("characterai: decode response: %w", err)
	}
	if out.ExternalID == "" {
		return "", fmt.Errorf("characterai: empty chat handle: %w", ErrBackendUnavailable)
	}
	return out.ExternalID, nil
}
