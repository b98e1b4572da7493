package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zarathos291x/Character-Engine-Discord/internal/config"
)

// HordeClient queries the KoboldAI Horde cluster. Generation goes through the
// per-character endpoint settings; this client only handles worker discovery.
type HordeClient struct {
	baseURL string
	client  *http.Client
}

func NewHordeClient(cfg config.Integrations) *HordeClient {
	return &HordeClient{
		baseURL: strings.TrimRight(cfg.Horde.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second},
	}
}

// HordeWorker is one text worker currently attached to the cluster.
type HordeWorker struct {
	Name             string   `json:"name"`
	Models           []string `json:"models"`
	MaxLength        int      `json:"max_length"`
	MaxContextLength int      `json:"max_context_length"`
	Performance      string   `json:"performance"`
	Uptime           int64    `json:"uptime"`
}

// ListTextWorkers returns the text workers the cluster currently advertises.
func (h *HordeClient) ListTextWorkers(ctx context.Context) ([]HordeWorker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/v2/workers?type=text", nil)
	if err != nil {
		return nil, fmt.Errorf("horde: create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("horde: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{Status: resp.StatusCode, Body: "horde: " + string(body)}
	}

	var workers []HordeWorker
	if err := json.NewDecoder(resp.Body).Decode(&workers); err != nil {
		return nil, fmt.Errorf("horde: decode response: %w", err)
	}
	return workers, nil
}
