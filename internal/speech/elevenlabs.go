package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
}

// ElevenLabsProvider calls the text-to-speech and voices endpoints over plain
// HTTP with the shared bounded-timeout client.
type ElevenLabsProvider struct {
	cfg    ElevenLabsConfig
	client *http.Client
}

func NewElevenLabsProvider(cfg ElevenLabsConfig, client *http.Client) *ElevenLabsProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ElevenLabsProvider{cfg: cfg, client: client}
}

type synthesisPayload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, voiceID, text string, settings Settings) ([]byte, error) {
	payload, err := json.Marshal(synthesisPayload{
		Text:    text,
		ModelID: settings.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       settings.Stability,
			SimilarityBoost: settings.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call elevenlabs: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		detail := readLimited(res.Body)
		return nil, fmt.Errorf("%w: voice %q: %s", ErrVoiceNotFound, voiceID, strings.TrimSpace(string(detail)))
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &RejectedError{Status: res.StatusCode, Body: string(readLimited(res.Body))}
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

func (p *ElevenLabsProvider) Voices(ctx context.Context) ([]CatalogVoice, error) {
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/voices"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call elevenlabs voices: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail := readLimited(res.Body)
		return nil, fmt.Errorf("elevenlabs voices status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed struct {
		Voices []CatalogVoice `json:"voices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return parsed.Voices, nil
}

func readLimited(r io.Reader) []byte {
	b, _ := io.ReadAll(io.LimitReader(r, 1<<20))
	return b
}
