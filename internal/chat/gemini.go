package chat

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

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeminiProvider calls the generateContent endpoint over plain HTTP. The SDK
// is intentionally avoided: the request surface we need is three fields.
type GeminiProvider struct {
	cfg    GeminiConfig
	client *http.Client
}

func NewGeminiProvider(cfg GeminiConfig, client *http.Client) *GeminiProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.0-flash-exp"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiProvider{cfg: cfg, client: client}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	payload := geminiRequest{
		GenerationConfig: &geminiGenerationConfig{Temperature: in.Temperature},
	}
	if strings.TrimSpace(in.SystemInstruction) != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: in.SystemInstruction}}}
	}
	for _, turn := range in.Turns {
		parts := make([]geminiPart, 0, len(turn.Parts))
		for _, part := range turn.Parts {
			parts = append(parts, geminiPart{Text: part.Text})
		}
		payload.Contents = append(payload.Contents, geminiContent{Role: turn.Role, Parts: parts})
	}
	if in.EnableSearch {
		payload.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(p.cfg.Model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return GenerateOutput{}, fmt.Errorf("call gemini: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return GenerateOutput{}, fmt.Errorf("gemini status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return GenerateOutput{}, fmt.Errorf("decode response: %w", err)
	}
	return normalizeGeminiResponse(parsed), nil
}

// normalizeGeminiResponse reduces the wire shape to the stable contract: text
// from the first candidate, sources only where both title and URI are present,
// provider order preserved.
func normalizeGeminiResponse(parsed geminiResponse) GenerateOutput {
	var out GenerateOutput
	if len(parsed.Candidates) == 0 {
		return out
	}
	cand := parsed.Candidates[0]

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		text.WriteString(part.Text)
	}
	out.Text = text.String()

	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		title := strings.TrimSpace(chunk.Web.Title)
		uri := strings.TrimSpace(chunk.Web.URI)
		if title == "" || uri == "" {
			continue
		}
		out.Sources = append(out.Sources, Source{Title: title, URL: uri})
	}
	return out
}
