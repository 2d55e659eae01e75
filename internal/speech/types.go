package speech

import "context"

// Request asks for synthesis of text with an optional voice override.
type Request struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// Audio is an opaque synthesized payload. The bytes are relayed unmodified:
// no transcoding, resampling, or validation happens on this side.
type Audio struct {
	Data        []byte
	ContentType string
}

// CatalogVoice is one entry from the provider's voice library.
type CatalogVoice struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

// Settings is the fixed synthesis profile. It is configuration, not
// negotiated per-request.
type Settings struct {
	ModelID         string
	Stability       float64
	SimilarityBoost float64
}

// Provider performs raw synthesis calls and voice catalog lookups.
type Provider interface {
	Synthesize(ctx context.Context, voiceID, text string, settings Settings) ([]byte, error)
	Voices(ctx context.Context) ([]CatalogVoice, error)
}
