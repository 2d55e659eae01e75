package speech

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ent0n29/timedial/internal/observability"
)

const audioContentType = "audio/mpeg"

// Gateway sanitizes input, resolves the voice identifier and relays the
// synthesized audio. Unlike chat, failures surface as typed errors: there is
// no transparent way to substitute fallback audio.
type Gateway struct {
	provider          Provider
	settings          Settings
	defaultVoiceID    string
	fallbackVoiceName string
	metrics           *observability.Metrics

	// Voice catalog, populated on the first fallback event and kept for the
	// process lifetime. Concurrent populate is benign (last write wins), so a
	// lock-free swap is enough. Known staleness risk: the provider's library
	// can change under us and is never re-fetched.
	catalog atomic.Pointer[[]CatalogVoice]
}

// NewGateway wires a speech provider. A nil provider marks the capability as
// unavailable; Synthesize then fails with ErrNotConfigured before any call.
func NewGateway(provider Provider, settings Settings, defaultVoiceID, fallbackVoiceName string, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		provider:          provider,
		settings:          settings,
		defaultVoiceID:    strings.TrimSpace(defaultVoiceID),
		fallbackVoiceName: strings.TrimSpace(fallbackVoiceName),
		metrics:           metrics,
	}
}

func (g *Gateway) Synthesize(ctx context.Context, req Request) (Audio, error) {
	if g.provider == nil {
		return Audio{}, ErrNotConfigured
	}

	text := sanitizeText(req.Text)
	voiceID := strings.TrimSpace(req.VoiceID)
	if voiceID == "" {
		voiceID = g.defaultVoiceID
	}

	data, err := g.call(ctx, voiceID, text)
	if errors.Is(err, ErrVoiceNotFound) {
		fallback, ferr := g.resolveFallbackVoice(ctx)
		if ferr != nil {
			g.metrics.VoiceFallbacks.WithLabelValues("exhausted").Inc()
			return Audio{}, ferr
		}
		log.Printf("voice %q not found, diverting to %q (%s)", voiceID, fallback.Name, fallback.VoiceID)
		g.metrics.VoiceFallbacks.WithLabelValues("resolved").Inc()
		data, err = g.call(ctx, fallback.VoiceID, text)
	}
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			g.metrics.ProviderErrors.WithLabelValues("elevenlabs", strconv.Itoa(rejected.Status)).Inc()
		} else {
			g.metrics.ProviderErrors.WithLabelValues("elevenlabs", "unreachable").Inc()
		}
		return Audio{}, err
	}
	return Audio{Data: data, ContentType: audioContentType}, nil
}

func (g *Gateway) call(ctx context.Context, voiceID, text string) ([]byte, error) {
	start := time.Now()
	data, err := g.provider.Synthesize(ctx, voiceID, text, g.settings)
	g.metrics.ObserveProviderLatency("elevenlabs", time.Since(start))
	return data, err
}

// resolveFallbackVoice picks the preferred catalog voice by case-insensitive
// name match, else the first entry. Only non-empty catalogs are cached, so a
// failed or empty fetch is retried on the next fallback event.
func (g *Gateway) resolveFallbackVoice(ctx context.Context) (CatalogVoice, error) {
	var voices []CatalogVoice
	if cached := g.catalog.Load(); cached != nil {
		voices = *cached
	} else {
		fetched, err := g.provider.Voices(ctx)
		if err != nil {
			log.Printf("voice catalog fetch failed: %v", err)
			return CatalogVoice{}, ErrNoVoiceAvailable
		}
		if len(fetched) > 0 {
			g.catalog.Store(&fetched)
		}
		voices = fetched
	}
	if len(voices) == 0 {
		return CatalogVoice{}, ErrNoVoiceAvailable
	}
	for _, v := range voices {
		if strings.EqualFold(strings.TrimSpace(v.Name), g.fallbackVoiceName) {
			return v, nil
		}
	}
	return voices[0], nil
}
