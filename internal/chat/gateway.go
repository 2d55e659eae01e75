package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ent0n29/timedial/internal/observability"
)

// The persona wrapper is a hard business rule: every provider call constrains
// the character to short, markup-free, in-character speech.
const personaTemplate = "Role: %s\nConstraint: 2 sentences max. No markdown. Never break character. Never reveal you are an AI."

const defaultTemperature = 0.7

// In-character lines substituted when the provider cannot answer. The persona
// never visibly breaks, so these are replies, not errors.
const (
	fallbackUnconfigured = "The temporal link to your era was never established. Seek out the keeper of the keys."
	fallbackSpeechless   = "I am momentarily speechless..."
	fallbackFailing      = "The temporal link is failing. I cannot hear you clearly."
)

// Gateway produces a chat response for every request. Converse never fails:
// provider errors are logged and absorbed into persona-consistent fallbacks.
type Gateway struct {
	provider Provider
	metrics  *observability.Metrics
}

// NewGateway wires a chat provider. A nil provider marks the capability as
// unavailable (missing credential); Converse then degrades gracefully.
func NewGateway(provider Provider, metrics *observability.Metrics) *Gateway {
	return &Gateway{provider: provider, metrics: metrics}
}

func (g *Gateway) Converse(ctx context.Context, req Request) Response {
	if g.provider == nil {
		g.metrics.ChatFallbacks.WithLabelValues("unconfigured").Inc()
		return Response{Text: fallbackUnconfigured, Sources: []Source{}}
	}

	turns := make([]Turn, 0, len(req.History)+1)
	turns = append(turns, req.History...)
	turns = append(turns, Turn{Role: "user", Parts: []Part{{Text: req.Prompt}}})

	start := time.Now()
	out, err := g.provider.Generate(ctx, GenerateInput{
		SystemInstruction: fmt.Sprintf(personaTemplate, req.SystemInstruction),
		Temperature:       defaultTemperature,
		EnableSearch:      true,
		Turns:             turns,
	})
	g.metrics.ObserveProviderLatency("gemini", time.Since(start))
	if err != nil {
		log.Printf("chat provider error (absorbed into persona fallback): %v", err)
		g.metrics.ProviderErrors.WithLabelValues("gemini", "generate_failed").Inc()
		g.metrics.ChatFallbacks.WithLabelValues("provider_error").Inc()
		return Response{Text: fallbackFailing, Sources: []Source{}}
	}

	text := out.Text
	if strings.TrimSpace(text) == "" {
		g.metrics.ChatFallbacks.WithLabelValues("empty_text").Inc()
		text = fallbackSpeechless
	}
	sources := out.Sources
	if sources == nil {
		sources = []Source{}
	}
	return Response{Text: text, Sources: sources}
}
