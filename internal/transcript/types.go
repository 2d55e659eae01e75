package transcript

import (
	"context"
	"time"
)

// Record stores one chat exchange: the visitor prompt and the in-character
// reply that went back, plus whether the reply carried grounding sources.
type Record struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Grounded  bool      `json:"grounded"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists chat exchanges for later review. Saving is best-effort: a
// store failure must never change the response sent to the client.
type Store interface {
	SaveExchange(ctx context.Context, record Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
