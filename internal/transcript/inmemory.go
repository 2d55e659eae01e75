package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps the most recent exchanges in process memory. Used when
// no DATABASE_URL is configured; records do not survive a restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	retain  int
}

func NewInMemoryStore(retain int) *InMemoryStore {
	if retain <= 0 {
		retain = 200
	}
	return &InMemoryStore{retain: retain}
}

func (s *InMemoryStore) SaveExchange(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, record)
	if len(s.records) > s.retain {
		s.records = s.records[len(s.records)-s.retain:]
	}
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]Record, 0, limit)
	for i := len(s.records) - limit; i < len(s.records); i++ {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
