package memory

import (
	"context"
	"sync"

	"cinequiz-service/internal/domain"
)

// HistoryStore keeps each user's play-history ledger in memory: append-only,
// most recent first, no capacity bound.
type HistoryStore struct {
	mu      sync.RWMutex
	ledgers map[string][]domain.UserPlayRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{ledgers: make(map[string][]domain.UserPlayRecord)}
}

func (s *HistoryStore) Append(_ context.Context, userID string, record domain.UserPlayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[userID] = append([]domain.UserPlayRecord{record}, s.ledgers[userID]...)
	return nil
}

func (s *HistoryStore) List(_ context.Context, userID string) ([]domain.UserPlayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UserPlayRecord(nil), s.ledgers[userID]...), nil
}
