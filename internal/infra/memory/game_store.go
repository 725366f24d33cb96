package memory

import (
	"context"
	"sync"

	"cinequiz-service/internal/domain"
)

type gameKey struct {
	kind  domain.GameKind
	genre string
}

// GameStore is an in-memory implementation of app.GameStore. A single lock
// serializes updates, which gives the per-key atomicity the service needs.
// Aggregates are created lazily on first update and never deleted.
type GameStore struct {
	mu         sync.RWMutex
	aggregates map[gameKey]domain.GameAggregate
}

func NewGameStore() *GameStore {
	return &GameStore{aggregates: make(map[gameKey]domain.GameAggregate)}
}

func (s *GameStore) Get(_ context.Context, kind domain.GameKind, genre string) (domain.GameAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregates[gameKey{kind: kind, genre: genre}].Clone(), nil
}

func (s *GameStore) Update(_ context.Context, kind domain.GameKind, genre string, fn func(*domain.GameAggregate) error) (domain.GameAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := gameKey{kind: kind, genre: genre}
	working := s.aggregates[key].Clone()
	if err := fn(&working); err != nil {
		return domain.GameAggregate{}, err
	}
	s.aggregates[key] = working
	return working.Clone(), nil
}

func (s *GameStore) Snapshot(_ context.Context) (domain.GameStats, domain.Leaderboards, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(domain.GameStats)
	boards := make(domain.Leaderboards)
	for key, agg := range s.aggregates {
		if stats[key.kind] == nil {
			stats[key.kind] = make(map[string]domain.GameRecord)
		}
		stats[key.kind][key.genre] = agg.Record
		if len(agg.Board) > 0 {
			if boards[key.kind] == nil {
				boards[key.kind] = make(map[string][]domain.LeaderboardEntry)
			}
			boards[key.kind][key.genre] = append([]domain.LeaderboardEntry(nil), agg.Board...)
		}
	}
	return stats, boards, nil
}
