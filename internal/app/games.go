package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cinequiz-service/internal/domain"
)

// GameStore is the persistence boundary for mini-game aggregates. Update must
// apply fn atomically per (kind, genre) key so concurrent result submissions
// never lose a personal best.
type GameStore interface {
	Get(ctx context.Context, kind domain.GameKind, genre string) (domain.GameAggregate, error)
	Update(ctx context.Context, kind domain.GameKind, genre string, fn func(*domain.GameAggregate) error) (domain.GameAggregate, error)
	Snapshot(ctx context.Context) (domain.GameStats, domain.Leaderboards, error)
}

// ApplyGameResult folds one finished round into a (game, genre) aggregate and
// reports whether the stored record improved. Pure reducer: callers on either
// side of the wire get the same answer for the same inputs.
//
// Replacement is strictly monotonic. Scalar games replace on score strictly
// greater than the stored best; rounds-based games replace on rounds strictly
// greater, carrying the new run's average percentage along (ties keep the old
// record, whatever its percentage). Only scalar results with score > 0 are
// admitted to the board; an existing entry is only ever raised, and the board
// stays sorted descending with ties keeping their prior relative order.
func ApplyGameResult(kind domain.GameKind, agg domain.GameAggregate, userID string, result domain.GameResult) (domain.GameAggregate, bool) {
	out := agg.Clone()
	improved := false

	if kind.RoundsBased() {
		if result.Rounds > out.Record.Rounds {
			out.Record = domain.GameRecord{Rounds: result.Rounds, AvgPercentage: result.AvgPercentage}
			improved = true
		}
		return out, improved
	}

	if result.Score > out.Record.Score {
		out.Record = domain.GameRecord{Score: result.Score}
		improved = true
	}

	if result.Score > 0 {
		admitted := false
		for i := range out.Board {
			if out.Board[i].UserID == userID {
				if result.Score > out.Board[i].Score {
					out.Board[i].Score = result.Score
				}
				admitted = true
				break
			}
		}
		if !admitted {
			out.Board = append(out.Board, domain.LeaderboardEntry{UserID: userID, Score: result.Score})
		}
		sort.SliceStable(out.Board, func(i, j int) bool {
			return out.Board[i].Score > out.Board[j].Score
		})
	}
	return out, improved
}

type boardKey struct {
	kind  domain.GameKind
	genre string
}

// GameService tracks per-genre personal bests and leaderboards for the
// mini-games, and fans board updates out to watchers.
type GameService struct {
	store GameStore
	now   func() time.Time

	mu       sync.Mutex
	watchers map[boardKey]map[chan domain.Leaderboard]struct{}
}

func NewGameService(store GameStore) *GameService {
	return NewGameServiceWithClock(store, time.Now)
}

// NewGameServiceWithClock allows deterministic timestamps in tests.
func NewGameServiceWithClock(store GameStore, now func() time.Time) *GameService {
	return &GameService{
		store:    store,
		now:      now,
		watchers: make(map[boardKey]map[chan domain.Leaderboard]struct{}),
	}
}

// UpdateGameResult records a finished mini-game round and returns the full
// aggregate view after the update. Mini-game results never touch quiz
// aggregates; the two flows are independent.
func (s *GameService) UpdateGameResult(ctx context.Context, kind domain.GameKind, genre, userID string, result domain.GameResult) (domain.GameSummary, error) {
	if err := validateGameKey(kind, genre); err != nil {
		return domain.GameSummary{}, err
	}
	if userID == "" {
		return domain.GameSummary{}, &domain.ValidationError{Msg: "userId is required"}
	}

	agg, err := s.store.Update(ctx, kind, genre, func(a *domain.GameAggregate) error {
		next, _ := ApplyGameResult(kind, *a, userID, result)
		*a = next
		return nil
	})
	if err != nil {
		return domain.GameSummary{}, fmt.Errorf("update game aggregate: %w", err)
	}

	s.broadcast(kind, genre, agg.Board)

	stats, boards, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.GameSummary{}, fmt.Errorf("snapshot game aggregates: %w", err)
	}
	return domain.GameSummary{Stats: stats, Leaderboards: boards}, nil
}

// Leaderboard returns the board for one (game, genre) pair.
func (s *GameService) Leaderboard(ctx context.Context, kind domain.GameKind, genre string) ([]domain.LeaderboardEntry, error) {
	if err := validateGameKey(kind, genre); err != nil {
		return nil, err
	}
	agg, err := s.store.Get(ctx, kind, genre)
	if err != nil {
		return nil, err
	}
	return agg.Board, nil
}

// Summary returns every high-score record and leaderboard, for profile views.
func (s *GameService) Summary(ctx context.Context) (domain.GameSummary, error) {
	stats, boards, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.GameSummary{}, err
	}
	return domain.GameSummary{Stats: stats, Leaderboards: boards}, nil
}

// Watch returns a channel receiving board snapshots for a (game, genre) pair,
// starting with the current state. The caller must invoke the returned cancel
// function to avoid leaks.
func (s *GameService) Watch(ctx context.Context, kind domain.GameKind, genre string) (<-chan domain.Leaderboard, func(), error) {
	if err := validateGameKey(kind, genre); err != nil {
		return nil, nil, err
	}
	agg, err := s.store.Get(ctx, kind, genre)
	if err != nil {
		return nil, nil, err
	}

	key := boardKey{kind: kind, genre: genre}
	ch := make(chan domain.Leaderboard, 8)

	s.mu.Lock()
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[chan domain.Leaderboard]struct{})
	}
	s.watchers[key][ch] = struct{}{}
	s.mu.Unlock()

	ch <- s.snapshot(kind, genre, agg.Board)

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.watchers[key][ch]; ok {
			delete(s.watchers[key], ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *GameService) broadcast(kind domain.GameKind, genre string, board []domain.LeaderboardEntry) {
	lb := s.snapshot(kind, genre, board)
	key := boardKey{kind: kind, genre: genre}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers[key] {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so a slow watcher never blocks updates.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (s *GameService) snapshot(kind domain.GameKind, genre string, board []domain.LeaderboardEntry) domain.Leaderboard {
	return domain.Leaderboard{
		Game:      kind,
		Genre:     genre,
		Entries:   append([]domain.LeaderboardEntry(nil), board...),
		UpdatedAt: s.now(),
	}
}

func validateGameKey(kind domain.GameKind, genre string) error {
	if !kind.Valid() {
		return &domain.ValidationError{Msg: fmt.Sprintf("unknown game kind %q", kind)}
	}
	if genre == "" {
		return &domain.ValidationError{Msg: "genre is required"}
	}
	return nil
}
