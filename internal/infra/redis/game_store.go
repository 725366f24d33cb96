package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"cinequiz-service/internal/domain"
)

const maxCASRetries = 5

// GameStore persists mini-game aggregates in Redis: one JSON value per
// (game, genre) key, updated with WATCH-based optimistic locking so
// concurrent result submissions for the same key never lose an update.
type GameStore struct {
	client *redis.Client
}

func NewGameStore(client *redis.Client) *GameStore {
	return &GameStore{client: client}
}

func (s *GameStore) Get(ctx context.Context, kind domain.GameKind, genre string) (domain.GameAggregate, error) {
	raw, err := s.client.Get(ctx, gameKey(kind, genre)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.GameAggregate{}, nil
	}
	if err != nil {
		return domain.GameAggregate{}, fmt.Errorf("load game aggregate: %w", err)
	}
	return decodeAggregate(raw)
}

func (s *GameStore) Update(ctx context.Context, kind domain.GameKind, genre string, fn func(*domain.GameAggregate) error) (domain.GameAggregate, error) {
	key := gameKey(kind, genre)
	var updated domain.GameAggregate

	txn := func(tx *redis.Tx) error {
		var agg domain.GameAggregate
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// first qualifying result for this key; start from zero
		case err != nil:
			return err
		default:
			if agg, err = decodeAggregate(raw); err != nil {
				return err
			}
		}

		if err := fn(&agg); err != nil {
			return err
		}
		data, err := json.Marshal(agg)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = agg
		return nil
	}

	for i := 0; i < maxCASRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue // key changed under us, retry
		}
		if err != nil {
			return domain.GameAggregate{}, fmt.Errorf("update game aggregate: %w", err)
		}
		return updated, nil
	}
	return domain.GameAggregate{}, fmt.Errorf("update game aggregate %s: too many conflicts", key)
}

func (s *GameStore) Snapshot(ctx context.Context) (domain.GameStats, domain.Leaderboards, error) {
	stats := make(domain.GameStats)
	boards := make(domain.Leaderboards)

	iter := s.client.Scan(ctx, 0, "game:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		kind, genre, ok := parseGameKey(key)
		if !ok {
			continue
		}
		raw, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot %s: %w", key, err)
		}
		agg, err := decodeAggregate(raw)
		if err != nil {
			return nil, nil, err
		}
		if stats[kind] == nil {
			stats[kind] = make(map[string]domain.GameRecord)
		}
		stats[kind][genre] = agg.Record
		if len(agg.Board) > 0 {
			if boards[kind] == nil {
				boards[kind] = make(map[string][]domain.LeaderboardEntry)
			}
			boards[kind][genre] = agg.Board
		}
	}
	if err := iter.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan game aggregates: %w", err)
	}
	return stats, boards, nil
}

func gameKey(kind domain.GameKind, genre string) string {
	return "game:" + string(kind) + ":" + genre
}

func parseGameKey(key string) (domain.GameKind, string, bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != "game" {
		return "", "", false
	}
	return domain.GameKind(parts[1]), parts[2], true
}

func decodeAggregate(raw string) (domain.GameAggregate, error) {
	var agg domain.GameAggregate
	if err := json.Unmarshal([]byte(raw), &agg); err != nil {
		return domain.GameAggregate{}, fmt.Errorf("decode game aggregate: %w", err)
	}
	return agg, nil
}
