package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cinequiz-service/internal/domain"
)

// HistoryStore keeps each user's play history as a Redis list. LPUSH gives
// the most-recent-first ordering the ledger requires for free.
type HistoryStore struct {
	client *redis.Client
}

func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func (s *HistoryStore) Append(ctx context.Context, userID string, record domain.UserPlayRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode play record: %w", err)
	}
	if err := s.client.LPush(ctx, historyKey(userID), data).Err(); err != nil {
		return fmt.Errorf("append play record: %w", err)
	}
	return nil
}

func (s *HistoryStore) List(ctx context.Context, userID string) ([]domain.UserPlayRecord, error) {
	raw, err := s.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load play history: %w", err)
	}
	records := make([]domain.UserPlayRecord, 0, len(raw))
	for _, item := range raw {
		var record domain.UserPlayRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("decode play record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func historyKey(userID string) string {
	return "history:" + userID
}
