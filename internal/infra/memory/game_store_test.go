package memory

import (
	"context"
	"testing"

	"cinequiz-service/internal/domain"
)

func TestGameStoreLazyAggregates(t *testing.T) {
	store := NewGameStore()
	ctx := context.Background()

	agg, err := store.Get(ctx, domain.GameMovieQuiz, "action")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if agg.Record.Score != 0 || len(agg.Board) != 0 {
		t.Fatalf("expected zero aggregate, got %+v", agg)
	}

	agg, err = store.Update(ctx, domain.GameMovieQuiz, "action", func(a *domain.GameAggregate) error {
		a.Record.Score = 42
		a.Board = append(a.Board, domain.LeaderboardEntry{UserID: "u1", Score: 42})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if agg.Record.Score != 42 {
		t.Fatalf("expected score 42, got %+v", agg.Record)
	}

	stats, boards, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if stats[domain.GameMovieQuiz]["action"].Score != 42 {
		t.Fatalf("unexpected stats snapshot: %+v", stats)
	}
	if len(boards[domain.GameMovieQuiz]["action"]) != 1 {
		t.Fatalf("unexpected boards snapshot: %+v", boards)
	}
}

func TestHistoryStoreMostRecentFirst(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if err := store.Append(ctx, "u1", domain.UserPlayRecord{QuizTitle: title}); err != nil {
			t.Fatalf("append %s: %v", title, err)
		}
	}

	records, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].QuizTitle != "third" || records[2].QuizTitle != "first" {
		t.Fatalf("unexpected order: %+v", records)
	}

	other, _ := store.List(ctx, "u2")
	if len(other) != 0 {
		t.Fatalf("ledgers must be per user, got %+v", other)
	}
}
