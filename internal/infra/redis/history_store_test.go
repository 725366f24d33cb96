package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"cinequiz-service/internal/domain"
)

func TestHistoryStoreMostRecentFirst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewHistoryStore(newClient(mr))
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		record := domain.UserPlayRecord{
			QuizID:         "quiz-1",
			QuizTitle:      title,
			Score:          i,
			TotalQuestions: 5,
			Date:           base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(ctx, "u1", record); err != nil {
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
	if !records[0].Date.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("timestamp lost in round trip: %v", records[0].Date)
	}

	empty, err := store.List(ctx, "someone-else")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty ledger, got %+v", empty)
	}
}
