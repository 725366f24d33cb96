package memory

import (
	"context"
	"testing"
	"time"

	"cinequiz-service/internal/domain"
)

func TestQuizCacheServesFromCache(t *testing.T) {
	reader := &countingReader{store: NewQuizStoreSeeded(domain.Quiz{ID: "quiz-1", Title: "Cached"})}
	cache := NewQuizCache(reader, time.Minute)

	if _, err := cache.Get(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if reader.calls != 1 {
		t.Fatalf("expected reader called once, got %d", reader.calls)
	}

	if _, err := cache.Get(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get 2: %v", err)
	}
	if reader.calls != 1 {
		t.Fatalf("expected cache hit, reader calls %d", reader.calls)
	}
}

func TestQuizCacheInvalidate(t *testing.T) {
	reader := &countingReader{store: NewQuizStoreSeeded(domain.Quiz{ID: "quiz-1"})}
	cache := NewQuizCache(reader, time.Minute)

	_, _ = cache.Get(context.Background(), "quiz-1")
	cache.Invalidate("quiz-1")
	_, _ = cache.Get(context.Background(), "quiz-1")
	if reader.calls != 2 {
		t.Fatalf("expected reload after invalidate, reader calls %d", reader.calls)
	}
}

func TestQuizCachePropagatesNotFound(t *testing.T) {
	cache := NewQuizCache(NewQuizStore(), time.Minute)
	if _, err := cache.Get(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingReader struct {
	store *QuizStore
	calls int
}

func (r *countingReader) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	r.calls++
	return r.store.Get(ctx, quizID)
}
