package memory

import (
	"context"
	"sync"

	"cinequiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore. Updates run on a
// clone under the store lock and commit only if fn succeeds, so a failed
// update is never partially visible.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

// NewQuizStoreSeeded creates a store preloaded with quizzes, for demos and tests.
func NewQuizStoreSeeded(quizzes ...domain.Quiz) *QuizStore {
	store := NewQuizStore()
	for _, quiz := range quizzes {
		store.quizzes[quiz.ID] = quiz.Clone()
	}
	return store
}

func (s *QuizStore) Get(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *QuizStore) List(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, quiz.Clone())
	}
	return out, nil
}

func (s *QuizStore) Create(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) Update(_ context.Context, quizID string, fn func(*domain.Quiz) error) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	working := stored.Clone()
	if err := fn(&working); err != nil {
		return domain.Quiz{}, err
	}
	s.quizzes[quizID] = working
	return working.Clone(), nil
}

func (s *QuizStore) Delete(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}
