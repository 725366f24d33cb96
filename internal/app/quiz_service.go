package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"cinequiz-service/internal/domain"
)

// QuizStore is the persistence boundary for quiz documents. Update must apply
// fn atomically per quiz id: concurrent read-modify-writes of the same quiz
// are serialized by the store, and no partial mutation is ever visible.
type QuizStore interface {
	Get(ctx context.Context, quizID string) (domain.Quiz, error)
	List(ctx context.Context) ([]domain.Quiz, error)
	Create(ctx context.Context, quiz domain.Quiz) error
	Update(ctx context.Context, quizID string, fn func(*domain.Quiz) error) (domain.Quiz, error)
	Delete(ctx context.Context, quizID string) error
}

// HistoryStore persists the append-only play-history ledger per user.
type HistoryStore interface {
	Append(ctx context.Context, userID string, record domain.UserPlayRecord) error
	List(ctx context.Context, userID string) ([]domain.UserPlayRecord, error)
}

// RatingPolicy controls whether a user may rate the same quiz more than once.
// Repeat ratings are allowed by default.
type RatingPolicy struct {
	OnePerUser bool
}

// QuizDraft is the author-editable part of a quiz. Stats, ratings and the
// played-by set are owned by the service and never set by clients.
type QuizDraft struct {
	Title                 string            `json:"title"`
	Category              string            `json:"category"`
	Questions             []domain.Question `json:"questions"`
	IsPrivate             bool              `json:"isPrivate"`
	TimeLimit             int               `json:"timeLimit"`
	PlayUntilFirstMistake bool              `json:"playUntilFirstMistake"`
}

// QuizService contains the quiz use cases: authoring, the play gate with its
// aggregate updates, and rating aggregation.
type QuizService struct {
	quizzes QuizStore
	history HistoryStore
	policy  RatingPolicy
	now     func() time.Time
}

func NewQuizService(quizzes QuizStore, history HistoryStore, policy RatingPolicy) *QuizService {
	return &QuizService{quizzes: quizzes, history: history, policy: policy, now: time.Now}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(quizzes QuizStore, history HistoryStore, policy RatingPolicy, now func() time.Time) *QuizService {
	return &QuizService{quizzes: quizzes, history: history, policy: policy, now: now}
}

// CreateQuiz stores a new quiz with zeroed stats for every question.
func (s *QuizService) CreateQuiz(ctx context.Context, creatorID string, draft QuizDraft) (domain.Quiz, error) {
	if err := validateDraft(draft); err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{
		ID:                    uuid.NewString(),
		Title:                 draft.Title,
		Category:              draft.Category,
		Questions:             draft.Questions,
		CreatorID:             creatorID,
		IsPrivate:             draft.IsPrivate,
		TimeLimit:             draft.TimeLimit,
		PlayUntilFirstMistake: draft.PlayUntilFirstMistake,
		Stats:                 freshStats(draft.Questions),
		CreatedAt:             s.now(),
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// GetQuiz returns a single quiz by id, private ones included.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.Get(ctx, quizID)
}

// ListQuizzes returns public quizzes, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	all, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]domain.Quiz, 0, len(all))
	for _, quiz := range all {
		if !quiz.IsPrivate {
			public = append(public, quiz)
		}
	}
	sort.SliceStable(public, func(i, j int) bool {
		return public[i].CreatedAt.After(public[j].CreatedAt)
	})
	return public, nil
}

// UpdateQuiz replaces the authored content of a quiz and fully resets its
// aggregate state: stats, ratings, average and the played-by set all start
// over, since the edited quiz is effectively a new one.
func (s *QuizService) UpdateQuiz(ctx context.Context, quizID, userID string, draft QuizDraft) (domain.Quiz, error) {
	if err := validateDraft(draft); err != nil {
		return domain.Quiz{}, err
	}
	return s.quizzes.Update(ctx, quizID, func(q *domain.Quiz) error {
		if q.CreatorID != userID {
			return domain.ErrForbidden
		}
		q.Title = draft.Title
		q.Category = draft.Category
		q.Questions = draft.Questions
		q.IsPrivate = draft.IsPrivate
		q.TimeLimit = draft.TimeLimit
		q.PlayUntilFirstMistake = draft.PlayUntilFirstMistake
		q.Stats = freshStats(draft.Questions)
		q.Ratings = nil
		q.AverageRating = 0
		q.PlayedBy = nil
		q.RatedBy = nil
		return nil
	})
}

// DeleteQuiz removes a quiz; only its creator may do so.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID, userID string) error {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return err
	}
	if quiz.CreatorID != userID {
		return domain.ErrForbidden
	}
	return s.quizzes.Delete(ctx, quizID)
}

// RecordPlay records a finished attempt. The first attempt per (user, quiz)
// is the counted play: it adds the user to the played-by set, bumps
// totalPlays, folds every answer into the question stats, and bumps
// totalCorrectAnswers once after all answers are processed. A repeat attempt
// leaves the quiz untouched and reports alreadyRecorded=true. Either way the
// attempt is appended to the user's play-history ledger.
func (s *QuizService) RecordPlay(ctx context.Context, quizID, userID string, answers domain.UserAnswers) (domain.Quiz, bool, error) {
	alreadyRecorded := false
	quiz, err := s.quizzes.Update(ctx, quizID, func(q *domain.Quiz) error {
		if q.HasPlayed(userID) {
			alreadyRecorded = true
			return nil
		}
		applyPlay(q, userID, answers)
		return nil
	})
	if err != nil {
		return domain.Quiz{}, false, err
	}

	record := domain.UserPlayRecord{
		QuizID:         quiz.ID,
		QuizTitle:      quiz.Title,
		Category:       quiz.Category,
		Score:          Evaluate(quiz.Questions, answers),
		TotalQuestions: len(quiz.Questions),
		Date:           s.now(),
	}
	if err := s.history.Append(ctx, userID, record); err != nil {
		return domain.Quiz{}, false, fmt.Errorf("append play history: %w", err)
	}
	return quiz, alreadyRecorded, nil
}

// AddRating appends a 1-5 rating and recomputes the average from the full
// sequence. Under the one-per-user policy a repeat rating is a no-op.
func (s *QuizService) AddRating(ctx context.Context, quizID, userID string, rating int) (domain.Quiz, error) {
	if rating < 1 || rating > 5 {
		return domain.Quiz{}, &domain.ValidationError{Msg: fmt.Sprintf("rating must be between 1 and 5, got %d", rating)}
	}
	return s.quizzes.Update(ctx, quizID, func(q *domain.Quiz) error {
		if s.policy.OnePerUser {
			if q.HasRated(userID) {
				return nil
			}
			q.RatedBy = append(q.RatedBy, userID)
		}
		q.Ratings = append(q.Ratings, rating)
		// Recomputed from the full sequence each time; no incremental drift.
		sum := 0
		for _, r := range q.Ratings {
			sum += r
		}
		q.AverageRating = float64(sum) / float64(len(q.Ratings))
		return nil
	})
}

// History returns the user's play-history ledger, most recent first.
func (s *QuizService) History(ctx context.Context, userID string) ([]domain.UserPlayRecord, error) {
	return s.history.List(ctx, userID)
}

// AppendHistory records an attempt directly, for clients that score locally
// (e.g. offline play synced later).
func (s *QuizService) AppendHistory(ctx context.Context, userID string, record domain.UserPlayRecord) error {
	if userID == "" {
		return &domain.ValidationError{Msg: "userId is required"}
	}
	return s.history.Append(ctx, userID, record)
}

// applyPlay mutates the quiz aggregate for one counted play. Runs inside the
// store's atomic update, so either every increment lands or none do.
func applyPlay(q *domain.Quiz, userID string, answers domain.UserAnswers) {
	q.PlayedBy = append(q.PlayedBy, userID)
	q.Stats.TotalPlays++
	if q.Stats.QuestionStats == nil {
		q.Stats.QuestionStats = make(map[string]domain.QuestionStat, len(q.Questions))
	}

	correctThisPlay := 0
	for questionID, answer := range answers {
		question, ok := q.QuestionByID(questionID)
		if !ok {
			// Stale or malformed submission entry; the quiz may have been
			// edited since the client loaded it. Skip, not an error.
			continue
		}
		stat, correct := ApplyAnswer(q.Stats.QuestionStats[questionID], answer, question.CorrectAnswerIndex)
		q.Stats.QuestionStats[questionID] = stat
		if correct {
			correctThisPlay++
		}
	}
	q.Stats.TotalCorrectAnswers += correctThisPlay
}

func freshStats(questions []domain.Question) domain.QuizStats {
	stats := domain.QuizStats{
		QuestionStats: make(map[string]domain.QuestionStat, len(questions)),
	}
	for _, q := range questions {
		stats.QuestionStats[q.ID] = domain.QuestionStat{}
	}
	return stats
}

func validateDraft(draft QuizDraft) error {
	if draft.Title == "" {
		return &domain.ValidationError{Msg: "quiz title is required"}
	}
	if len(draft.Questions) == 0 {
		return &domain.ValidationError{Msg: "quiz needs at least one question"}
	}
	for _, q := range draft.Questions {
		if q.ID == "" {
			return &domain.ValidationError{Msg: "every question needs an id"}
		}
		for _, idx := range q.CorrectAnswerIndex {
			if idx < 0 || idx >= len(q.Options) {
				return &domain.ValidationError{Msg: fmt.Sprintf("question %s: correct answer index %d out of range", q.ID, idx)}
			}
		}
	}
	return nil
}
