package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cinequiz-service/internal/domain"
)

const maxUpdateRetries = 5

// QuizStore persists quizzes as JSONB documents with a version column.
// Update uses optimistic locking: read the document and its version, apply
// the mutation, and write back only if the version is unchanged, retrying on
// conflict. That keeps every read-modify-write atomic per quiz id.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return decodeQuiz(raw)
}

func (s *QuizStore) List(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quiz, err := decodeQuiz(raw)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data, version, created_at) VALUES ($1, $2, 0, $3)`,
		quiz.ID, data, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Update(ctx context.Context, quizID string, fn func(*domain.Quiz) error) (domain.Quiz, error) {
	for i := 0; i < maxUpdateRetries; i++ {
		var raw []byte
		var version int64
		err := s.pool.QueryRow(ctx, `SELECT data, version FROM quizzes WHERE id=$1`, quizID).Scan(&raw, &version)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("load quiz for update: %w", err)
		}

		quiz, err := decodeQuiz(raw)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := fn(&quiz); err != nil {
			return domain.Quiz{}, err
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("encode quiz: %w", err)
		}
		tag, err := s.pool.Exec(ctx,
			`UPDATE quizzes SET data=$1, version=version+1 WHERE id=$2 AND version=$3`,
			data, quizID, version)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return quiz, nil
		}
		// version moved under us; reload and retry
	}
	return domain.Quiz{}, fmt.Errorf("update quiz %s: too many conflicts", quizID)
}

func (s *QuizStore) Delete(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func decodeQuiz(raw []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}
