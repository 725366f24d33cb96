package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"cinequiz-service/internal/app"
	"cinequiz-service/internal/domain"
	pgstore "cinequiz-service/internal/infra/postgres"
	pgmigrations "cinequiz-service/internal/infra/postgres/migrations"
	redisstore "cinequiz-service/internal/infra/redis"
)

func TestPlayAndGameFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizzes := app.NewQuizService(
		pgstore.NewQuizStore(pool),
		redisstore.NewHistoryStore(redisClient),
		app.RatingPolicy{},
	)
	games := app.NewGameService(redisstore.NewGameStore(redisClient))

	answers := domain.UserAnswers{
		"q1": domain.NewScalarAnswer(1),
		"q2": domain.NewAnswer(0, 2),
	}

	quiz, alreadyRecorded, err := quizzes.RecordPlay(ctx, "quiz-1", "u1", answers)
	if err != nil {
		t.Fatalf("record play: %v", err)
	}
	if alreadyRecorded {
		t.Fatalf("first play flagged as repeat")
	}
	if quiz.Stats.TotalPlays != 1 || quiz.Stats.TotalCorrectAnswers != 2 {
		t.Fatalf("unexpected stats after play: %+v", quiz.Stats)
	}

	// The gate must rely on the persisted played-by set.
	quiz, alreadyRecorded, err = quizzes.RecordPlay(ctx, "quiz-1", "u1", answers)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !alreadyRecorded || quiz.Stats.TotalPlays != 1 {
		t.Fatalf("replay leaked into aggregates: already=%v stats=%+v", alreadyRecorded, quiz.Stats)
	}

	records, err := quizzes.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected both attempts in the ledger, got %d", len(records))
	}

	if _, err := quizzes.AddRating(ctx, "quiz-1", "u1", 4); err != nil {
		t.Fatalf("rate: %v", err)
	}
	quiz, err = quizzes.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.AverageRating != 4.0 {
		t.Fatalf("expected average 4.0, got %v", quiz.AverageRating)
	}

	summary, err := games.UpdateGameResult(ctx, domain.GameMovieQuiz, "action", "u1", domain.GameResult{Score: 80})
	if err != nil {
		t.Fatalf("game result: %v", err)
	}
	if summary.Stats[domain.GameMovieQuiz]["action"].Score != 80 {
		t.Fatalf("unexpected game stats: %+v", summary.Stats)
	}
	board := summary.Leaderboards[domain.GameMovieQuiz]["action"]
	if len(board) != 1 || board[0].UserID != "u1" || board[0].Score != 80 {
		t.Fatalf("unexpected board: %+v", board)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO quizzes (id, data, version, created_at) VALUES (?, ?::jsonb, 0, ?) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
		quiz.ID, string(data), quiz.CreatedAt); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Classics",
		Category:  "movies",
		CreatorID: "seed",
		Questions: []domain.Question{
			{ID: "q1", Text: "Pick b", Options: []string{"a", "b", "c"}, CorrectAnswerIndex: []int{1}},
			{ID: "q2", Text: "Pick a and c", Options: []string{"a", "b", "c"}, CorrectAnswerIndex: []int{0, 2}},
		},
		Stats: domain.QuizStats{
			QuestionStats: map[string]domain.QuestionStat{"q1": {}, "q2": {}},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}
