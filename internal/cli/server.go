package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"cinequiz-service/internal/app"
	"cinequiz-service/internal/config"
	"cinequiz-service/internal/domain"
	"cinequiz-service/internal/infra/memory"
	pgstore "cinequiz-service/internal/infra/postgres"
	redisstore "cinequiz-service/internal/infra/redis"
	transport "cinequiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var quizStore app.QuizStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizStore = pgstore.NewQuizStore(pool)
	} else {
		quizStore = memory.NewQuizStoreSeeded(sampleQuizzes()...)
	}

	var gameStore app.GameStore
	var historyStore app.HistoryStore
	if redisClient != nil {
		gameStore = redisstore.NewGameStore(redisClient)
		historyStore = redisstore.NewHistoryStore(redisClient)
	} else {
		gameStore = memory.NewGameStore()
		historyStore = memory.NewHistoryStore()
	}

	quizService := app.NewQuizService(quizStore, historyStore, app.RatingPolicy{OnePerUser: cfg.Rating.OnePerUser})
	gameService := app.NewGameService(gameStore)

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	cache := memory.NewQuizCache(quizStore, cacheTTL)

	router := mux.NewRouter()
	transport.NewRESTHandler(quizService, gameService, cache).Register(router)
	router.HandleFunc("/ws/leaderboard", transport.NewWSHandler(gameService).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting cinequiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory store for demo runs without Postgres.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:        "quiz-classics",
			Title:     "Golden Age Classics",
			Category:  "movies",
			CreatorID: "seed",
			Questions: []domain.Question{
				{
					ID:                 "q1",
					Text:               "Who directed Citizen Kane?",
					Options:            []string{"Orson Welles", "Alfred Hitchcock", "Billy Wilder", "John Ford"},
					CorrectAnswerIndex: []int{0},
				},
				{
					ID:                 "q2",
					Text:               "Which of these were released in 1939?",
					Options:            []string{"Gone with the Wind", "Casablanca", "The Wizard of Oz", "Citizen Kane"},
					CorrectAnswerIndex: []int{0, 2},
				},
			},
			Stats: domain.QuizStats{
				QuestionStats: map[string]domain.QuestionStat{
					"q1": {},
					"q2": {},
				},
			},
			CreatedAt: time.Now(),
		},
	}
}
