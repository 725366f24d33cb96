package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cinequiz-service/internal/app"
	"cinequiz-service/internal/domain"
	"cinequiz-service/internal/infra/memory"
)

func TestLeaderboardWatchFlow(t *testing.T) {
	games := app.NewGameService(memory.NewGameStore())

	router := mux.NewRouter()
	router.HandleFunc("/ws/leaderboard", NewWSHandler(games).ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard?game=movieQuiz&genre=action"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot: empty board.
	lb := readBoard(t, conn)
	if len(lb.Entries) != 0 {
		t.Fatalf("expected empty initial board, got %+v", lb.Entries)
	}

	if _, err := games.UpdateGameResult(context.Background(), domain.GameMovieQuiz, "action", "u1", domain.GameResult{Score: 40}); err != nil {
		t.Fatalf("update result: %v", err)
	}

	lb = readBoard(t, conn)
	if len(lb.Entries) != 1 || lb.Entries[0].Score != 40 {
		t.Fatalf("expected board update with score 40, got %+v", lb.Entries)
	}
	if lb.Game != domain.GameMovieQuiz || lb.Genre != "action" {
		t.Fatalf("snapshot mislabeled: %+v", lb)
	}
}

func TestLeaderboardWatchRejectsUnknownGame(t *testing.T) {
	games := app.NewGameService(memory.NewGameStore())

	router := mux.NewRouter()
	router.HandleFunc("/ws/leaderboard", NewWSHandler(games).ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard?game=tetris&genre=action"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown game kind")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400 response, got %+v", resp)
	}
}

func readBoard(t *testing.T, conn *websocket.Conn) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}
