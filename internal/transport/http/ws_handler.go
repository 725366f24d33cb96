package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"cinequiz-service/internal/app"
	"cinequiz-service/internal/domain"
)

// WSHandler streams live leaderboard snapshots for one mini-game board.
type WSHandler struct {
	games    *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService) *WSHandler {
	return &WSHandler{
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and forwards board updates until the client
// disconnects. The first message is the current board state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	kind := domain.GameKind(r.URL.Query().Get("game"))
	genre := r.URL.Query().Get("genre")

	updates, cancel, err := h.games.Watch(r.Context(), kind, genre)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain the read side so we notice the peer closing.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
