package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"cinequiz-service/internal/app"
	"cinequiz-service/internal/domain"
)

// QuizReader serves single-quiz reads, typically through the read cache.
// Mutating routes call Invalidate so the next read sees their effect before
// the cache entry expires on its own.
type QuizReader interface {
	Get(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(quizID string)
}

// RESTHandler exposes the quiz and mini-game use cases over HTTP.
type RESTHandler struct {
	quizzes *app.QuizService
	games   *app.GameService
	reader  QuizReader
}

func NewRESTHandler(quizzes *app.QuizService, games *app.GameService, reader QuizReader) *RESTHandler {
	return &RESTHandler{quizzes: quizzes, games: games, reader: reader}
}

// Register mounts all routes on the router.
func (h *RESTHandler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.HandleFunc("/api/users", h.createUser).Methods(http.MethodPost)

	r.HandleFunc("/api/quizzes", h.listQuizzes).Methods(http.MethodGet)
	r.HandleFunc("/api/quizzes", h.createQuiz).Methods(http.MethodPost)
	r.HandleFunc("/api/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	r.HandleFunc("/api/quizzes/{id}", h.updateQuiz).Methods(http.MethodPut)
	r.HandleFunc("/api/quizzes/{id}", h.deleteQuiz).Methods(http.MethodDelete)
	r.HandleFunc("/api/quizzes/{id}/play", h.playQuiz).Methods(http.MethodPost)
	r.HandleFunc("/api/quizzes/{id}/rate", h.rateQuiz).Methods(http.MethodPost)

	r.HandleFunc("/api/games/stats", h.gameSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/games/{kind}/{genre}/results", h.submitGameResult).Methods(http.MethodPost)
	r.HandleFunc("/api/games/{kind}/{genre}/leaderboard", h.getLeaderboard).Methods(http.MethodGet)

	r.HandleFunc("/api/history/{userId}", h.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/history/{userId}", h.appendHistory).Methods(http.MethodPost)
}

// createUser mints an anonymous user id; there is no real identity layer.
func (h *RESTHandler) createUser(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"userId": uuid.NewString()})
}

func (h *RESTHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

type createQuizRequest struct {
	app.QuizDraft
	CreatorID string `json:"creatorId"`
}

func (h *RESTHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid quiz payload")
		return
	}
	if req.CreatorID == "" {
		writeBadRequest(w, "creatorId is required")
		return
	}
	quiz, err := h.quizzes.CreateQuiz(r.Context(), req.CreatorID, req.QuizDraft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *RESTHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.reader.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

type updateQuizRequest struct {
	app.QuizDraft
	UserID string `json:"userId"`
}

func (h *RESTHandler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var req updateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid quiz payload")
		return
	}
	id := mux.Vars(r)["id"]
	quiz, err := h.quizzes.UpdateQuiz(r.Context(), id, req.UserID, req.QuizDraft)
	if err != nil {
		writeError(w, err)
		return
	}
	h.reader.Invalidate(id)
	writeJSON(w, http.StatusOK, quiz)
}

func (h *RESTHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	id := mux.Vars(r)["id"]
	if err := h.quizzes.DeleteQuiz(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	h.reader.Invalidate(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "quiz deleted"})
}

type playRequest struct {
	UserID  string             `json:"userId"`
	Answers domain.UserAnswers `json:"answers"`
}

type playResponse struct {
	Quiz            domain.Quiz `json:"quiz"`
	AlreadyRecorded bool        `json:"alreadyRecorded"`
}

func (h *RESTHandler) playQuiz(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid play payload")
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "userId is required")
		return
	}
	id := mux.Vars(r)["id"]
	quiz, alreadyRecorded, err := h.quizzes.RecordPlay(r.Context(), id, req.UserID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	h.reader.Invalidate(id)
	writeJSON(w, http.StatusOK, playResponse{Quiz: quiz, AlreadyRecorded: alreadyRecorded})
}

type rateRequest struct {
	UserID string `json:"userId"`
	Rating int    `json:"rating"`
}

func (h *RESTHandler) rateQuiz(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid rating payload")
		return
	}
	id := mux.Vars(r)["id"]
	quiz, err := h.quizzes.AddRating(r.Context(), id, req.UserID, req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	h.reader.Invalidate(id)
	writeJSON(w, http.StatusOK, quiz)
}

type gameResultRequest struct {
	UserID string `json:"userId"`
	domain.GameResult
}

func (h *RESTHandler) submitGameResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req gameResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid result payload")
		return
	}
	summary, err := h.games.UpdateGameResult(r.Context(), domain.GameKind(vars["kind"]), vars["genre"], req.UserID, req.GameResult)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RESTHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entries, err := h.games.Leaderboard(r.Context(), domain.GameKind(vars["kind"]), vars["genre"])
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *RESTHandler) gameSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.games.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RESTHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.quizzes.History(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.UserPlayRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *RESTHandler) appendHistory(w http.ResponseWriter, r *http.Request) {
	var record domain.UserPlayRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeBadRequest(w, "invalid history payload")
		return
	}
	if err := h.quizzes.AppendHistory(r.Context(), mux.Vars(r)["userId"], record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: msg})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
