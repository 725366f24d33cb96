package domain

import "time"

// GameKind identifies one of the movie/TV trivia mini-games.
type GameKind string

const (
	GameMovieQuiz              GameKind = "movieQuiz"
	GameSeriesQuiz             GameKind = "seriesQuiz"
	GameMovieRatingGame        GameKind = "movieRatingGame"
	GameSeriesSeasonRatingGame GameKind = "seriesSeasonRatingGame"
	GameDirectorQuiz           GameKind = "directorQuiz"
	GameYearQuiz               GameKind = "yearQuiz"
	GameActorQuiz              GameKind = "actorQuiz"
	GameSeriesActorQuiz        GameKind = "seriesActorQuiz"
	GameDescriptionQuiz        GameKind = "descriptionQuiz"
	GameSeriesDescriptionQuiz  GameKind = "seriesDescriptionQuiz"
)

// GameKinds lists every known mini-game.
var GameKinds = []GameKind{
	GameMovieQuiz,
	GameSeriesQuiz,
	GameMovieRatingGame,
	GameSeriesSeasonRatingGame,
	GameDirectorQuiz,
	GameYearQuiz,
	GameActorQuiz,
	GameSeriesActorQuiz,
	GameDescriptionQuiz,
	GameSeriesDescriptionQuiz,
}

// Valid reports whether k names a known mini-game.
func (k GameKind) Valid() bool {
	for _, kind := range GameKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// RoundsBased reports whether the game records a survival run
// (rounds + average percentage) instead of a scalar high score.
func (k GameKind) RoundsBased() bool {
	return k == GameDescriptionQuiz || k == GameSeriesDescriptionQuiz
}

// GameResult is a finished mini-game round as submitted by a client. The
// shape is resolved once at the boundary by the game kind: scalar games read
// Score, rounds-based games read Rounds and AvgPercentage.
type GameResult struct {
	Score         int     `json:"score"`
	Rounds        int     `json:"rounds"`
	AvgPercentage float64 `json:"avgPercentage"`
}

// GameRecord is the stored personal best for a (game, genre) pair. Scalar
// games use Score; rounds-based games use Rounds and AvgPercentage.
type GameRecord struct {
	Score         int     `json:"score,omitempty"`
	Rounds        int     `json:"rounds,omitempty"`
	AvgPercentage float64 `json:"avgPercentage,omitempty"`
}

// LeaderboardEntry is one user's personal best on a (game, genre) board.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

// GameAggregate bundles the state stored per (game, genre): the best record
// seen so far and the descending board of personal bests. It is the atomic
// unit of update in a GameStore.
type GameAggregate struct {
	Record GameRecord         `json:"record"`
	Board  []LeaderboardEntry `json:"board,omitempty"`
}

// Clone returns a copy whose board can be mutated freely.
func (a GameAggregate) Clone() GameAggregate {
	out := a
	out.Board = append([]LeaderboardEntry(nil), a.Board...)
	return out
}

// GameStats maps game kind -> genre -> best record.
type GameStats map[GameKind]map[string]GameRecord

// Leaderboards maps game kind -> genre -> board, sorted descending by score.
type Leaderboards map[GameKind]map[string][]LeaderboardEntry

// Leaderboard is a broadcast-friendly snapshot of one (game, genre) board.
type Leaderboard struct {
	Game      GameKind           `json:"game"`
	Genre     string             `json:"genre"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// GameSummary is what a result submission returns: the full aggregate view
// after the update, mirroring the state clients keep locally.
type GameSummary struct {
	Stats        GameStats    `json:"gameStats"`
	Leaderboards Leaderboards `json:"leaderboards"`
}
