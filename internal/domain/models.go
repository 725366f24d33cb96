package domain

import "time"

// Question models an MCQ question; CorrectAnswerIndex may hold more than one
// index for multi-select questions.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex []int    `json:"correctAnswerIndex"`
	ImageURL           string   `json:"imageUrl,omitempty"`
}

// QuestionStat accumulates how a single question has been answered across all
// counted plays. Answers maps option index -> number of times it was chosen.
type QuestionStat struct {
	Attempts int         `json:"attempts"`
	Correct  int         `json:"correct"`
	Answers  map[int]int `json:"answers"`
}

// QuizStats is the per-quiz aggregate updated once per counted play.
type QuizStats struct {
	TotalPlays          int                     `json:"totalPlays"`
	TotalCorrectAnswers int                     `json:"totalCorrectAnswers"`
	QuestionStats       map[string]QuestionStat `json:"questionStats"`
}

// Quiz is the aggregate document: content plus play/rating state.
type Quiz struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Category              string     `json:"category"`
	Questions             []Question `json:"questions"`
	CreatorID             string     `json:"creatorId"`
	IsPrivate             bool       `json:"isPrivate"`
	TimeLimit             int        `json:"timeLimit,omitempty"` // seconds, 0 means none
	PlayUntilFirstMistake bool       `json:"playUntilFirstMistake"`
	Stats                 QuizStats  `json:"stats"`
	Ratings               []int      `json:"ratings"`
	AverageRating         float64    `json:"averageRating"`
	PlayedBy              []string   `json:"playedBy"`
	RatedBy               []string   `json:"ratedBy,omitempty"` // tracked only under the one-rating-per-user policy
	CreatedAt             time.Time  `json:"createdAt"`
}

// QuestionByID returns the question with the given id, if any.
func (q *Quiz) QuestionByID(id string) (Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return q.Questions[i], true
		}
	}
	return Question{}, false
}

// HasPlayed reports whether the user already has a counted play.
func (q *Quiz) HasPlayed(userID string) bool {
	for _, id := range q.PlayedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// HasRated reports whether the user already rated this quiz. Only meaningful
// when the one-rating-per-user policy is enabled.
func (q *Quiz) HasRated(userID string) bool {
	for _, id := range q.RatedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores can hand out snapshots without aliasing
// their internal state.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		question.CorrectAnswerIndex = append([]int(nil), question.CorrectAnswerIndex...)
		out.Questions[i] = question
	}
	out.Ratings = append([]int(nil), q.Ratings...)
	out.PlayedBy = append([]string(nil), q.PlayedBy...)
	out.RatedBy = append([]string(nil), q.RatedBy...)
	out.Stats.QuestionStats = make(map[string]QuestionStat, len(q.Stats.QuestionStats))
	for id, stat := range q.Stats.QuestionStats {
		stat.Answers = copyIntMap(stat.Answers)
		out.Stats.QuestionStats[id] = stat
	}
	return out
}

// UserPlayRecord is one entry of the per-user play-history ledger. Immutable
// once created.
type UserPlayRecord struct {
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Category       string    `json:"category"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Date           time.Time `json:"date"`
}

func copyIntMap(in map[int]int) map[int]int {
	if in == nil {
		return nil
	}
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
