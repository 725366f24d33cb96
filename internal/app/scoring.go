package app

import "cinequiz-service/internal/domain"

// Evaluate computes the score for a finished attempt: the number of questions
// whose submitted answer set exactly equals the correct set. Questions without
// a submitted answer, and answer-map entries whose question id is unknown,
// score nothing. Pure function; the same rule the play recorder applies.
func Evaluate(questions []domain.Question, answers domain.UserAnswers) int {
	score := 0
	for i := range questions {
		answer, ok := answers[questions[i].ID]
		if !ok {
			continue
		}
		if answerCorrect(answer, questions[i].CorrectAnswerIndex) {
			score++
		}
	}
	return score
}

// ApplyAnswer folds one submitted answer into a question's stat and reports
// whether the answer was correct. The zero QuestionStat is a valid starting
// point, so stats for never-seen questions initialize lazily. Duplicate
// submitted indices count an option once.
func ApplyAnswer(stat domain.QuestionStat, submitted domain.Answer, correct []int) (domain.QuestionStat, bool) {
	stat.Attempts++
	chosen := submitted.Normalized()
	if len(chosen) > 0 && stat.Answers == nil {
		stat.Answers = make(map[int]int, len(chosen))
	}
	for _, idx := range chosen {
		stat.Answers[idx]++
	}
	ok := intSetsEqual(chosen, domain.NormalizeIndices(correct))
	if ok {
		stat.Correct++
	}
	return stat, ok
}

func answerCorrect(answer domain.Answer, correct []int) bool {
	return intSetsEqual(answer.Normalized(), domain.NormalizeIndices(correct))
}

// intSetsEqual expects both sides normalized (sorted, deduplicated).
func intSetsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
