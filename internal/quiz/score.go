package quiz

import (
	"errors"

	"github.com/uyho/backend/internal/models"
)

// ErrIncomplete is returned when an answer sequence does not finish the quiz
var ErrIncomplete = errors.New("answer sequence does not complete the quiz")

// Score replays answers against questions with the engine's rules and returns
// the final score. Answers after the last question are ignored.
func Score(questions []models.QuizQuestion, answers []int) (int, error) {
	if len(questions) == 0 {
		return 0, ErrNoQuestions
	}
	index, correct := 0, 0
	for _, a := range answers {
		if a < 0 || a >= len(questions[index].Options) {
			return 0, ErrInvalidOption
		}
		if a != questions[index].CorrectIndex {
			continue
		}
		correct++
		index++
		if index == len(questions) {
			return score(correct, len(questions)), nil
		}
	}
	return 0, ErrIncomplete
}
