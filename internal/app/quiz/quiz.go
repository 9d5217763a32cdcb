// Package quiz tracks a learner's way through one batch of questions.
package quiz

import (
	"fmt"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

// Result is what answering a question leads to. Finished is set exactly
// once, on the answer to the last question.
type Result struct {
	Correct  bool `json:"correct"`
	Finished bool `json:"finished"`
	Score    int  `json:"score"`
	Total    int  `json:"total"`
}

type Quiz struct {
	questions []domain.QuizQuestion
	index     int
	score     int
	finished  bool
}

func New(questions []domain.QuizQuestion) *Quiz {
	return &Quiz{questions: questions}
}

// Answer scores choice against the current question and advances.
func (q *Quiz) Answer(choice int) (Result, error) {
	if q.finished || q.index >= len(q.questions) {
		return Result{}, domain.ErrQuizFinished
	}
	current := q.questions[q.index]
	if choice < 0 || choice >= len(current.Options) {
		return Result{}, fmt.Errorf("answer %d for question %d: %w", choice, q.index+1, domain.ErrInvalidAnswer)
	}

	correct := choice == current.CorrectAnswer
	if correct {
		q.score++
	}
	q.index++

	res := Result{Correct: correct, Score: q.score, Total: len(q.questions)}
	if q.index == len(q.questions) {
		q.finished = true
		res.Finished = true
	}
	return res, nil
}

// Current returns the question awaiting an answer.
func (q *Quiz) Current() (domain.QuizQuestion, bool) {
	if q.finished || q.index >= len(q.questions) {
		return domain.QuizQuestion{}, false
	}
	return q.questions[q.index], true
}

// Index is the 0-based position of the current question.
func (q *Quiz) Index() int     { return q.index }
func (q *Quiz) Score() int     { return q.score }
func (q *Quiz) Total() int     { return len(q.questions) }
func (q *Quiz) Finished() bool { return q.finished }
