package quiz_test

import (
	"errors"
	"testing"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/quiz"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

func questions(n int) []domain.QuizQuestion {
	qs := make([]domain.QuizQuestion, n)
	for i := range qs {
		qs[i] = domain.QuizQuestion{
			Question:      "q",
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: 1,
		}
	}
	return qs
}

func TestScoreIncludesFinalAnswer(t *testing.T) {
	q := quiz.New(questions(3))

	answers := []int{1, 0, 1}
	var results []quiz.Result
	for _, a := range answers {
		res, err := q.Answer(a)
		if err != nil {
			t.Fatalf("Answer(%d) failed: %v", a, err)
		}
		results = append(results, res)
	}

	finished := 0
	for _, r := range results {
		if r.Finished {
			finished++
		}
	}
	if finished != 1 {
		t.Fatalf("expected exactly one finished result, got %d", finished)
	}

	last := results[len(results)-1]
	if !last.Finished || last.Score != 2 || last.Total != 3 {
		t.Fatalf("expected Finished(2,3), got %+v", last)
	}
	if results[1].Correct {
		t.Fatalf("expected second answer to be wrong")
	}
}

func TestAnswerAfterFinish(t *testing.T) {
	q := quiz.New(questions(1))
	if _, err := q.Answer(1); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	_, err := q.Answer(1)
	if !errors.Is(err, domain.ErrQuizFinished) {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
	if _, ok := q.Current(); ok {
		t.Fatalf("expected no current question after finish")
	}
}

func TestAnswerOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		choice int
	}{
		{name: "negative", choice: -1},
		{name: "past options", choice: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quiz.New(questions(2))
			_, err := q.Answer(tt.choice)
			if !errors.Is(err, domain.ErrInvalidAnswer) {
				t.Fatalf("expected ErrInvalidAnswer, got %v", err)
			}
			if q.Index() != 0 {
				t.Fatalf("expected quiz not to advance, at %d", q.Index())
			}
		})
	}
}

func TestEmptyQuizIsFinished(t *testing.T) {
	q := quiz.New(nil)
	if _, err := q.Answer(0); !errors.Is(err, domain.ErrQuizFinished) {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
}
