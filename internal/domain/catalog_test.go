package domain_test

import (
	"strings"
	"testing"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

func TestEveryTextIsTranslated(t *testing.T) {
	ar := domain.Texts(domain.LangArabic)
	en := domain.Texts(domain.LangEnglish)
	if len(ar) != len(en) {
		t.Fatalf("string tables differ in size: %d vs %d", len(ar), len(en))
	}
	for key, s := range en {
		if s == "" || ar[key] == "" {
			t.Fatalf("missing translation for %s", key)
		}
	}
}

func TestLabels(t *testing.T) {
	for _, g := range domain.AllGrades {
		if domain.GradeLabel(g, domain.LangArabic) == "" || domain.GradeLabel(g, domain.LangEnglish) == "" {
			t.Fatalf("grade %d has no label", g)
		}
		for _, topic := range domain.TopicsForGrade(g) {
			if domain.TopicLabel(topic, domain.LangEnglish) == "" {
				t.Fatalf("topic %s has no label", topic)
			}
		}
	}
	for _, m := range domain.AllModes {
		if domain.ModeLabel(m, domain.LangArabic) == "" {
			t.Fatalf("mode %s has no label", m)
		}
	}
	if got := domain.TopicLabel("unknown", domain.LangEnglish); got != "" {
		t.Fatalf("expected no label for unknown topic, got %q", got)
	}
}

func TestQuizSummary(t *testing.T) {
	got := domain.QuizSummary(2, 3, domain.LangEnglish)
	if got != "Great job! You finished the quiz. Your score: 2 / 3. 🎉" {
		t.Fatalf("unexpected summary %q", got)
	}
	if ar := domain.QuizSummary(2, 3, domain.LangArabic); !strings.Contains(ar, "2 من 3") {
		t.Fatalf("unexpected arabic summary %q", ar)
	}
}
