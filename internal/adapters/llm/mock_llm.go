package llm

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

// MockLLM answers deterministically without a network. It backs local mode
// and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Explain(_ context.Context, req domain.ExplainRequest) (string, error) {
	topic := domain.TopicLabel(req.Topic, req.Language)
	switch {
	case req.Audio != nil:
		if req.Language == domain.LangEnglish {
			return "I heard your question! Let's find out together. 🔍", nil
		}
		return "سمعت سؤالك! هيا نكتشف الإجابة معاً. 🔍", nil
	case req.Query != "":
		if req.Language == domain.LangEnglish {
			return fmt.Sprintf("Great question about %s! You asked: %q. 🌟", topic, req.Query), nil
		}
		return fmt.Sprintf("سؤال رائع عن %s! لقد سألت: %q. 🌟", topic, req.Query), nil
	}
	if req.Language == domain.LangEnglish {
		return fmt.Sprintf("Let's learn about %s! Look around you: science is everywhere. 🔬", topic), nil
	}
	return fmt.Sprintf("هيا نتعلم عن %s! انظر حولك، العلوم في كل مكان. 🔬", topic), nil
}

func (m *MockLLM) Story(_ context.Context, req domain.LessonContext) (string, error) {
	topic := domain.TopicLabel(req.Topic, req.Language)
	if req.Language == domain.LangEnglish {
		return fmt.Sprintf("Once upon a time... a little robot discovered %s. 🚀", topic), nil
	}
	return fmt.Sprintf("كان يا مكان... روبوت صغير اكتشف %s. 🚀", topic), nil
}

func (m *MockLLM) CorrectHomework(_ context.Context, req domain.HomeworkRequest) (string, error) {
	if req.Language == domain.LangEnglish {
		return "Well done, hero! Your answers look right. ✅", nil
	}
	return "أحسنت يا بطل! إجاباتك تبدو صحيحة. ✅", nil
}

// mockImage is a 1x1 transparent PNG.
const mockImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func (m *MockLLM) GenerateImages(context.Context, string) ([]string, error) {
	return []string{mockImage, mockImage}, nil
}

func (m *MockLLM) GenerateQuiz(_ context.Context, req domain.QuizRequest) ([]domain.QuizQuestion, error) {
	count := req.Count
	if count <= 0 {
		count = 3
	}
	topic := domain.TopicLabel(req.Topic, req.Language)

	questions := make([]domain.QuizQuestion, count)
	for i := range questions {
		if req.Language == domain.LangEnglish {
			questions[i] = domain.QuizQuestion{
				Question:      fmt.Sprintf("Question %d about %s: is science fun?", i+1, topic),
				Options:       []string{"Yes", "No", "Maybe"},
				CorrectAnswer: 0,
				Explanation:   "Science helps us understand the world!",
			}
			continue
		}
		questions[i] = domain.QuizQuestion{
			Question:      fmt.Sprintf("السؤال %d عن %s: هل العلوم ممتعة؟", i+1, topic),
			Options:       []string{"نعم", "لا", "ربما"},
			CorrectAnswer: 0,
			Explanation:   "العلوم تساعدنا على فهم العالم!",
		}
	}
	return questions, nil
}

// Speak returns a short 440 Hz tone, 20ms per character up to one second.
func (m *MockLLM) Speak(_ context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	const rate = 24000
	n := min(len([]rune(text))*rate/50, rate)

	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(0.2 * math.MaxInt16 * math.Sin(2*math.Pi*440*float64(i)/rate))
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(v))
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}
