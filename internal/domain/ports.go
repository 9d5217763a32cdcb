package domain

import "context"

// LessonContext is what every tutoring request is anchored on.
type LessonContext struct {
	Grade    Grade
	Topic    Topic
	Language Language
}

// ExplainRequest asks for an explanation of the lesson. Query and Audio are
// both optional; Audio wins when set.
type ExplainRequest struct {
	LessonContext
	Query string
	Audio *Media
}

type HomeworkRequest struct {
	Grade    Grade
	Language Language
	Image    Media
}

type QuizRequest struct {
	LessonContext
	Count int
}

// LLMClient is the raw generative backend. Every call may fail.
type LLMClient interface {
	Explain(ctx context.Context, req ExplainRequest) (string, error)
	Story(ctx context.Context, req LessonContext) (string, error)
	CorrectHomework(ctx context.Context, req HomeworkRequest) (string, error)
	// GenerateImages returns up to two displayable image references, the
	// primary language rendering first.
	GenerateImages(ctx context.Context, prompt string) ([]string, error)
	GenerateQuiz(ctx context.Context, req QuizRequest) ([]QuizQuestion, error)
	// Speak returns base64 PCM16 mono audio, or "" when the backend produced none.
	Speak(ctx context.Context, text string) (string, error)
}

// Gateway is the boundary the tutor talks to. It never fails: transport
// errors degrade to localized text, empty lists or absent audio.
type Gateway interface {
	Explain(ctx context.Context, req ExplainRequest) string
	Story(ctx context.Context, req LessonContext) string
	CorrectHomework(ctx context.Context, req HomeworkRequest) string
	GenerateImages(ctx context.Context, prompt string) []string
	GenerateQuiz(ctx context.Context, req QuizRequest) []QuizQuestion
	Speak(ctx context.Context, text string) string
}
