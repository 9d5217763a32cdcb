package llm

import (
	"context"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

// Gateway implements domain.Gateway on top of a domain.LLMClient. Backend
// failures are logged and counted, then degraded to tutor-persona text,
// empty lists or absent audio.
type Gateway struct {
	client domain.LLMClient
}

func NewGateway(client domain.LLMClient) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) observe(ctx context.Context, kind string, start time.Time, err error) {
	observability.GatewayDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.GatewayRequests.WithLabelValues(kind, "fallback").Inc()
		observability.LoggerFromContext(ctx).Error("ai request failed, using fallback", "kind", kind, "error", err)
		return
	}
	observability.GatewayRequests.WithLabelValues(kind, "ok").Inc()
}

func (g *Gateway) Explain(ctx context.Context, req domain.ExplainRequest) string {
	start := time.Now()
	text, err := g.client.Explain(ctx, req)
	g.observe(ctx, "explain", start, err)
	switch {
	case err != nil:
		return domain.Text(req.Language, domain.TextConnectionError)
	case text == "":
		return domain.Text(req.Language, domain.TextReplyEmpty)
	}
	return text
}

func (g *Gateway) Story(ctx context.Context, req domain.LessonContext) string {
	start := time.Now()
	text, err := g.client.Story(ctx, req)
	g.observe(ctx, "story", start, err)
	if err != nil || text == "" {
		return domain.Text(req.Language, domain.TextStoryError)
	}
	return text
}

func (g *Gateway) CorrectHomework(ctx context.Context, req domain.HomeworkRequest) string {
	start := time.Now()
	text, err := g.client.CorrectHomework(ctx, req)
	g.observe(ctx, "homework", start, err)
	switch {
	case err != nil:
		return domain.Text(req.Language, domain.TextHomeworkError)
	case text == "":
		return domain.Text(req.Language, domain.TextHomeworkUnreadable)
	}
	return text
}

func (g *Gateway) GenerateImages(ctx context.Context, prompt string) []string {
	start := time.Now()
	images, err := g.client.GenerateImages(ctx, prompt)
	g.observe(ctx, "images", start, err)
	if err != nil {
		return nil
	}
	if len(images) == 0 {
		observability.LoggerFromContext(ctx).Warn("no images generated", "error", domain.ErrEmptyResult)
	}
	return images
}

// GenerateQuiz drops questions whose correct answer does not point at one of
// their options.
func (g *Gateway) GenerateQuiz(ctx context.Context, req domain.QuizRequest) []domain.QuizQuestion {
	start := time.Now()
	questions, err := g.client.GenerateQuiz(ctx, req)
	g.observe(ctx, "quiz", start, err)
	if err != nil {
		return nil
	}

	log := observability.LoggerFromContext(ctx)
	valid := make([]domain.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			log.Warn("dropping malformed quiz question", "error", err)
			continue
		}
		valid = append(valid, q)
	}
	return valid
}

func (g *Gateway) Speak(ctx context.Context, text string) string {
	start := time.Now()
	audio, err := g.client.Speak(ctx, text)
	g.observe(ctx, "speech", start, err)
	if err != nil {
		return ""
	}
	return audio
}
