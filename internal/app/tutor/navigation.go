package tutor

import (
	"context"
	"fmt"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/quiz"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

func invalidTransition(op string, view domain.View) error {
	return fmt.Errorf("%s from %s: %w", op, view, domain.ErrInvalidTransition)
}

// SelectGrade moves from the welcome screen to the dashboard.
func (s *Service) SelectGrade(ctx context.Context, g domain.Grade) error {
	ctx = s.withSession(ctx)
	if !g.Valid() {
		return fmt.Errorf("grade %d: %w", g, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.session.View != domain.ViewWelcome {
		view := s.session.View
		s.mu.Unlock()
		return invalidTransition("select grade", view)
	}
	s.session.Grade = g
	s.transitionLocked(domain.ViewDashboard)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("grade selected", "grade", int(g))
	s.publish()
	return nil
}

// SelectMode moves from the dashboard to topic selection, or straight to the
// homework screen where the tutor greets the learner out loud.
func (s *Service) SelectMode(ctx context.Context, m domain.Mode) error {
	ctx = s.withSession(ctx)
	if _, err := domain.ParseMode(string(m)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	s.mu.Lock()
	if s.session.View != domain.ViewDashboard {
		view := s.session.View
		s.mu.Unlock()
		return invalidTransition("select mode", view)
	}
	s.session.Mode = m

	if m != domain.ModeHomework {
		s.transitionLocked(domain.ViewTopic)
		s.mu.Unlock()
		observability.LoggerFromContext(ctx).Info("mode selected", "mode", m)
		s.publish()
		return nil
	}

	s.transitionLocked(domain.ViewHomework)
	greeting := domain.Text(s.session.Language, domain.TextHomeworkPrompt)
	s.transcript = []domain.ChatMessage{s.newMessage(domain.RoleModel, greeting)}
	gen := s.session.Generation
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("mode selected", "mode", m)
	s.publish()
	s.speak(ctx, gen, greeting)
	return nil
}

// SelectTopic opens the lesson (explain or story) or the quiz for topic t and
// issues the request that fills it.
func (s *Service) SelectTopic(ctx context.Context, t domain.Topic) error {
	ctx = s.withSession(ctx)
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	if s.session.View != domain.ViewTopic {
		view := s.session.View
		s.mu.Unlock()
		return invalidTransition("select topic", view)
	}
	if !s.session.Grade.Offers(t) {
		grade := s.session.Grade
		s.mu.Unlock()
		return fmt.Errorf("topic %q is not taught in grade %d: %w", t, grade, domain.ErrInvalidTransition)
	}
	token, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.session.Topic = t
	mode := s.session.Mode
	lang := s.session.Language
	s.quiz = nil

	if mode == domain.ModeQuiz {
		s.transitionLocked(domain.ViewQuiz)
		s.transcript = nil
	} else {
		s.transitionLocked(domain.ViewLesson)
		s.transcript = []domain.ChatMessage{s.newMessage(domain.RoleModel, domain.Text(lang, domain.TextInitLesson))}
	}
	gen := s.session.Generation
	lesson := s.lessonLocked()
	s.mu.Unlock()

	log.Info("topic selected", "topic", t, "mode", mode)
	s.publish()

	switch mode {
	case domain.ModeQuiz:
		s.background(ctx, func(ctx context.Context) { s.loadQuiz(ctx, token, gen, lesson) })
	case domain.ModeExperiment:
		s.background(ctx, func(ctx context.Context) {
			s.openLesson(ctx, token, gen, "story", s.gateway.Story(ctx, lesson))
		})
	default:
		s.background(ctx, func(ctx context.Context) {
			s.openLesson(ctx, token, gen, "explain", s.gateway.Explain(ctx, domain.ExplainRequest{LessonContext: lesson}))
		})
	}
	return nil
}

// openLesson replaces the preparing entry with the tutor's opening text.
func (s *Service) openLesson(ctx context.Context, token, gen uint64, kind, text string) {
	s.mu.Lock()
	s.endLocked(token)
	if s.session.Generation != gen {
		s.mu.Unlock()
		s.discardStale(ctx, kind)
		s.publish()
		return
	}
	s.transcript = []domain.ChatMessage{s.newMessage(domain.RoleModel, text)}
	s.touchLocked()
	s.mu.Unlock()

	s.publish()
	s.speak(ctx, gen, text)
}

func (s *Service) loadQuiz(ctx context.Context, token, gen uint64, lesson domain.LessonContext) {
	questions := s.gateway.GenerateQuiz(ctx, domain.QuizRequest{LessonContext: lesson, Count: s.quizSize})

	s.mu.Lock()
	s.endLocked(token)
	if s.session.Generation != gen {
		s.mu.Unlock()
		s.discardStale(ctx, "quiz")
		s.publish()
		return
	}
	if len(questions) == 0 {
		msg := s.newMessage(domain.RoleModel, domain.Text(lesson.Language, domain.TextQuizFail))
		msg.IsError = true
		s.transcript = []domain.ChatMessage{msg}
		s.mu.Unlock()
		observability.LoggerFromContext(ctx).Warn("quiz unavailable", "error", domain.ErrEmptyResult)
		s.publish()
		return
	}
	s.quiz = quiz.New(questions)
	s.touchLocked()
	s.mu.Unlock()

	s.publish()
}

// AnswerQuiz scores choice against the current question. Answering the last
// question leaves the quiz for a lesson view holding the spoken summary.
func (s *Service) AnswerQuiz(ctx context.Context, choice int) (quiz.Result, error) {
	ctx = s.withSession(ctx)

	s.mu.Lock()
	if s.session.View != domain.ViewQuiz || s.quiz == nil {
		view := s.session.View
		s.mu.Unlock()
		return quiz.Result{}, invalidTransition("answer quiz", view)
	}
	res, err := s.quiz.Answer(choice)
	if err != nil {
		s.mu.Unlock()
		return quiz.Result{}, err
	}
	if !res.Finished {
		s.touchLocked()
		s.mu.Unlock()
		s.publish()
		return res, nil
	}

	summary := domain.QuizSummary(res.Score, res.Total, s.session.Language)
	s.quiz = nil
	s.transitionLocked(domain.ViewLesson)
	s.transcript = []domain.ChatMessage{s.newMessage(domain.RoleModel, summary)}
	gen := s.session.Generation
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("quiz finished", "score", res.Score, "total", res.Total)
	s.publish()
	s.speak(ctx, gen, summary)
	return res, nil
}

// Back undoes the forward edge that led to the current view. Playback stops
// and any recording is discarded.
func (s *Service) Back(ctx context.Context) error {
	ctx = s.withSession(ctx)

	s.mu.Lock()
	from := s.session.View
	switch from {
	case domain.ViewDashboard:
		s.session.Grade = domain.GradeUnset
		s.transitionLocked(domain.ViewWelcome)
	case domain.ViewTopic:
		s.session.Topic = ""
		s.session.Mode = ""
		s.transitionLocked(domain.ViewDashboard)
	case domain.ViewLesson, domain.ViewQuiz:
		s.session.Topic = ""
		s.transcript = nil
		s.quiz = nil
		s.transitionLocked(domain.ViewTopic)
	case domain.ViewHomework:
		s.session.Mode = ""
		s.transcript = nil
		s.transitionLocked(domain.ViewDashboard)
	default:
		s.mu.Unlock()
		return invalidTransition("back", from)
	}
	// Whatever was in flight belongs to the view just left.
	s.loading = false
	to := s.session.View
	s.mu.Unlock()

	s.player.Stop()
	if _, err := s.recorder.Stop(); err != nil {
		observability.LoggerFromContext(ctx).Warn("discarding recording", "error", err)
	}

	observability.LoggerFromContext(ctx).Info("navigated back", "from", from, "to", to)
	s.publish()
	return nil
}

// ToggleLanguage stops playback and flips between Arabic and English. The
// current view and its pending requests are kept.
func (s *Service) ToggleLanguage(ctx context.Context) domain.Language {
	s.player.Stop()

	s.mu.Lock()
	s.session.Language = s.session.Language.Toggle()
	s.touchLocked()
	lang := s.session.Language
	s.mu.Unlock()

	observability.LoggerFromContext(s.withSession(ctx)).Info("language changed", "language", lang)
	s.publish()
	return lang
}

// SetLanguage selects lang, stopping playback when it changes.
func (s *Service) SetLanguage(ctx context.Context, lang domain.Language) domain.Language {
	s.mu.Lock()
	same := s.session.Language == lang
	s.mu.Unlock()
	if same {
		return lang
	}
	return s.ToggleLanguage(ctx)
}

func (s *Service) StopAudio() {
	s.player.Stop()
}
