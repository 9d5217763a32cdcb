package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

// maxImages is how many generated images one request may attach.
const maxImages = 2

func chatView(v domain.View) bool {
	return v == domain.ViewLesson || v == domain.ViewHomework
}

// SendText is a typed chat turn.
func (s *Service) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}
	return s.turn(s.withSession(ctx), "chat", domain.ChatMessage{Text: text}, func(lesson domain.LessonContext) domain.ExplainRequest {
		return domain.ExplainRequest{LessonContext: lesson, Query: text}
	})
}

// Simplify asks the tutor to explain the lesson again with a simpler example.
func (s *Service) Simplify(ctx context.Context) error {
	s.mu.Lock()
	view, lang := s.session.View, s.session.Language
	s.mu.Unlock()
	if view != domain.ViewLesson {
		return invalidTransition("simplify", view)
	}
	return s.SendText(ctx, domain.Text(lang, domain.TextSimplifyRequest))
}

// SendVoice is a spoken chat turn. The transcript shows a voice marker in
// place of the audio.
func (s *Service) SendVoice(ctx context.Context, blob *audio.Blob) error {
	if blob == nil || len(blob.Data) == 0 {
		return fmt.Errorf("empty recording: %w", domain.ErrInvalidInput)
	}
	media := blob.Media()
	return s.turn(s.withSession(ctx), "voice", domain.ChatMessage{}, func(lesson domain.LessonContext) domain.ExplainRequest {
		return domain.ExplainRequest{LessonContext: lesson, Audio: &media}
	})
}

// turn stops any speech, appends the user's message, asks the gateway and
// appends exactly one tutor reply, which is then spoken.
func (s *Service) turn(ctx context.Context, kind string, user domain.ChatMessage, build func(domain.LessonContext) domain.ExplainRequest) error {
	s.mu.Lock()
	if !chatView(s.session.View) {
		view := s.session.View
		s.mu.Unlock()
		return invalidTransition(kind, view)
	}
	token, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if user.Text == "" {
		user.Text = domain.Text(s.session.Language, domain.TextVoiceMessage)
	}
	msg := s.newMessage(domain.RoleUser, user.Text)
	s.transcript = append(s.transcript, msg)
	s.touchLocked()
	gen := s.session.Generation
	req := build(s.lessonLocked())
	s.mu.Unlock()

	s.player.Stop()
	s.publish()
	s.background(ctx, func(ctx context.Context) {
		s.reply(ctx, token, gen, kind, s.gateway.Explain(ctx, req))
	})
	return nil
}

// SubmitHomework uploads a photo of the learner's homework for correction.
func (s *Service) SubmitHomework(ctx context.Context, image *audio.Blob) error {
	ctx = s.withSession(ctx)
	if image == nil || len(image.Data) == 0 || !strings.HasPrefix(image.MimeType, "image/") {
		return fmt.Errorf("homework upload must be an image: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.session.View != domain.ViewHomework {
		view := s.session.View
		s.mu.Unlock()
		return invalidTransition("submit homework", view)
	}
	token, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	msg := s.newMessage(domain.RoleUser, domain.Text(s.session.Language, domain.TextUploaded))
	msg.ImageURL = image.DataURL()
	s.transcript = append(s.transcript, msg)
	s.touchLocked()
	gen := s.session.Generation
	req := domain.HomeworkRequest{Grade: s.session.Grade, Language: s.session.Language, Image: image.Media()}
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("homework uploaded", "mime_type", image.MimeType, "bytes", len(image.Data))
	s.player.Stop()
	s.publish()
	s.background(ctx, func(ctx context.Context) {
		s.reply(ctx, token, gen, "homework", s.gateway.CorrectHomework(ctx, req))
	})
	return nil
}

func (s *Service) reply(ctx context.Context, token, gen uint64, kind, text string) {
	s.mu.Lock()
	s.endLocked(token)
	if s.session.Generation != gen {
		s.mu.Unlock()
		s.discardStale(ctx, kind)
		s.publish()
		return
	}
	s.transcript = append(s.transcript, s.newMessage(domain.RoleModel, text))
	s.touchLocked()
	s.mu.Unlock()

	s.publish()
	s.speak(ctx, gen, text)
}

// RequestImages draws the current topic, optionally refined by extra. A
// placeholder entry is shown meanwhile and is always resolved in place.
func (s *Service) RequestImages(ctx context.Context, extra string) error {
	ctx = s.withSession(ctx)

	s.mu.Lock()
	if s.session.View != domain.ViewLesson {
		view := s.session.View
		s.mu.Unlock()
		return invalidTransition("request images", view)
	}
	token, err := s.beginLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	lang := s.session.Language
	placeholder := s.newMessage(domain.RoleModel, domain.Text(lang, domain.TextImageGen))
	s.transcript = append(s.transcript, placeholder)
	s.touchLocked()
	prompt := strings.TrimSpace(domain.TopicLabel(s.session.Topic, lang) + " " + strings.TrimSpace(extra))
	s.mu.Unlock()

	s.publish()
	s.background(ctx, func(ctx context.Context) {
		images := s.gateway.GenerateImages(ctx, prompt)
		s.resolveImages(ctx, token, placeholder.ID, images)
	})
	return nil
}

// resolveImages replaces the placeholder wherever it still is, in the
// language shown now. A transcript cleared in the meantime no longer holds
// it and nothing changes.
func (s *Service) resolveImages(ctx context.Context, token uint64, id domain.MessageID, images []string) {
	if len(images) > maxImages {
		images = images[:maxImages]
	}

	s.mu.Lock()
	s.endLocked(token)
	lang := s.session.Language
	found := false
	for i := range s.transcript {
		if s.transcript[i].ID != id {
			continue
		}
		found = true
		if len(images) == 0 {
			s.transcript[i].Text = domain.Text(lang, domain.TextImageFail)
			s.transcript[i].IsError = true
		} else {
			s.transcript[i].Text = domain.Text(lang, domain.TextImageDone)
			s.transcript[i].Images = append([]string(nil), images...)
		}
		s.touchLocked()
		break
	}
	s.mu.Unlock()

	if !found {
		s.discardStale(ctx, "images")
	}
	s.publish()
}

// StartRecording stops playback and opens the microphone for a voice turn.
func (s *Service) StartRecording(ctx context.Context) error {
	ctx = s.withSession(ctx)

	s.mu.Lock()
	view := s.session.View
	busy := s.loading
	s.mu.Unlock()
	if !chatView(view) {
		return invalidTransition("start recording", view)
	}
	if busy {
		return domain.ErrBusy
	}

	s.player.Stop()
	err := s.recorder.Start(ctx)
	s.publish()
	return err
}

// StopRecording closes the microphone and sends what was recorded as a
// voice turn. Nothing is sent when no recording was active.
func (s *Service) StopRecording(ctx context.Context) error {
	blob, err := s.recorder.Stop()
	if err != nil {
		observability.LoggerFromContext(s.withSession(ctx)).Warn("releasing microphone", "error", err)
	}
	s.publish()
	if blob == nil || len(blob.Data) == 0 {
		return nil
	}
	if err := s.SendVoice(ctx, blob); err != nil {
		observability.LoggerFromContext(s.withSession(ctx)).Warn("discarding recording", "bytes", len(blob.Data), "error", err)
		return err
	}
	return nil
}
