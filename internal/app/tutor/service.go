// Package tutor is the conversation state machine of one learner session.
// It owns the session state, the transcript and the quiz, and drives the
// playback and capture controllers.
package tutor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/capture"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/playback"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/quiz"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

const DefaultQuizSize = 3

type Options struct {
	// QuizSize is how many questions a quiz batch asks for.
	QuizSize int
}

// Service serializes every operation on a session through one mutex. AI
// requests run outside the lock; their results are applied under it only if
// the session has not moved to another view in the meantime.
type Service struct {
	gateway  domain.Gateway
	player   *playback.Controller
	recorder *capture.Controller
	quizSize int
	now      func() time.Time

	mu         sync.Mutex
	session    *domain.Session
	transcript []domain.ChatMessage
	quiz       *quiz.Quiz
	loading    bool
	loadingSeq uint64
	closed     bool

	subsMu     sync.Mutex
	subs       map[int]chan Snapshot
	nextSub    int
	subsClosed bool

	wg sync.WaitGroup
}

func NewService(
	id domain.SessionID,
	gateway domain.Gateway,
	newOutput audio.OutputFactory,
	mic audio.Microphone,
	opts Options,
) *Service {
	if opts.QuizSize <= 0 {
		opts.QuizSize = DefaultQuizSize
	}

	s := &Service{
		gateway:  gateway,
		player:   playback.NewController(gateway, newOutput),
		recorder: capture.NewController(mic),
		quizSize: opts.QuizSize,
		now:      time.Now,
		subs:     make(map[int]chan Snapshot),
	}
	s.session = domain.NewSession(id, s.now())
	s.player.OnStateChange(func(playback.State) { s.publish() })
	return s
}

func (s *Service) ID() domain.SessionID {
	return s.session.ID
}

// QuizView is the learner-facing progress of a running quiz.
type QuizView struct {
	Index    int                  `json:"index"`
	Total    int                  `json:"total"`
	Score    int                  `json:"score"`
	Question *domain.QuizQuestion `json:"question,omitempty"`
}

// Snapshot is an immutable copy of everything the UI renders.
type Snapshot struct {
	Session    domain.Session       `json:"session"`
	Transcript []domain.ChatMessage `json:"transcript"`
	Topics     []domain.Topic       `json:"topics,omitempty"`
	Quiz       *QuizView            `json:"quiz,omitempty"`
	Loading    bool                 `json:"loading"`
	Playback   playback.State       `json:"playback"`
	Recording  capture.State        `json:"recording"`
	Direction  string               `json:"direction"`
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		Session:    *s.session,
		Transcript: make([]domain.ChatMessage, len(s.transcript)),
		Loading:    s.loading,
		Playback:   s.player.State(),
		Recording:  s.recorder.State(),
		Direction:  s.session.Language.Direction(),
	}
	for i, m := range s.transcript {
		m.Images = append([]string(nil), m.Images...)
		snap.Transcript[i] = m
	}
	if s.session.Grade.Valid() {
		snap.Topics = domain.TopicsForGrade(s.session.Grade)
	}
	if s.quiz != nil {
		qv := &QuizView{Index: s.quiz.Index(), Total: s.quiz.Total(), Score: s.quiz.Score()}
		if q, ok := s.quiz.Current(); ok {
			qv.Question = &q
		}
		snap.Quiz = qv
	}
	return snap
}

// Subscribe delivers a snapshot after every change. Slow subscribers only
// see the latest state. The returned func unsubscribes.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subsClosed {
		close(ch)
	} else {
		s.subs[id] = ch
	}
	s.subsMu.Unlock()

	cancel := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Service) publish() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the undelivered snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// LastActivity is when the session last changed. A session waiting on the
// backend counts as active.
func (s *Service) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return s.now()
	}
	return s.session.UpdatedAt
}

// Wait blocks until every background request and speech started so far has
// finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close ends the session: playback stops, the output device and any
// microphone are released and subscribers are disconnected.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.session.Generation++
	s.mu.Unlock()

	_, _ = s.recorder.Stop()
	err := s.player.Close()

	s.subsMu.Lock()
	s.subsClosed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()
	return err
}

// beginLocked opens the loading gate for one AI request. A recording in
// progress holds the gate for the voice turn it will become.
func (s *Service) beginLocked() (uint64, error) {
	if s.closed {
		return 0, domain.ErrSessionNotFound
	}
	if s.loading || s.recorder.State() != capture.StateIdle {
		return 0, domain.ErrBusy
	}
	s.loadingSeq++
	s.loading = true
	return s.loadingSeq, nil
}

func (s *Service) endLocked(token uint64) {
	if s.loadingSeq == token {
		s.loading = false
	}
}

// transitionLocked moves to view and invalidates in-flight responses.
func (s *Service) transitionLocked(view domain.View) {
	s.session.View = view
	s.session.Generation++
	s.touchLocked()
}

func (s *Service) touchLocked() {
	s.session.UpdatedAt = s.now()
}

func (s *Service) newMessage(role domain.Role, text string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        domain.MessageID(generateID()),
		Role:      role,
		Text:      text,
		CreatedAt: s.now(),
	}
}

func (s *Service) lessonLocked() domain.LessonContext {
	return domain.LessonContext{
		Grade:    s.session.Grade,
		Topic:    s.session.Topic,
		Language: s.session.Language,
	}
}

// background runs fn detached from the caller's cancellation.
func (s *Service) background(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// speak queues text for playback if the session is still on generation gen.
func (s *Service) speak(ctx context.Context, gen uint64, text string) {
	s.background(ctx, func(ctx context.Context) {
		s.mu.Lock()
		current := !s.closed && s.session.Generation == gen
		s.mu.Unlock()
		if !current {
			return
		}
		s.player.Play(ctx, text)
	})
}

func (s *Service) withSession(ctx context.Context) context.Context {
	return observability.WithSessionID(ctx, string(s.session.ID))
}

func (s *Service) discardStale(ctx context.Context, kind string) {
	observability.StaleResponses.WithLabelValues(kind).Inc()
	observability.LoggerFromContext(ctx).Info("discarding stale response", "kind", kind)
}

func generateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
