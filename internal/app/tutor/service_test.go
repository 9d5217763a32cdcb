package tutor_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/playback"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/tutor"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

// fakeGateway answers every request immediately unless a hook is set.
type fakeGateway struct {
	mu       sync.Mutex
	explains []domain.ExplainRequest
	spoken   []string

	explain   func(domain.ExplainRequest) string
	homework  func() string
	images    func(prompt string) []string
	questions []domain.QuizQuestion
}

func (g *fakeGateway) Explain(_ context.Context, req domain.ExplainRequest) string {
	g.mu.Lock()
	g.explains = append(g.explains, req)
	hook := g.explain
	g.mu.Unlock()
	if hook != nil {
		return hook(req)
	}
	if req.Query != "" {
		return "answer to " + req.Query
	}
	return "lesson about " + string(req.Topic)
}

func (g *fakeGateway) Story(_ context.Context, req domain.LessonContext) string {
	return "Once upon a time... " + string(req.Topic)
}

func (g *fakeGateway) CorrectHomework(context.Context, domain.HomeworkRequest) string {
	if g.homework != nil {
		return g.homework()
	}
	return "well done"
}

func (g *fakeGateway) GenerateImages(_ context.Context, prompt string) []string {
	if g.images != nil {
		return g.images(prompt)
	}
	return nil
}

func (g *fakeGateway) GenerateQuiz(context.Context, domain.QuizRequest) []domain.QuizQuestion {
	return g.questions
}

func (g *fakeGateway) Speak(_ context.Context, text string) string {
	g.mu.Lock()
	g.spoken = append(g.spoken, text)
	g.mu.Unlock()
	return base64.StdEncoding.EncodeToString(make([]byte, 480))
}

func (g *fakeGateway) lastExplain() domain.ExplainRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.explains[len(g.explains)-1]
}

func (g *fakeGateway) spokenTexts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.spoken...)
}

// fakeOutput plays every buffer "forever" and counts stops.
type fakeOutput struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (o *fakeOutput) Resume(context.Context) error { return nil }

func (o *fakeOutput) Start(*audio.Buffer) (audio.Voice, error) {
	o.mu.Lock()
	o.starts++
	o.mu.Unlock()
	return audio.NewTimedVoice(time.Hour, func() {
		o.mu.Lock()
		o.stops++
		o.mu.Unlock()
	}), nil
}

func (o *fakeOutput) Close() error { return nil }

func (o *fakeOutput) counts() (starts, stops int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.starts, o.stops
}

type fakeStream struct {
	ch   chan []byte
	once sync.Once
}

func (s *fakeStream) Chunks() <-chan []byte { return s.ch }
func (s *fakeStream) MimeType() string      { return "audio/webm" }
func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}

type fakeMic struct {
	stream *fakeStream
	err    error
}

func (m *fakeMic) Open(context.Context) (audio.InputStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

type fixture struct {
	svc *tutor.Service
	gw  *fakeGateway
	out *fakeOutput
	mic *fakeMic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:  &fakeGateway{},
		out: &fakeOutput{},
		mic: &fakeMic{stream: &fakeStream{ch: make(chan []byte, 8)}},
	}
	factory := func(context.Context) (audio.Output, error) { return f.out, nil }
	f.svc = tutor.NewService("s-1", f.gw, factory, f.mic, tutor.Options{})
	t.Cleanup(func() {
		f.svc.Wait()
		_ = f.svc.Close()
	})
	return f
}

func (f *fixture) openLesson(t *testing.T, mode domain.Mode, topic domain.Topic) {
	t.Helper()
	ctx := context.Background()
	if err := f.svc.SelectGrade(ctx, domain.Grade2); err != nil {
		t.Fatalf("SelectGrade failed: %v", err)
	}
	if err := f.svc.SelectMode(ctx, mode); err != nil {
		t.Fatalf("SelectMode failed: %v", err)
	}
	if err := f.svc.SelectTopic(ctx, topic); err != nil {
		t.Fatalf("SelectTopic failed: %v", err)
	}
	f.svc.Wait()
}

func TestNewSessionStartsOnWelcome(t *testing.T) {
	f := newFixture(t)
	snap := f.svc.Snapshot()

	if snap.Session.View != domain.ViewWelcome {
		t.Fatalf("expected welcome view, got %s", snap.Session.View)
	}
	if snap.Session.Language != domain.LangArabic || snap.Direction != "rtl" {
		t.Fatalf("expected arabic rtl, got %s %s", snap.Session.Language, snap.Direction)
	}
}

func TestBackFromTopicKeepsGrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.svc.SelectGrade(ctx, domain.Grade4)
	_ = f.svc.SelectMode(ctx, domain.ModeExplain)
	if err := f.svc.Back(ctx); err != nil {
		t.Fatalf("Back failed: %v", err)
	}

	s := f.svc.Snapshot().Session
	if s.View != domain.ViewDashboard {
		t.Fatalf("expected dashboard, got %s", s.View)
	}
	if s.Grade != domain.Grade4 {
		t.Fatalf("expected grade kept, got %d", s.Grade)
	}
	if s.Mode != "" || s.Topic != "" {
		t.Fatalf("expected mode and topic cleared, got %q %q", s.Mode, s.Topic)
	}

	if err := f.svc.Back(ctx); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	s = f.svc.Snapshot().Session
	if s.View != domain.ViewWelcome || s.Grade != domain.GradeUnset {
		t.Fatalf("expected welcome with no grade, got %s grade %d", s.View, s.Grade)
	}

	if err := f.svc.Back(ctx); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from welcome, got %v", err)
	}
}

func TestBackFromLessonClearsTranscript(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)

	if err := f.svc.Back(context.Background()); err != nil {
		t.Fatalf("Back failed: %v", err)
	}

	snap := f.svc.Snapshot()
	if snap.Session.View != domain.ViewTopic {
		t.Fatalf("expected topic view, got %s", snap.Session.View)
	}
	if len(snap.Transcript) != 0 || snap.Session.Topic != "" {
		t.Fatalf("expected empty transcript and topic, got %d entries, topic %q", len(snap.Transcript), snap.Session.Topic)
	}
	if snap.Session.Mode != domain.ModeExplain {
		t.Fatalf("expected mode kept, got %q", snap.Session.Mode)
	}
	if snap.Playback != playback.StateIdle {
		t.Fatalf("expected playback stopped, got %s", snap.Playback)
	}
}

func TestSelectTopicOpensLessonAndSpeaks(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)

	snap := f.svc.Snapshot()
	if snap.Session.View != domain.ViewLesson {
		t.Fatalf("expected lesson view, got %s", snap.Session.View)
	}
	if len(snap.Transcript) != 1 || snap.Transcript[0].Text != "lesson about senses" {
		t.Fatalf("expected the explanation as only entry, got %+v", snap.Transcript)
	}
	if snap.Loading {
		t.Fatalf("expected loading cleared")
	}
	if starts, _ := f.out.counts(); starts != 1 {
		t.Fatalf("expected explanation to be spoken, got %d playbacks", starts)
	}
}

func TestExperimentModeTellsStory(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExperiment, domain.TopicMaterials)

	snap := f.svc.Snapshot()
	if len(snap.Transcript) != 1 || !strings.HasPrefix(snap.Transcript[0].Text, "Once upon a time...") {
		t.Fatalf("expected a story, got %+v", snap.Transcript)
	}
}

func TestTopicOutsideGradeIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.SelectGrade(ctx, domain.Grade1)
	_ = f.svc.SelectMode(ctx, domain.ModeExplain)

	err := f.svc.SelectTopic(ctx, domain.TopicSolarSystem)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if v := f.svc.Snapshot().Session.View; v != domain.ViewTopic {
		t.Fatalf("expected to stay on topic view, got %s", v)
	}
}

func TestChatTurnAppendsUserThenModel(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)

	if err := f.svc.SendText(context.Background(), "why is the sky blue?"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	f.svc.Wait()

	tr := f.svc.Snapshot().Transcript
	if len(tr) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tr))
	}
	if tr[1].Role != domain.RoleUser || tr[1].Text != "why is the sky blue?" {
		t.Fatalf("unexpected user entry %+v", tr[1])
	}
	if tr[2].Role != domain.RoleModel || tr[2].Text != "answer to why is the sky blue?" {
		t.Fatalf("unexpected model entry %+v", tr[2])
	}
	if req := f.gw.lastExplain(); req.Topic != domain.TopicSenses || req.Grade != domain.Grade2 {
		t.Fatalf("expected lesson context on request, got %+v", req)
	}
}

func TestSimplifySendsLocalizedRequest(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)
	f.svc.ToggleLanguage(context.Background())

	if err := f.svc.Simplify(context.Background()); err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	f.svc.Wait()

	if q := f.gw.lastExplain().Query; q != "Explain simpler" {
		t.Fatalf("expected english simplify request, got %q", q)
	}
}

func TestSendTextWhileLoadingIsBusy(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.gw.explain = func(domain.ExplainRequest) string {
		<-release
		return "late lesson"
	}

	ctx := context.Background()
	_ = f.svc.SelectGrade(ctx, domain.Grade2)
	_ = f.svc.SelectMode(ctx, domain.ModeExplain)
	if err := f.svc.SelectTopic(ctx, domain.TopicSenses); err != nil {
		t.Fatalf("SelectTopic failed: %v", err)
	}

	snap := f.svc.Snapshot()
	if !snap.Loading {
		t.Fatalf("expected loading while the lesson is prepared")
	}
	if len(snap.Transcript) != 1 || snap.Transcript[0].Text != domain.Text(domain.LangArabic, domain.TextInitLesson) {
		t.Fatalf("expected preparing entry, got %+v", snap.Transcript)
	}

	if err := f.svc.SendText(ctx, "hello"); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := f.svc.RequestImages(ctx, ""); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy for images, got %v", err)
	}

	close(release)
	f.svc.Wait()

	if f.svc.Snapshot().Loading {
		t.Fatalf("expected loading cleared after the response")
	}
}

func TestStaleLessonIsDiscarded(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.gw.explain = func(domain.ExplainRequest) string {
		<-release
		return "late lesson"
	}

	ctx := context.Background()
	_ = f.svc.SelectGrade(ctx, domain.Grade2)
	_ = f.svc.SelectMode(ctx, domain.ModeExplain)
	_ = f.svc.SelectTopic(ctx, domain.TopicSenses)

	if err := f.svc.Back(ctx); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if f.svc.Snapshot().Loading {
		t.Fatalf("expected back to release the loading gate")
	}
	close(release)
	f.svc.Wait()

	snap := f.svc.Snapshot()
	if snap.Session.View != domain.ViewTopic {
		t.Fatalf("expected topic view, got %s", snap.Session.View)
	}
	if len(snap.Transcript) != 0 {
		t.Fatalf("expected stale lesson discarded, got %+v", snap.Transcript)
	}
	if starts, _ := f.out.counts(); starts != 0 {
		t.Fatalf("expected nothing spoken, got %d playbacks", starts)
	}
}

func TestRequestImages(t *testing.T) {
	tests := []struct {
		name     string
		images   []string
		wantText domain.TextKey
	}{
		{name: "no images", images: nil, wantText: domain.TextImageFail},
		{name: "one image", images: []string{"data:image/png;base64,AR"}, wantText: domain.TextImageDone},
		{name: "two images keep order", images: []string{"data:image/png;base64,AR", "data:image/png;base64,EN"}, wantText: domain.TextImageDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var prompt string
			f.gw.images = func(p string) []string {
				prompt = p
				return tt.images
			}
			f.openLesson(t, domain.ModeExplain, domain.TopicSenses)

			if err := f.svc.RequestImages(context.Background(), "eyes"); err != nil {
				t.Fatalf("RequestImages failed: %v", err)
			}
			f.svc.Wait()

			tr := f.svc.Snapshot().Transcript
			if len(tr) != 2 {
				t.Fatalf("expected placeholder replaced in place, got %d entries", len(tr))
			}
			got := tr[1]
			if got.Text != domain.Text(domain.LangArabic, tt.wantText) {
				t.Fatalf("expected %q, got %q", domain.Text(domain.LangArabic, tt.wantText), got.Text)
			}
			if len(got.Images) != len(tt.images) {
				t.Fatalf("expected %d images, got %d", len(tt.images), len(got.Images))
			}
			for i := range tt.images {
				if got.Images[i] != tt.images[i] {
					t.Fatalf("image %d: expected %q, got %q", i, tt.images[i], got.Images[i])
				}
			}
			if want := domain.TopicLabel(domain.TopicSenses, domain.LangArabic) + " eyes"; prompt != want {
				t.Fatalf("expected prompt %q, got %q", want, prompt)
			}
		})
	}
}

func TestImagesResolveInCurrentLanguage(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.gw.images = func(string) []string {
		<-release
		return []string{"data:image/png;base64,AR"}
	}
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)
	ctx := context.Background()

	if err := f.svc.RequestImages(ctx, ""); err != nil {
		t.Fatalf("RequestImages failed: %v", err)
	}
	if got := f.svc.Snapshot().Transcript[1].Text; got != domain.Text(domain.LangArabic, domain.TextImageGen) {
		t.Fatalf("expected arabic placeholder, got %q", got)
	}

	f.svc.ToggleLanguage(ctx)
	close(release)
	f.svc.Wait()

	if got := f.svc.Snapshot().Transcript[1].Text; got != domain.Text(domain.LangEnglish, domain.TextImageDone) {
		t.Fatalf("expected english done text, got %q", got)
	}
}

func TestImagesRefusedWhileRecording(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)
	ctx := context.Background()

	if err := f.svc.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if err := f.svc.RequestImages(ctx, ""); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy while recording, got %v", err)
	}
	if err := f.svc.SendText(ctx, "hello"); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy for text while recording, got %v", err)
	}

	f.mic.stream.ch <- []byte("voice")
	if err := f.svc.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	f.svc.Wait()

	if req := f.gw.lastExplain(); req.Audio == nil || string(req.Audio.Data) != "voice" {
		t.Fatalf("expected the recording to be sent, got %+v", req.Audio)
	}
}

func TestNewTurnStopsPlayback(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)
	if got := f.svc.Snapshot().Playback; got != playback.StatePlaying {
		t.Fatalf("expected lesson playing, got %s", got)
	}

	release := make(chan struct{})
	f.gw.mu.Lock()
	f.gw.explain = func(domain.ExplainRequest) string {
		<-release
		return "because"
	}
	f.gw.mu.Unlock()

	if err := f.svc.SendText(context.Background(), "why?"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if got := f.svc.Snapshot().Playback; got != playback.StateIdle {
		t.Fatalf("expected playback stopped while the reply is pending, got %s", got)
	}
	if _, stops := f.out.counts(); stops != 1 {
		t.Fatalf("expected the lesson voice stopped once, got %d", stops)
	}

	close(release)
	f.svc.Wait()
	if got := f.svc.Snapshot().Playback; got != playback.StatePlaying {
		t.Fatalf("expected the reply to be spoken, got %s", got)
	}
}

func TestHomeworkUploadStopsPlayback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.SelectGrade(ctx, domain.Grade5)
	_ = f.svc.SelectMode(ctx, domain.ModeHomework)
	f.svc.Wait()
	if got := f.svc.Snapshot().Playback; got != playback.StatePlaying {
		t.Fatalf("expected greeting playing, got %s", got)
	}

	release := make(chan struct{})
	f.gw.homework = func() string {
		<-release
		return "well done"
	}

	img := &audio.Blob{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}
	if err := f.svc.SubmitHomework(ctx, img); err != nil {
		t.Fatalf("SubmitHomework failed: %v", err)
	}
	if got := f.svc.Snapshot().Playback; got != playback.StateIdle {
		t.Fatalf("expected playback stopped while the correction is pending, got %s", got)
	}

	close(release)
	f.svc.Wait()
}

func TestToggleLanguageStopsAudio(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)

	if got := f.svc.Snapshot().Playback; got != playback.StatePlaying {
		t.Fatalf("expected playing before toggle, got %s", got)
	}

	if lang := f.svc.ToggleLanguage(context.Background()); lang != domain.LangEnglish {
		t.Fatalf("expected english, got %s", lang)
	}

	snap := f.svc.Snapshot()
	if snap.Playback != playback.StateIdle {
		t.Fatalf("expected playback stopped, got %s", snap.Playback)
	}
	if _, stops := f.out.counts(); stops != 1 {
		t.Fatalf("expected the voice to be stopped once, got %d", stops)
	}
	if snap.Session.View != domain.ViewLesson || len(snap.Transcript) != 1 {
		t.Fatalf("expected view and transcript kept, got %s with %d entries", snap.Session.View, len(snap.Transcript))
	}
	if snap.Direction != "ltr" {
		t.Fatalf("expected ltr, got %s", snap.Direction)
	}
}

func TestQuizFinishShowsSummary(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.gw.questions = append(f.gw.questions, domain.QuizQuestion{
			Question:      "q",
			Options:       []string{"a", "b"},
			CorrectAnswer: 1,
		})
	}
	f.openLesson(t, domain.ModeQuiz, domain.TopicSenses)

	snap := f.svc.Snapshot()
	if snap.Session.View != domain.ViewQuiz || snap.Quiz == nil || snap.Quiz.Total != 3 {
		t.Fatalf("expected a 3 question quiz, got view %s quiz %+v", snap.Session.View, snap.Quiz)
	}

	ctx := context.Background()
	for i, choice := range []int{1, 0} {
		res, err := f.svc.AnswerQuiz(ctx, choice)
		if err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		if res.Finished {
			t.Fatalf("answer %d: quiz finished early", i)
		}
	}
	res, err := f.svc.AnswerQuiz(ctx, 1)
	if err != nil {
		t.Fatalf("last answer failed: %v", err)
	}
	if !res.Finished || res.Score != 2 || res.Total != 3 {
		t.Fatalf("expected Finished(2,3), got %+v", res)
	}
	f.svc.Wait()

	snap = f.svc.Snapshot()
	if snap.Session.View != domain.ViewLesson {
		t.Fatalf("expected lesson view after quiz, got %s", snap.Session.View)
	}
	want := domain.QuizSummary(2, 3, domain.LangArabic)
	if len(snap.Transcript) != 1 || snap.Transcript[0].Text != want {
		t.Fatalf("expected summary %q, got %+v", want, snap.Transcript)
	}
	spoken := f.gw.spokenTexts()
	if len(spoken) == 0 || spoken[len(spoken)-1] != want {
		t.Fatalf("expected summary spoken, got %v", spoken)
	}

	if _, err := f.svc.AnswerQuiz(ctx, 0); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after finish, got %v", err)
	}
}

func TestEmptyQuizShowsFailure(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeQuiz, domain.TopicSenses)

	snap := f.svc.Snapshot()
	if snap.Session.View != domain.ViewQuiz {
		t.Fatalf("expected to stay on quiz view, got %s", snap.Session.View)
	}
	if snap.Quiz != nil {
		t.Fatalf("expected no quiz, got %+v", snap.Quiz)
	}
	if len(snap.Transcript) != 1 || !snap.Transcript[0].IsError ||
		snap.Transcript[0].Text != domain.Text(domain.LangArabic, domain.TextQuizFail) {
		t.Fatalf("expected quiz failure message, got %+v", snap.Transcript)
	}
}

func TestHomeworkFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.SelectGrade(ctx, domain.Grade5)
	if err := f.svc.SelectMode(ctx, domain.ModeHomework); err != nil {
		t.Fatalf("SelectMode failed: %v", err)
	}
	f.svc.Wait()

	snap := f.svc.Snapshot()
	greeting := domain.Text(domain.LangArabic, domain.TextHomeworkPrompt)
	if snap.Session.View != domain.ViewHomework || len(snap.Transcript) != 1 || snap.Transcript[0].Text != greeting {
		t.Fatalf("expected homework greeting, got %s %+v", snap.Session.View, snap.Transcript)
	}
	if spoken := f.gw.spokenTexts(); len(spoken) != 1 || spoken[0] != greeting {
		t.Fatalf("expected greeting spoken, got %v", spoken)
	}

	if err := f.svc.SubmitHomework(ctx, &audio.Blob{Data: []byte("txt"), MimeType: "text/plain"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non image, got %v", err)
	}

	img := &audio.Blob{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}
	if err := f.svc.SubmitHomework(ctx, img); err != nil {
		t.Fatalf("SubmitHomework failed: %v", err)
	}
	f.svc.Wait()

	tr := f.svc.Snapshot().Transcript
	if len(tr) != 3 {
		t.Fatalf("expected greeting, upload and correction, got %d entries", len(tr))
	}
	if tr[1].ImageURL != img.DataURL() {
		t.Fatalf("expected uploaded image on user entry, got %q", tr[1].ImageURL)
	}
	if tr[2].Text != "well done" {
		t.Fatalf("expected correction, got %q", tr[2].Text)
	}

	if err := f.svc.Back(ctx); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	snap = f.svc.Snapshot()
	if snap.Session.View != domain.ViewDashboard || snap.Session.Mode != "" || len(snap.Transcript) != 0 {
		t.Fatalf("expected clean dashboard, got %s mode %q %d entries", snap.Session.View, snap.Session.Mode, len(snap.Transcript))
	}
}

func TestVoiceTurn(t *testing.T) {
	f := newFixture(t)
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)
	ctx := context.Background()

	if err := f.svc.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if got := f.svc.Snapshot().Playback; got != playback.StateIdle {
		t.Fatalf("expected playback stopped while recording, got %s", got)
	}
	f.mic.stream.ch <- []byte("voice")

	if err := f.svc.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	f.svc.Wait()

	req := f.gw.lastExplain()
	if req.Audio == nil || string(req.Audio.Data) != "voice" || req.Audio.MimeType != "audio/webm" {
		t.Fatalf("expected recorded audio on request, got %+v", req.Audio)
	}
	tr := f.svc.Snapshot().Transcript
	if len(tr) != 3 || tr[1].Text != domain.Text(domain.LangArabic, domain.TextVoiceMessage) {
		t.Fatalf("expected voice marker entry, got %+v", tr)
	}
}

func TestStartRecordingDenied(t *testing.T) {
	f := newFixture(t)
	f.mic.err = errors.New("blocked")
	f.openLesson(t, domain.ModeExplain, domain.TopicSenses)

	if err := f.svc.StartRecording(context.Background()); !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.svc.Subscribe()
	defer cancel()

	if err := f.svc.SelectGrade(context.Background(), domain.Grade3); err != nil {
		t.Fatalf("SelectGrade failed: %v", err)
	}

	select {
	case snap := <-ch:
		if snap.Session.View != domain.ViewDashboard {
			t.Fatalf("expected dashboard snapshot, got %s", snap.Session.View)
		}
		if len(snap.Topics) != 4 {
			t.Fatalf("expected 4 topics for grade 3, got %d", len(snap.Topics))
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot delivered")
	}
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	f := newFixture(t)
	ch, _ := f.svc.Subscribe()

	if err := f.svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for range ch {
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected subscription closed")
	}
}
