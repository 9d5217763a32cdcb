package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/quiz"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/tutor"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

// maxUploadBytes caps homework photos.
const maxUploadBytes = 10 << 20

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type languageRequest struct {
	// Language is "ar" or "en"; empty toggles.
	Language string `json:"language,omitempty"`
}

type gradeRequest struct {
	Grade int `json:"grade"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type imagesRequest struct {
	Extra string `json:"extra,omitempty"`
}

type quizAnswerRequest struct {
	Choice *int `json:"choice"`
}

type quizAnswerResponse struct {
	Result   quiz.Result    `json:"result"`
	Snapshot tutor.Snapshot `json:"snapshot"`
}

type labelResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type gradeResponse struct {
	ID     int             `json:"id"`
	Label  string          `json:"label"`
	Topics []labelResponse `json:"topics"`
}

type catalogResponse struct {
	Language  domain.Language           `json:"language"`
	Direction string                    `json:"direction"`
	Grades    []gradeResponse           `json:"grades"`
	Modes     []labelResponse           `json:"modes"`
	Texts     map[domain.TextKey]string `json:"texts"`
}

// ─────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(uuid.Must(uuid.NewV7()).String())
	peer := NewPeer(s.opts.MicTimeout)
	live := &liveSession{Service: s.newSession(id, peer), peer: peer}

	if err := s.store.CreateSession(live); err != nil {
		internalError(w, r, err)
		return
	}

	observability.LoggerFromContext(r.Context()).Info("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, live.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, live.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(mux.Vars(r)["id"])
	if err := s.store.DeleteSession(id); err != nil {
		writeError(w, r, err)
		return
	}
	observability.LoggerFromContext(r.Context()).Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Navigation
// ─────────────────────────────────────────────

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		if req.Language == "" {
			live.ToggleLanguage(ctx)
			return nil
		}
		lang, err := domain.ParseLanguage(req.Language)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		live.SetLanguage(ctx, lang)
		return nil
	})
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.SelectGrade(ctx, domain.Grade(req.Grade))
	})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		mode, err := domain.ParseMode(req.Mode)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return live.SelectMode(ctx, mode)
	})
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		topic, err := domain.ParseTopic(req.Topic)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return live.SelectTopic(ctx, topic)
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.Back(ctx)
	})
}

// ─────────────────────────────────────────────
// Turns
// ─────────────────────────────────────────────

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.SendText(ctx, req.Text)
	})
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.Simplify(ctx)
	})
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var req imagesRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.RequestImages(ctx, req.Extra)
	})
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	var req quizAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Choice == nil {
		badRequest(w, "choice is required")
		return
	}

	live, ok := s.session(w, r)
	if !ok {
		return
	}
	res, err := live.AnswerQuiz(r.Context(), *req.Choice)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizAnswerResponse{Result: res, Snapshot: live.Snapshot()})
}

func (s *Server) handleHomework(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "reading image failed")
		return
	}
	blob := &audio.Blob{Data: data, MimeType: header.Header.Get("Content-Type")}
	if blob.MimeType == "" {
		blob.MimeType = http.DetectContentType(data)
	}

	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.SubmitHomework(ctx, blob)
	})
}

// ─────────────────────────────────────────────
// Audio
// ─────────────────────────────────────────────

func (s *Server) handleStopAudio(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		live.StopAudio()
		return nil
	})
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.StartRecording(ctx)
	})
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, live *liveSession) error {
		return live.StopRecording(ctx)
	})
}

// ─────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	lang := domain.LangArabic
	if q := r.URL.Query().Get("lang"); q != "" {
		parsed, err := domain.ParseLanguage(q)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		lang = parsed
	}

	resp := catalogResponse{
		Language:  lang,
		Direction: lang.Direction(),
		Texts:     domain.Texts(lang),
	}
	for _, g := range domain.AllGrades {
		gr := gradeResponse{ID: int(g), Label: domain.GradeLabel(g, lang)}
		for _, t := range domain.TopicsForGrade(g) {
			gr.Topics = append(gr.Topics, labelResponse{ID: string(t), Label: domain.TopicLabel(t, lang)})
		}
		resp.Grades = append(resp.Grades, gr)
	}
	for _, m := range domain.AllModes {
		resp.Modes = append(resp.Modes, labelResponse{ID: string(m), Label: domain.ModeLabel(m, lang)})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Session helpers
// ─────────────────────────────────────────────

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*liveSession, bool) {
	live, err := s.store.GetSession(domain.SessionID(mux.Vars(r)["id"]))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return live, true
}

// withSession runs op on the addressed session and answers with the
// resulting snapshot.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, op func(context.Context, *liveSession) error) {
	live, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), live); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, live.Snapshot())
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrQuizFinished):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		internalError(w, r, err)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
