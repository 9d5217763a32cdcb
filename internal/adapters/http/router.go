package httpadapter

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/adapters/storage/memory"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/tutor"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

// SessionFactory builds the tutor for a new session. peer is the session's
// browser connection; the factory decides whether it also serves as the
// audio output and microphone.
type SessionFactory func(id domain.SessionID, peer *Peer) *tutor.Service

type Options struct {
	AllowedOrigins []string
	// MicTimeout bounds how long the browser may take to grant the microphone.
	MicTimeout time.Duration
	// SessionIdleTimeout closes sessions left without a browser and without
	// activity for this long. Zero disables it.
	SessionIdleTimeout time.Duration
}

// liveSession pairs a tutor with its browser peer.
type liveSession struct {
	*tutor.Service
	peer *Peer
}

// LastActivity is the later of the tutor's last change and the browser's
// presence.
func (l *liveSession) LastActivity() time.Time {
	last := l.Service.LastActivity()
	if seen := l.peer.lastActivity(); seen.After(last) {
		return seen
	}
	return last
}

// Close ends the tutor and drops the browser connection.
func (l *liveSession) Close() error {
	err := l.Service.Close()
	l.peer.disconnect()
	return err
}

type Server struct {
	store      *memory.SessionStore[*liveSession]
	newSession SessionFactory
	opts       Options
	upgrader   websocket.Upgrader
}

// NewServer wires the REST API, the session websocket, metrics and health
// checks. It returns the handler and the server, whose Shutdown ends every
// session.
func NewServer(newSession SessionFactory, opts Options) (http.Handler, *Server) {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		store:      memory.NewSessionStore[*liveSession](opts.SessionIdleTimeout),
		newSession: newSession,
		opts:       opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return originAllowed(opts.AllowedOrigins, r) },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", s.handleCatalog).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/ws", s.handleWebSocket).Methods(http.MethodGet)

	api.HandleFunc("/sessions/{id}/language", s.handleLanguage).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/grade", s.handleGrade).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/mode", s.handleMode).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/topic", s.handleTopic).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/back", s.handleBack).Methods(http.MethodPost)

	api.HandleFunc("/sessions/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/simplify", s.handleSimplify).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/images", s.handleImages).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/quiz/answer", s.handleQuizAnswer).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/homework", s.handleHomework).Methods(http.MethodPost)

	api.HandleFunc("/sessions/{id}/audio/stop", s.handleStopAudio).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/recording/start", s.handleStartRecording).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/recording/stop", s.handleStopRecording).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})

	return chainMiddlewares(r, withLogging, withRequestID, c.Handler), s
}

// Shutdown ends every live session.
func (s *Server) Shutdown() {
	s.store.CloseAll()
}

func originAllowed(allowed []string, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
