package httpadapter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

// Event types sent to the browser.
const (
	eventSnapshot   = "snapshot"
	eventAudio      = "audio"
	eventAudioStop  = "audio_stop"
	eventMicRequest = "mic_request"
	eventMicStop    = "mic_stop"
)

// Message types received from the browser. Binary frames carry recorded
// audio chunks.
const (
	msgMicGranted = "mic_granted"
	msgMicDenied  = "mic_denied"
)

type event struct {
	Type       string `json:"type"`
	Snapshot   any    `json:"snapshot,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	PCM        string `json:"pcm,omitempty"`
}

type clientMessage struct {
	Type     string `json:"type"`
	MimeType string `json:"mime_type,omitempty"`
}

var errNoClient = errors.New("no browser connected to the session")

const micChunkBuffer = 256

// Peer is the browser side of a session. Over its websocket it plays speech
// and records the microphone, so it serves as the session's audio output
// and microphone. The most recent connection wins.
type Peer struct {
	micTimeout time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	lastSeen time.Time
	answer   chan clientMessage
	stream   *peerStream
	writeMu  sync.Mutex
}

func NewPeer(micTimeout time.Duration) *Peer {
	if micTimeout <= 0 {
		micTimeout = 30 * time.Second
	}
	return &Peer{micTimeout: micTimeout}
}

// attach makes conn the peer's connection, closing the previous one.
func (p *Peer) attach(conn *websocket.Conn) {
	p.mu.Lock()
	old := p.conn
	p.conn = conn
	p.lastSeen = time.Now()
	p.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
}

// detach forgets conn if it is still current and ends anything that
// depended on it.
func (p *Peer) detach(conn *websocket.Conn) {
	p.mu.Lock()
	if p.conn != conn {
		p.mu.Unlock()
		return
	}
	p.conn = nil
	p.lastSeen = time.Now()
	stream := p.stream
	p.stream = nil
	answer := p.answer
	p.answer = nil
	p.mu.Unlock()

	if answer != nil {
		answer <- clientMessage{Type: msgMicDenied}
	}
	if stream != nil {
		stream.end()
	}
}

// lastActivity is now while a browser is connected, otherwise when the last
// one left. It is zero if no browser ever connected.
func (p *Peer) lastActivity() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return time.Now()
	}
	return p.lastSeen
}

// disconnect closes the current connection, if any.
func (p *Peer) disconnect() {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (p *Peer) send(ev event) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return errNoClient
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(ev)
}

// handle dispatches one message read from the browser.
func (p *Peer) handle(msgType int, data []byte, msg clientMessage) {
	if msgType == websocket.BinaryMessage {
		p.mu.Lock()
		stream := p.stream
		p.mu.Unlock()
		if stream != nil {
			stream.push(data)
		}
		return
	}

	switch msg.Type {
	case msgMicGranted, msgMicDenied:
		p.mu.Lock()
		answer := p.answer
		p.answer = nil
		p.mu.Unlock()
		if answer != nil {
			answer <- msg
		}
	}
}

// OutputFactory returns the peer as an audio output.
func (p *Peer) OutputFactory() audio.OutputFactory {
	return func(context.Context) (audio.Output, error) {
		return peerOutput{p}, nil
	}
}

type peerOutput struct{ p *Peer }

func (o peerOutput) Resume(context.Context) error {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	if o.p.conn == nil {
		return errNoClient
	}
	return nil
}

func (o peerOutput) Start(buf *audio.Buffer) (audio.Voice, error) {
	ev := event{
		Type:       eventAudio,
		SampleRate: buf.SampleRate,
		PCM:        base64.StdEncoding.EncodeToString(audio.EncodePCM16(buf)),
	}
	if err := o.p.send(ev); err != nil {
		return nil, fmt.Errorf("sending audio: %w", err)
	}
	return audio.NewTimedVoice(buf.Duration(), func() {
		_ = o.p.send(event{Type: eventAudioStop})
	}), nil
}

func (o peerOutput) Close() error { return nil }

// Open asks the browser for microphone access and waits for its answer.
func (p *Peer) Open(ctx context.Context) (audio.InputStream, error) {
	answer := make(chan clientMessage, 1)

	p.mu.Lock()
	if p.conn == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", domain.ErrPermission, errNoClient)
	}
	p.answer = answer
	p.mu.Unlock()

	if err := p.send(event{Type: eventMicRequest}); err != nil {
		p.clearAnswer(answer)
		return nil, fmt.Errorf("%w: %v", domain.ErrPermission, err)
	}

	timer := time.NewTimer(p.micTimeout)
	defer timer.Stop()

	var msg clientMessage
	select {
	case msg = <-answer:
	case <-timer.C:
		p.clearAnswer(answer)
		return nil, fmt.Errorf("%w: no answer from browser", domain.ErrPermission)
	case <-ctx.Done():
		p.clearAnswer(answer)
		return nil, fmt.Errorf("%w: %v", domain.ErrPermission, ctx.Err())
	}
	if msg.Type != msgMicGranted {
		return nil, fmt.Errorf("%w: denied by learner", domain.ErrPermission)
	}

	stream := &peerStream{
		peer:   p,
		mime:   msg.MimeType,
		chunks: make(chan []byte, micChunkBuffer),
	}
	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()
	return stream, nil
}

func (p *Peer) clearAnswer(answer chan clientMessage) {
	p.mu.Lock()
	if p.answer == answer {
		p.answer = nil
	}
	p.mu.Unlock()
}

// peerStream carries recorded chunks from the browser.
type peerStream struct {
	peer *Peer
	mime string

	mu     sync.Mutex
	chunks chan []byte
	ended  bool
}

func (s *peerStream) Chunks() <-chan []byte { return s.chunks }
func (s *peerStream) MimeType() string      { return s.mime }

func (s *peerStream) push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	select {
	case s.chunks <- append([]byte(nil), data...):
	default:
		observability.Logger().Warn("dropping microphone chunk, buffer full", "bytes", len(data))
	}
}

// end closes the chunk channel once.
func (s *peerStream) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.ended = true
		close(s.chunks)
	}
}

// Close tells the browser to stop recording and ends the stream.
func (s *peerStream) Close() error {
	p := s.peer
	p.mu.Lock()
	if p.stream == s {
		p.stream = nil
	}
	p.mu.Unlock()

	s.end()
	if err := p.send(event{Type: eventMicStop}); err != nil && !errors.Is(err, errNoClient) {
		return err
	}
	return nil
}
