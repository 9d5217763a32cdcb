package capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateRecording  State = "recording"
)

const DefaultMimeType = "audio/webm"

// Controller records one voice message at a time from a microphone.
type Controller struct {
	mic audio.Microphone

	mu        sync.Mutex
	state     State
	gen       uint64
	stream    audio.InputStream
	collected chan [][]byte
}

func NewController(mic audio.Microphone) *Controller {
	return &Controller{mic: mic, state: StateIdle}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires the microphone and begins buffering chunks. It is a no-op
// unless the controller is idle. A denied or missing device returns an
// error wrapping domain.ErrPermission.
func (c *Controller) Start(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx).With("component", "capture")

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	c.state = StateRequesting
	c.mu.Unlock()

	stream, err := c.mic.Open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		// Stopped while the device was being requested.
		if err == nil {
			_ = stream.Close()
		}
		return nil
	}
	if err != nil {
		c.state = StateIdle
		observability.Recordings.WithLabelValues("denied").Inc()
		log.Warn("microphone unavailable", "error", err)
		return fmt.Errorf("opening microphone: %w: %w", domain.ErrPermission, err)
	}

	collected := make(chan [][]byte, 1)
	go collect(stream.Chunks(), collected)

	c.stream = stream
	c.collected = collected
	c.state = StateRecording
	log.Info("recording started", "mime_type", stream.MimeType())
	return nil
}

// Stop ends the recording and returns everything captured as one blob.
// It returns a nil blob when nothing was recording.
func (c *Controller) Stop() (*audio.Blob, error) {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return nil, nil
	case StateRequesting:
		c.gen++
		c.state = StateIdle
		c.mu.Unlock()
		return nil, nil
	}

	stream, collected := c.stream, c.collected
	c.gen++
	c.stream = nil
	c.collected = nil
	c.state = StateIdle
	c.mu.Unlock()

	closeErr := stream.Close()
	chunks := <-collected

	mime := stream.MimeType()
	if mime == "" {
		mime = DefaultMimeType
	}
	observability.Recordings.WithLabelValues("finished").Inc()

	blob := &audio.Blob{Data: bytes.Join(chunks, nil), MimeType: mime}
	if closeErr != nil {
		return blob, fmt.Errorf("releasing microphone: %w", closeErr)
	}
	return blob, nil
}

func collect(in <-chan []byte, out chan<- [][]byte) {
	var chunks [][]byte
	for chunk := range in {
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
	}
	out <- chunks
}
