package audio

import (
	"context"
	"sync"
	"time"
)

// Output is the audio output context of a session. It is acquired once,
// resumed before each playback and closed when the session ends.
type Output interface {
	Resume(ctx context.Context) error
	// Start begins playing buf and returns immediately.
	Start(buf *Buffer) (Voice, error)
	Close() error
}

// Voice is one playback in progress.
type Voice interface {
	// Done is closed when playback ends, naturally or through Stop.
	Done() <-chan struct{}
	Stop()
}

// OutputFactory acquires an output context. It is called lazily, on first use.
type OutputFactory func(ctx context.Context) (Output, error)

// Microphone hands out capture streams. Open fails with an error wrapping
// domain.ErrPermission when access is denied.
type Microphone interface {
	Open(ctx context.Context) (InputStream, error)
}

// InputStream delivers recorded chunks until closed. Close releases the
// device and must eventually close the Chunks channel.
type InputStream interface {
	Chunks() <-chan []byte
	MimeType() string
	Close() error
}

// timedVoice ends after a fixed duration unless stopped first.
type timedVoice struct {
	done   chan struct{}
	once   sync.Once
	timer  *time.Timer
	onStop func()
}

// NewTimedVoice returns a Voice that completes after d. onStop, if set, runs
// once when the voice is stopped before completing.
func NewTimedVoice(d time.Duration, onStop func()) Voice {
	v := &timedVoice{done: make(chan struct{}), onStop: onStop}
	v.timer = time.AfterFunc(d, func() {
		v.once.Do(func() { close(v.done) })
	})
	return v
}

func (v *timedVoice) Done() <-chan struct{} {
	return v.done
}

func (v *timedVoice) Stop() {
	v.timer.Stop()
	v.once.Do(func() {
		close(v.done)
		if v.onStop != nil {
			v.onStop()
		}
	})
}
