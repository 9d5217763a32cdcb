// Package device provides file-backed audio devices for local runs without a
// browser: speech is written as WAV files and the microphone reads a file.
package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
)

// WAVOutput "plays" a buffer by writing it to dir as a WAV file. The returned
// voice lasts as long as the audio would.
type WAVOutput struct {
	dir    string
	prefix string
	now    func() time.Time

	mu     sync.Mutex
	seq    int
	closed bool
}

// NewWAVOutputFactory returns an audio.OutputFactory writing into dir. Files
// are named after prefix, usually the session id.
func NewWAVOutputFactory(dir, prefix string) audio.OutputFactory {
	return func(context.Context) (audio.Output, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audio dir: %w", err)
		}
		return &WAVOutput{dir: dir, prefix: prefix, now: time.Now}, nil
	}
}

func (o *WAVOutput) Resume(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("audio output closed")
	}
	return nil
}

func (o *WAVOutput) Start(buf *audio.Buffer) (audio.Voice, error) {
	data, err := audio.EncodeWAV(buf)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, fmt.Errorf("audio output closed")
	}
	o.seq++
	name := fmt.Sprintf("%s-%s-%03d.wav", o.prefix, o.now().Format("20060102T150405"), o.seq)
	o.mu.Unlock()

	if err := os.WriteFile(filepath.Join(o.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	return audio.NewTimedVoice(buf.Duration(), nil), nil
}

func (o *WAVOutput) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}
