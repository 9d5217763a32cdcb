package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

const chunkSize = 16 * 1024

// FileMicrophone records by streaming a prepared audio file in chunks.
type FileMicrophone struct {
	path string
}

func NewFileMicrophone(path string) *FileMicrophone {
	return &FileMicrophone{path: path}
}

// Open fails with domain.ErrPermission when no file is configured or it
// cannot be opened.
func (m *FileMicrophone) Open(ctx context.Context) (audio.InputStream, error) {
	if m.path == "" {
		return nil, fmt.Errorf("no microphone file configured: %w", domain.ErrPermission)
	}
	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPermission, err)
	}

	mt := mime.TypeByExtension(filepath.Ext(m.path))
	if mt == "" {
		mt = "audio/webm"
	}

	s := &fileStream{
		file:   f,
		mime:   mt,
		chunks: make(chan []byte),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

type fileStream struct {
	file   *os.File
	mime   string
	chunks chan []byte
	done   chan struct{}
	once   sync.Once
}

func (s *fileStream) Chunks() <-chan []byte { return s.chunks }
func (s *fileStream) MimeType() string      { return s.mime }

func (s *fileStream) pump() {
	defer close(s.chunks)

	for {
		buf := make([]byte, chunkSize)
		n, err := s.file.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				return
			}
			// Hold the stream open until stopped, like a live device.
			<-s.done
			return
		}
	}
}

func (s *fileStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.file.Close()
	})
	return err
}
