package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

// SpeechSampleRate is the rate of synthesized speech.
const SpeechSampleRate = 24000

// Buffer is a playable mono buffer with samples normalized to [-1, 1].
type Buffer struct {
	SampleRate int
	Samples    []float32
}

func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Duration is the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCMBase64 decodes base64 PCM16 LE mono audio into a Buffer.
// Failures wrap domain.ErrDecode; callers treat them as "no audio".
func DecodePCMBase64(data string, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", domain.ErrDecode, sampleRate)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", domain.ErrDecode, err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: pcm16 data length must be even (got %d bytes)", domain.ErrDecode, len(raw))
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / 32768.0
	}

	return &Buffer{SampleRate: sampleRate, Samples: samples}, nil
}

// EncodePCM16 renders the buffer back to little-endian 16-bit PCM.
func EncodePCM16(b *Buffer) []byte {
	out := make([]byte, 2*len(b.Samples))
	for i, s := range b.Samples {
		v := s * 32768.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out
}

// Blob is a finished recording or an uploaded file.
type Blob struct {
	Data     []byte
	MimeType string
}

func (b *Blob) Media() domain.Media {
	return domain.Media{MimeType: b.MimeType, Data: b.Data}
}

// DataURL renders the blob as a data: URL suitable for display.
func (b *Blob) DataURL() string {
	return "data:" + b.MimeType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// EncodeBlobToBase64 reads r fully and returns its base64 text.
// Read failures wrap domain.ErrEncode.
func EncodeBlobToBase64(r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("%w: reading blob: %v", domain.ErrEncode, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
