package device_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/adapters/device"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/audio"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
)

func TestWAVOutputWritesFile(t *testing.T) {
	dir := t.TempDir()
	out, err := device.NewWAVOutputFactory(dir, "s1")(context.Background())
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if err := out.Resume(context.Background()); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	buf := &audio.Buffer{SampleRate: audio.SpeechSampleRate, Samples: make([]float32, 240)}
	voice, err := out.Start(buf)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-voice.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("voice of 10ms never finished")
	}

	files, _ := filepath.Glob(filepath.Join(dir, "s1-*.wav"))
	if len(files) != 1 {
		t.Fatalf("expected 1 wav file, got %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	if len(data) != 44+480 || string(data[:4]) != "RIFF" {
		t.Fatalf("unexpected wav file of %d bytes", len(data))
	}

	_ = out.Close()
	if err := out.Resume(context.Background()); err == nil {
		t.Fatalf("expected closed output to refuse resume")
	}
}

func TestFileMicrophoneStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "question.ogg")
	want := make([]byte, 40*1024)
	for i := range want {
		want[i] = byte(i)
	}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	stream, err := device.NewFileMicrophone(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var got []byte
	for len(got) < len(want) {
		select {
		case chunk := <-stream.Chunks():
			got = append(got, chunk...)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d bytes", len(got))
		}
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for range stream.Chunks() {
	}

	if string(got) != string(want) {
		t.Fatalf("streamed bytes differ from file")
	}
}

func TestFileMicrophoneMissingFile(t *testing.T) {
	tests := []string{"", filepath.Join(t.TempDir(), "missing.webm")}
	for _, path := range tests {
		_, err := device.NewFileMicrophone(path).Open(context.Background())
		if !errors.Is(err, domain.ErrPermission) {
			t.Fatalf("path %q: expected ErrPermission, got %v", path, err)
		}
	}
}
