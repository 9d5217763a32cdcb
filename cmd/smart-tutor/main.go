package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/adapters/device"
	httpadapter "github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/adapters/http"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/adapters/llm"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/tutor"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/config"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/domain"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	observability.SetLevel(cfg.LogLevel)
	logger := observability.WithFields("service", "smart-tutor")

	// Choose between mock and Gemini by config (useful for dev)
	var llmClient domain.LLMClient
	if cfg.UseMockLLM {
		logger.Info("using mock LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		logger.Info("using Gemini LLM client", "mode", cfg.Mode, "text_model", cfg.TextModel)
		llmClient, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			UseVertex:       cfg.Mode == config.ModeVertex,
			APIKey:          cfg.APIKey,
			Project:         cfg.GCPProjectID,
			Location:        cfg.GCPLocation,
			TextModel:       cfg.TextModel,
			ImageModel:      cfg.ImageModel,
			SpeechModel:     cfg.SpeechModel,
			Voice:           cfg.Voice,
			BaseURL:         cfg.GeminiBaseURL,
			Timeout:         cfg.RequestTimeout,
			SpeechCharLimit: cfg.SpeechCharLimit,
		})
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	}
	gateway := llm.NewGateway(llmClient)

	opts := tutor.Options{QuizSize: cfg.QuizSize}
	newSession := func(id domain.SessionID, peer *httpadapter.Peer) *tutor.Service {
		if cfg.AudioDevice == config.AudioFile {
			out := device.NewWAVOutputFactory(filepath.Join(cfg.AudioDir, string(id)), "speech")
			return tutor.NewService(id, gateway, out, device.NewFileMicrophone(cfg.MicrophoneFile), opts)
		}
		return tutor.NewService(id, gateway, peer.OutputFactory(), peer, opts)
	}

	handler, srv := httpadapter.NewServer(newSession, httpadapter.Options{
		AllowedOrigins:     cfg.AllowedOrigins,
		MicTimeout:         cfg.MicTimeout,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("smart tutor listening", "port", cfg.Port, "audio_device", cfg.AudioDevice)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	srv.Shutdown()
}
