package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ent0n29/timedial/internal/chat"
	"github.com/ent0n29/timedial/internal/config"
	"github.com/ent0n29/timedial/internal/httpapi"
	"github.com/ent0n29/timedial/internal/observability"
	"github.com/ent0n29/timedial/internal/speech"
	"github.com/ent0n29/timedial/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	for _, diag := range cfg.MissingCredentials() {
		log.Print(diag)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	transcripts, err := transcript.NewStore(ctx, cfg.DatabaseURL, cfg.TranscriptRetention)
	if err != nil {
		log.Fatalf("transcript store init failed: %v", err)
	}
	defer transcripts.Close()

	// One outbound client with a bounded timeout, shared by both providers.
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	var chatProvider chat.Provider
	if cfg.Capabilities().Chat {
		chatProvider = chat.NewGeminiProvider(chat.GeminiConfig{
			APIKey:  cfg.GoogleAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
		}, httpClient)
		log.Printf("chat provider: gemini (%s)", cfg.GeminiModel)
	}

	var speechProvider speech.Provider
	if cfg.Capabilities().Speech {
		speechProvider = speech.NewElevenLabsProvider(speech.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			BaseURL: cfg.ElevenLabsBaseURL,
		}, httpClient)
		log.Printf("speech provider: elevenlabs (%s)", cfg.ElevenLabsTTSModel)
	}

	chatGW := chat.NewGateway(chatProvider, metrics)
	speechGW := speech.NewGateway(
		speechProvider,
		speech.Settings{
			ModelID:         cfg.ElevenLabsTTSModel,
			Stability:       cfg.VoiceStability,
			SimilarityBoost: cfg.VoiceSimilarityBoost,
		},
		cfg.DefaultVoiceID,
		cfg.FallbackVoiceName,
		metrics,
	)

	api := httpapi.New(cfg, chatGW, speechGW, transcripts, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
