package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/audio"
	"github.com/snappy-loop/muse/internal/auth"
	"github.com/snappy-loop/muse/internal/config"
	"github.com/snappy-loop/muse/internal/credential"
	"github.com/snappy-loop/muse/internal/handlers"
	"github.com/snappy-loop/muse/internal/kafka"
	"github.com/snappy-loop/muse/internal/llm"
	"github.com/snappy-loop/muse/internal/orchestrator"
	"github.com/snappy-loop/muse/internal/poller"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting Muse API")

	cfg := config.Load()

	creds := credential.NewStore(cfg.GeminiAPIKey)
	llmClient := llm.NewClient(cfg)
	playback := audio.NewPlaybackController(nil)

	videoPoller := poller.New(llmClient, creds, poller.WithInterval(cfg.VideoPollInterval))

	speech := orchestrator.NewSpeech(llmClient, creds, playback)
	images := orchestrator.NewImages(llmClient, creds, cfg.ImageFanOut)
	video := orchestrator.NewVideo(videoPoller, creds)

	var events *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		events = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicEvents)
		defer events.Close()
	}

	h := handlers.NewHandler(speech, images, video, creds, events, cfg.MaxFrameBytes)
	authService := auth.NewService(cfg.APIKeyHash)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(authService.Middleware)
	api.HandleFunc("/speech", h.CreateSpeech).Methods("POST")
	api.HandleFunc("/images", h.CreateImages).Methods("POST")
	api.HandleFunc("/video", h.CreateVideo).Methods("POST")
	api.HandleFunc("/video/ws", h.VideoWS).Methods("GET")
	api.HandleFunc("/credential", h.SelectCredential).Methods("POST")

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // video generations poll for a while
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	playback.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Muse API exited")
}
