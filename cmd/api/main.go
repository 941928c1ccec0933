package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ewilliams-labs/vibelist/backend/internal/adapters/ollama"
	"github.com/ewilliams-labs/vibelist/backend/internal/adapters/rest"
	"github.com/ewilliams-labs/vibelist/backend/internal/adapters/spotify"
	"github.com/ewilliams-labs/vibelist/backend/internal/config"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/services"
	"github.com/ewilliams-labs/vibelist/backend/internal/logging"
	"github.com/ewilliams-labs/vibelist/backend/internal/metrics"
	"github.com/ewilliams-labs/vibelist/backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	// Driven adapters.
	catalog, err := spotify.NewClient(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		BaseURL:      cfg.Spotify.BaseURL,
		TokenURL:     cfg.Spotify.TokenURL,
		Timeout:      cfg.Spotify.Timeout,
		MaxRetries:   cfg.Spotify.MaxRetries,
		BaseBackoff:  cfg.Spotify.BaseBackoff,
	}, log.With().Str("component", "spotify").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("spotify client init failed")
	}

	extractor := ollama.NewClient(cfg.Ollama.Host, cfg.Ollama.Model,
		log.With().Str("component", "ollama").Logger())

	var enricher ports.FeatureEnricher
	if cfg.Pipeline.PreviewEnabled {
		enricher = worker.NewAnalyzer(cfg.Pipeline.PreviewWorkers,
			log.With().Str("component", "preview").Logger())
	}

	// Observability.
	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	// Core services.
	// #nosec G404 -- variety jitter, not security-sensitive
	jit := services.NewJitterer(rand.New(rand.NewSource(time.Now().UnixNano())))
	pipeline := services.NewPipeline(catalog, log.With().Str("component", "pipeline").Logger(), services.PipelineOptions{
		Market:   cfg.Spotify.Market,
		Enricher: enricher,
		Jitterer: jit,
		Metrics:  met,
	})
	heroes := services.NewHeroResolver(catalog, cfg.Spotify.Market,
		log.With().Str("component", "heroes").Logger(), met)

	// Driving adapter.
	handler := rest.NewHandler(extractor, pipeline, heroes, pipeline.Vocabulary(), catalog,
		log.With().Str("component", "rest").Logger())
	router := handler.Router(cfg.Server.CORSOrigins,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("vibelist api listening")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}
}
