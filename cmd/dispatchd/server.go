package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caba911/dispatch/internal/config"
	"github.com/caba911/dispatch/internal/httpapi"
	"github.com/caba911/dispatch/internal/ingress"
	"github.com/caba911/dispatch/internal/logging"
	"github.com/caba911/dispatch/internal/telemetry"
	"github.com/caba911/dispatch/internal/tracking"
	"github.com/caba911/dispatch/internal/wsfeed"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Submit one incident through the ingress API and print its ID",
	Long:  `ingest resolves the given address or coordinates, runs triage classification, and persists a new pending incident -- the CLI front door for spec.md's abstract ingress contract.`,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().String("description", "", "free-form incident description (required)")
	ingestCmd.Flags().String("address", "", "street address to geocode")
	ingestCmd.Flags().Float64("lat", 0, "latitude, used with --lon instead of --address")
	ingestCmd.Flags().Float64("lon", 0, "longitude, used with --lat instead of --address")
	_ = ingestCmd.MarkFlagRequired("description")
}

func runIngest(cmd *cobra.Command, args []string) error {
	logging.Init(logging.Config{Format: "console", Level: "info", Component: "dispatchd-ingest"})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	comps, err := build(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer comps.Close()

	description, _ := cmd.Flags().GetString("description")
	address, _ := cmd.Flags().GetString("address")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")

	req := ingress.Request{Description: description, Address: address}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		req.Lat, req.Lon = &lat, &lon
	}

	inc, err := ingress.Submit(cmd.Context(), comps.store, comps.geocoder, comps.triage, nil, req, time.Now())
	if err != nil {
		return fmt.Errorf("submit incident: %w", err)
	}

	fmt.Printf("incident created: id=%s code=%s priority=%d\n", inc.ID, inc.Code, inc.Priority)
	return nil
}

// runServer starts the full dispatchd process: config, every core
// component, the metrics and tracking-feed servers, and the five-endpoint
// HTTP API, running until SIGINT/SIGTERM, mirroring cmd/pulse/main.go's
// runServer shutdown ordering.
func runServer() {
	logging.Init(logging.Config{Format: envOr("LOG_FORMAT", "console"), Level: envOr("LOG_LEVEL", "info"), Component: "dispatchd"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comps, err := build(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap dispatchd")
	}
	defer comps.Close()

	go telemetry.ServeMetrics(ctx, cfg.MetricsAddr)
	go comps.feedPoller.Run(ctx)
	go comps.hub.Run()

	poller := wsfeed.NewPoller(comps.hub, func(now time.Time) []tracking.Snapshot {
		return comps.service.LiveSnapshots(ctx, now)
	}, 2*time.Second)
	go poller.Run(ctx)

	mux := httpapi.NewMux(comps.service)
	mux.HandleFunc("GET /tracking/stream", comps.hub.HandleWebSocket)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("dispatchd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("shutting down dispatchd")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	cancel()

	log.Info().Msg("dispatchd stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
