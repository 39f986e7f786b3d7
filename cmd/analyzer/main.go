package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jacktan1/Options-Project/internal/analyzer"
	"github.com/jacktan1/Options-Project/internal/config"
	"github.com/jacktan1/Options-Project/internal/csvstore"
	"github.com/jacktan1/Options-Project/internal/marketdata"
	"github.com/jacktan1/Options-Project/internal/mock"
)

func main() {
	var configPath, dateFlag string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&dateFlag, "date", "", "Analysis data date (YYYY-MM-DD, default today)")
	flag.Parse()

	// A .env file is optional; config expansion picks the vars up.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Environment.LogLevel)

	dataDate, err := resolveDataDate(dateFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid -date")
	}

	store, err := csvstore.New(cfg.Storage.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	var provider marketdata.Provider
	if cfg.IsOffline() {
		logger.Info().Msg("offline mode, using synthetic market data")
		provider = mock.NewProvider(cfg.Analysis.Symbol, dataDate)
	} else {
		client := marketdata.NewClient(cfg.Market.APIKey, cfg.Market.APIEndpoint)
		provider = marketdata.NewCircuitBreakerProvider(client)
	}

	a, err := analyzer.New(cfg, provider, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build analyzer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn().Msg("shutdown signal received, cancelling run")
		cancel()
	}()

	result, err := a.Run(ctx, dataDate)
	if err != nil {
		logger.Fatal().Err(err).Msg("analysis failed")
	}

	path, err := store.SaveCandidates(result.Symbol, result.DataDate, result.RunID, result.Candidates)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to write results")
	}

	logger.Info().
		Str("results", path).
		Int("candidates", len(result.Candidates)).
		Int("skipped_expiries", len(result.Skipped)).
		Msg("run complete")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

// resolveDataDate parses the -date flag, defaulting to the most recent
// business day so weekend runs analyze Friday's session.
func resolveDataDate(flagValue string) (time.Time, error) {
	if flagValue != "" {
		d, err := time.Parse("2006-01-02", flagValue)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date %q: %w", flagValue, err)
		}
		return d, nil
	}
	now := time.Now().UTC().Truncate(24 * time.Hour)
	for now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		now = now.AddDate(0, 0, -1)
	}
	return now, nil
}
