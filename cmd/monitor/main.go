package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-manipulation-monitor/config"
	"crypto-manipulation-monitor/internal/cache"
	"crypto-manipulation-monitor/internal/detector"
	"crypto-manipulation-monitor/internal/fetcher"
	"crypto-manipulation-monitor/internal/monitor"
	"crypto-manipulation-monitor/internal/notify"
	"crypto-manipulation-monitor/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration failed")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetcher.NewClient(fetcher.ClientOptions{
		BaseURL:        cfg.ExchangeBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	det := detector.New(cfg.Detection, log.Logger)

	// The caching layer is explicit composition: when Redis is configured the
	// monitor talks to the wrapper, otherwise directly to the detector.
	var analyzer monitor.Analyzer = det
	if cfg.RedisAddr != "" {
		store := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := store.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis unreachable")
		}
		defer store.Close()
		analyzer = cache.NewCachingAnalyzer(det, store, cfg.CacheTTL, log.Logger)
		log.Info().Str("addr", cfg.RedisAddr).Msg("analysis result cache enabled")
	}

	var sinks []monitor.Sink
	if cfg.DatabaseURL != "" {
		archive, err := storage.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("opening alert archive failed")
		}
		defer archive.Close()
		sinks = append(sinks, archive)
		log.Info().Msg("alert archive enabled")
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("creating telegram notifier failed")
		}
		sinks = append(sinks, tg)
		log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("telegram alerts enabled")
	}

	log.Info().
		Strs("symbols", cfg.Symbols).
		Dur("interval", cfg.PollInterval).
		Bool("detection_enabled", cfg.Detection.Enabled).
		Msg("starting manipulation monitor")

	mon := monitor.New(client, analyzer, sinks, cfg.Symbols, cfg.PollInterval, log.Logger)
	if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("monitor stopped unexpectedly")
	}

	stats := det.GetStats()
	log.Info().
		Int("analyses", stats.TotalAnalyses).
		Int("alerts", stats.AlertsGenerated).
		Float64("avg_confidence", stats.AverageConfidence).
		Msg("shutting down")
}
