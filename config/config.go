package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	Symbols      []string
	PollInterval time.Duration
	LogLevel     string

	// Market data source
	ExchangeBaseURL string
	RequestTimeout  time.Duration
	RequestsPerSec  int

	// Optional collaborators; each stays disabled when its address is empty
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheTTL       time.Duration
	DatabaseURL    string
	TelegramToken  string
	TelegramChatID int64

	Detection DetectionConfig
}

// Weights are the per-category contributions to the confidence score
type Weights struct {
	OIChange      float64
	VolumeSpike   float64
	PriceMovement float64
	Divergence    float64
}

// Validate checks the constructor invariant: every weight is non-negative and
// the weights sum to at most 1.0, so the summed score never needs silent clamping.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"oi_change":      w.OIChange,
		"volume_spike":   w.VolumeSpike,
		"price_movement": w.PriceMovement,
		"divergence":     w.Divergence,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}
	sum := w.OIChange + w.VolumeSpike + w.PriceMovement + w.Divergence
	if sum > 1.0 {
		return fmt.Errorf("weights sum to %v, must not exceed 1.0", sum)
	}
	return nil
}

// DetectionConfig is the manipulation-detection subsection of the configuration.
// Every key falls back to its documented default when absent.
type DetectionConfig struct {
	Enabled  bool
	Cooldown time.Duration

	OIChange15mThreshold float64
	OIChange1hThreshold  float64
	OIAbsoluteThreshold  float64

	VolumeSpikeThreshold float64

	PriceChange15mThreshold float64
	PriceChange5mThreshold  float64

	DivergenceOIThreshold    float64
	DivergencePriceThreshold float64

	Weights Weights

	AlertConfidenceThreshold    float64
	HighConfidenceThreshold     float64
	CriticalConfidenceThreshold float64

	MinDataPoints int

	// AdaptiveThresholds widens the price thresholds with realized volatility
	AdaptiveThresholds bool
}

// DefaultDetection returns the detection config with every documented default
func DefaultDetection() DetectionConfig {
	return DetectionConfig{
		Enabled:                     true,
		Cooldown:                    900 * time.Second,
		OIChange15mThreshold:        0.02,
		OIChange1hThreshold:         0.05,
		OIAbsoluteThreshold:         1_000_000,
		VolumeSpikeThreshold:        2.0,
		PriceChange15mThreshold:     0.01,
		PriceChange5mThreshold:      0.005,
		DivergenceOIThreshold:       0.01,
		DivergencePriceThreshold:    0.005,
		Weights:                     Weights{OIChange: 0.3, VolumeSpike: 0.25, PriceMovement: 0.25, Divergence: 0.2},
		AlertConfidenceThreshold:    0.7,
		HighConfidenceThreshold:     0.85,
		CriticalConfidenceThreshold: 0.95,
		MinDataPoints:               15,
		AdaptiveThresholds:          true,
	}
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		Symbols:         splitList(getEnvWithDefault("SYMBOLS", "BTCUSDT,ETHUSDT")),
		PollInterval:    time.Duration(getEnvIntWithDefault("POLL_INTERVAL", 60)) * time.Second,
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
		ExchangeBaseURL: getEnvWithDefault("EXCHANGE_BASE_URL", "https://api.bybit.com"),
		RequestTimeout:  time.Duration(getEnvIntWithDefault("REQUEST_TIMEOUT", 30)) * time.Second,
		RequestsPerSec:  getEnvIntWithDefault("REQUESTS_PER_SEC", 5),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvIntWithDefault("REDIS_DB", 0),
		CacheTTL:        time.Duration(getEnvIntWithDefault("CACHE_TTL", 30)) * time.Second,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:  getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),
	}

	det := DefaultDetection()
	det.Enabled = getEnvBoolWithDefault("DETECTION_ENABLED", det.Enabled)
	det.Cooldown = time.Duration(getEnvIntWithDefault("DETECTION_COOLDOWN", 900)) * time.Second
	det.OIChange15mThreshold = getEnvFloatWithDefault("OI_CHANGE_15M_THRESHOLD", det.OIChange15mThreshold)
	det.OIChange1hThreshold = getEnvFloatWithDefault("OI_CHANGE_1H_THRESHOLD", det.OIChange1hThreshold)
	det.OIAbsoluteThreshold = getEnvFloatWithDefault("OI_ABSOLUTE_THRESHOLD", det.OIAbsoluteThreshold)
	det.VolumeSpikeThreshold = getEnvFloatWithDefault("VOLUME_SPIKE_THRESHOLD", det.VolumeSpikeThreshold)
	det.PriceChange15mThreshold = getEnvFloatWithDefault("PRICE_CHANGE_15M_THRESHOLD", det.PriceChange15mThreshold)
	det.PriceChange5mThreshold = getEnvFloatWithDefault("PRICE_CHANGE_5M_THRESHOLD", det.PriceChange5mThreshold)
	det.DivergenceOIThreshold = getEnvFloatWithDefault("DIVERGENCE_OI_THRESHOLD", det.DivergenceOIThreshold)
	det.DivergencePriceThreshold = getEnvFloatWithDefault("DIVERGENCE_PRICE_THRESHOLD", det.DivergencePriceThreshold)
	det.Weights.OIChange = getEnvFloatWithDefault("WEIGHT_OI_CHANGE", det.Weights.OIChange)
	det.Weights.VolumeSpike = getEnvFloatWithDefault("WEIGHT_VOLUME_SPIKE", det.Weights.VolumeSpike)
	det.Weights.PriceMovement = getEnvFloatWithDefault("WEIGHT_PRICE_MOVEMENT", det.Weights.PriceMovement)
	det.Weights.Divergence = getEnvFloatWithDefault("WEIGHT_DIVERGENCE", det.Weights.Divergence)
	det.AlertConfidenceThreshold = getEnvFloatWithDefault("ALERT_CONFIDENCE_THRESHOLD", det.AlertConfidenceThreshold)
	det.HighConfidenceThreshold = getEnvFloatWithDefault("HIGH_CONFIDENCE_THRESHOLD", det.HighConfidenceThreshold)
	det.CriticalConfidenceThreshold = getEnvFloatWithDefault("CRITICAL_CONFIDENCE_THRESHOLD", det.CriticalConfidenceThreshold)
	det.MinDataPoints = getEnvIntWithDefault("MIN_DATA_POINTS", det.MinDataPoints)
	det.AdaptiveThresholds = getEnvBoolWithDefault("ADAPTIVE_THRESHOLDS", det.AdaptiveThresholds)

	// Surface a misconfigured weight set at load time instead of producing
	// silently-clamped confidence scores later
	if err := det.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("detection weights: %w", err)
	}

	cfg.Detection = det
	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
