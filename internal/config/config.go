package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the TimeDial backend.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	ProviderTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	GoogleAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ElevenLabsAPIKey     string
	ElevenLabsBaseURL    string
	ElevenLabsTTSModel   string
	DefaultVoiceID       string
	FallbackVoiceName    string
	VoiceStability       float64
	VoiceSimilarityBoost float64

	DatabaseURL         string
	TranscriptRetention int
}

// Capabilities reports which provider integrations hold a usable credential.
type Capabilities struct {
	Chat   bool `json:"chat"`
	Speech bool `json:"speech"`
}

func (c Config) Capabilities() Capabilities {
	return Capabilities{
		Chat:   strings.TrimSpace(c.GoogleAPIKey) != "",
		Speech: strings.TrimSpace(c.ElevenLabsAPIKey) != "",
	}
}

// MissingCredentials lists one boot diagnostic per absent provider key.
func (c Config) MissingCredentials() []string {
	var out []string
	if strings.TrimSpace(c.GoogleAPIKey) == "" {
		out = append(out, "chat capability disabled: GOOGLE_API_KEY (or GOOGLE_PROJECT_ID) is not set")
	}
	if strings.TrimSpace(c.ElevenLabsAPIKey) == "" {
		out = append(out, "speech capability disabled: ELEVENLABS_API_KEY is not set")
	}
	return out
}

// Load reads environment variables and applies safe defaults. A missing
// provider credential degrades the matching capability; it never fails the
// load, so the service stays up for health checks and the other capability.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "timedial"),
		GoogleAPIKey:      firstNonEmpty(trimmedEnv("GOOGLE_API_KEY"), trimmedEnv("GOOGLE_PROJECT_ID")),
		GeminiModel:       envOrDefault("GEMINI_MODEL_ID", "gemini-2.0-flash-exp"),
		GeminiBaseURL:     envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		ElevenLabsAPIKey:  trimmedEnv("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL: envOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		// Frozen synthesis profile shared by every character voice.
		ElevenLabsTTSModel:   envOrDefault("ELEVENLABS_TTS_MODEL_ID", "eleven_multilingual_v2"),
		DefaultVoiceID:       envOrDefault("ELEVENLABS_DEFAULT_VOICE_ID", "ozS9N1i8sNqA3YvH014P"),
		FallbackVoiceName:    envOrDefault("ELEVENLABS_FALLBACK_VOICE_NAME", "Rachel"),
		VoiceStability:       0.5,
		VoiceSimilarityBoost: 0.75,
		DatabaseURL:          trimmedEnv("DATABASE_URL"),
		TranscriptRetention:  200,
		ShutdownTimeout:      15 * time.Second,
		ProviderTimeout:      30 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ProviderTimeout, err = durationFromEnv("APP_PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.VoiceStability, err = floatFromEnv("ELEVENLABS_VOICE_STABILITY", cfg.VoiceStability)
	if err != nil {
		return Config{}, err
	}
	cfg.VoiceSimilarityBoost, err = floatFromEnv("ELEVENLABS_VOICE_SIMILARITY_BOOST", cfg.VoiceSimilarityBoost)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscriptRetention, err = intFromEnv("APP_TRANSCRIPT_RETENTION", cfg.TranscriptRetention)
	if err != nil {
		return Config{}, err
	}

	if cfg.ProviderTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_PROVIDER_TIMEOUT must be at least 1s")
	}
	if cfg.VoiceStability < 0 || cfg.VoiceStability > 1 {
		return Config{}, fmt.Errorf("ELEVENLABS_VOICE_STABILITY must be within [0, 1]")
	}
	if cfg.VoiceSimilarityBoost < 0 || cfg.VoiceSimilarityBoost > 1 {
		return Config{}, fmt.Errorf("ELEVENLABS_VOICE_SIMILARITY_BOOST must be within [0, 1]")
	}
	if cfg.TranscriptRetention <= 0 {
		return Config{}, fmt.Errorf("APP_TRANSCRIPT_RETENTION must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
