package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	HTTPAddr string
	LogLevel string

	// Auth: bcrypt hash of the API bearer key. Empty disables auth (dev mode).
	APIKeyHash string

	// Gemini API
	GeminiAPIKey      string
	GeminiAPIEndpoint string // if set, overrides default Gemini API base URL
	GeminiModelText   string // text rewrite, e.g. gemini-2.5-flash
	GeminiModelImage  string // image generation, e.g. gemini-3-pro-image-preview
	GeminiModelTTS    string // TTS model, e.g. gemini-2.5-pro-preview-tts
	GeminiTTSVoice    string // TTS voice name, e.g. Zephyr, Puck, Aoede
	GeminiModelVideo  string // video generation, e.g. veo-2.0-generate-001

	// Video
	VideoPollInterval time.Duration
	VideoResolution   string
	VideoAspectRatio  string
	MaxFrameBytes     int64 // max starting-frame upload size

	// Images
	ImageFanOut int

	// Kafka (optional generation-event stream; disabled when brokers empty)
	KafkaBrokers     []string
	KafkaTopicEvents string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIKeyHash: getEnv("API_KEY_HASH", ""),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiAPIEndpoint: getEnv("GEMINI_API_ENDPOINT", ""),
		GeminiModelText:   getEnv("GEMINI_MODEL_TEXT", "gemini-2.5-flash"),
		GeminiModelImage:  getEnv("GEMINI_MODEL_IMAGE", "gemini-3-pro-image-preview"),
		GeminiModelTTS:    getEnv("GEMINI_MODEL_TTS", "gemini-2.5-pro-preview-tts"),
		GeminiTTSVoice:    getEnv("GEMINI_TTS_VOICE", "Zephyr"),
		GeminiModelVideo:  getEnv("GEMINI_MODEL_VIDEO", "veo-2.0-generate-001"),

		VideoPollInterval: getEnvDuration("VIDEO_POLL_INTERVAL", 10*time.Second),
		VideoResolution:   getEnv("VIDEO_RESOLUTION", "720p"),
		VideoAspectRatio:  getEnv("VIDEO_ASPECT_RATIO", "16:9"),
		MaxFrameBytes:     getEnvInt64("MAX_FRAME_BYTES", 4*1024*1024), // 4MiB

		ImageFanOut: clampMin(getEnvInt("IMAGE_FAN_OUT", 5), 1),

		KafkaBrokers:     splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "muse.generations.v1"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// clampMin returns v if v >= min, otherwise min. Used to ensure config values are in valid range.
func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// splitNonEmpty splits a comma-separated list, dropping empty entries.
func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
