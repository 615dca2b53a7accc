package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	GeneratorLocal  = "local"
	GeneratorRemote = "remote"
	GeneratorOpenAI = "openai"

	ClassifierRemote = "remote"
	ClassifierHugot  = "hugot"
	ClassifierVader  = "vader"
)

// AppConfig holds the analysis settings shared by every binary. Connection
// settings for Kafka, Valkey and AWS are read by their clients directly.
type AppConfig struct {
	TopN            int
	BatchTopN       int
	BatchReviewTopN int
	Workers         int
	CallTimeout     time.Duration
	UseMMR          bool
	LexiconPath     string

	Generator   string
	Classifiers []string

	HugotModelPath string
	ResultCache    bool
	ResultCacheTTL time.Duration
	HealthInterval time.Duration
}

func GetAppConfig() AppConfig {
	return AppConfig{
		TopN:            getEnvInt("ABSA_TOP_N", 8),
		BatchTopN:       getEnvInt("ABSA_BATCH_TOP_N", 15),
		BatchReviewTopN: getEnvInt("ABSA_BATCH_REVIEW_TOP_N", 5),
		Workers:         getEnvInt("ABSA_WORKERS", 4),
		CallTimeout:     getEnvDuration("ABSA_CALL_TIMEOUT", 0),
		UseMMR:          getEnvBool("ABSA_USE_MMR", true),
		LexiconPath:     getEnv("ABSA_LEXICON_PATH", ""),

		Generator:   strings.ToLower(getEnv("ABSA_GENERATOR", GeneratorRemote)),
		Classifiers: getEnvList("ABSA_CLASSIFIER", []string{ClassifierRemote, ClassifierVader}),

		HugotModelPath: getEnv("HUGOT_MODEL_PATH", ""),
		ResultCache:    getEnvBool("RESULT_CACHE_ENABLED", false),
		ResultCacheTTL: getEnvDuration("RESULT_CACHE_TTL", 24*time.Hour),
		HealthInterval: getEnvDuration("INFERENCE_HEALTH_INTERVAL", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("[Config] Invalid integer, using default", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("[Config] Invalid bool, using default", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("[Config] Invalid duration, using default", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
