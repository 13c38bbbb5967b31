package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

type AppConfig struct {
	Env                Environment
	LogLevel           string
	ServerPort         string
	RawBodyLog         bool
	HttpTimeoutSeconds int
}

type HuggingFaceConfig struct {
	URL              string
	Token            string
	EmbeddingModel   string
	GenerationModel  string
	SummaryModel     string
	WhisperModel     string
	MaxNewTokens     int
	Temperature      float64
	DoSample         bool
	MaxRetries       int
	RetryBackoff     []time.Duration
	BatchPacingDelay time.Duration
}

type ChunkingConfig struct {
	TargetSizeTokens   int
	OverlapFraction    float64
	MinSegmentDuration float64
}

type RetrievalConfig struct {
	SimilarityThreshold float64
	TopK                int
	MaxContextLength    int
	EmbeddingDimension  int
}

type SourceConfig struct {
	PreferredLanguages []string
	MaxVideoDuration   int
	AudioResolverURL   string
}

type Config struct {
	App         AppConfig
	HuggingFace HuggingFaceConfig
	Chunking    ChunkingConfig
	Retrieval   RetrievalConfig
	Source      SourceConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	env := parseEnvironment(appEnv)

	logLevel := getLogLevel(env)

	return &Config{
		App: AppConfig{
			Env:                env,
			LogLevel:           logLevel,
			ServerPort:         getEnv("APP_SERVER_PORT", "8080"),
			RawBodyLog:         getEnvBool("APP_RAW_BODY_LOG", false),
			HttpTimeoutSeconds: getEnvInt("APP_HTTP_TIMEOUT_SECONDS", 30),
		},
		HuggingFace: HuggingFaceConfig{
			URL:              getEnv("HF_URL", "https://api-inference.huggingface.co"),
			Token:            getEnv("HF_API_TOKEN", ""),
			EmbeddingModel:   getEnv("HF_EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			GenerationModel:  getEnv("HF_GENERATION_MODEL", "google/flan-t5-base"),
			SummaryModel:     getEnv("HF_SUMMARY_MODEL", "facebook/bart-large-cnn"),
			WhisperModel:     getEnv("HF_WHISPER_MODEL", "openai/whisper-small"),
			MaxNewTokens:     getEnvInt("HF_MAX_NEW_TOKENS", 200),
			Temperature:      getEnvFloat("HF_TEMPERATURE", 0.1),
			DoSample:         getEnvBool("HF_DO_SAMPLE", true),
			MaxRetries:       getEnvInt("HF_MAX_RETRIES", 3),
			RetryBackoff:     getEnvDurations("HF_RETRY_BACKOFF_SECONDS", []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}),
			BatchPacingDelay: time.Duration(getEnvInt("HF_BATCH_PACING_MS", 100)) * time.Millisecond,
		},
		Chunking: ChunkingConfig{
			TargetSizeTokens:   getEnvInt("CHUNK_SIZE_TOKENS", 1000),
			OverlapFraction:    getEnvFloat("CHUNK_OVERLAP_FRACTION", 0.125),
			MinSegmentDuration: getEnvFloat("CHUNK_MIN_SEGMENT_DURATION", 2.0),
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold: getEnvFloat("RETRIEVAL_SIMILARITY_THRESHOLD", 0.35),
			TopK:                getEnvInt("RETRIEVAL_TOP_K", 5),
			MaxContextLength:    getEnvInt("RETRIEVAL_MAX_CONTEXT_LENGTH", 2000),
			EmbeddingDimension:  getEnvInt("RETRIEVAL_EMBEDDING_DIMENSION", 384),
		},
		Source: SourceConfig{
			PreferredLanguages: getEnvList("SOURCE_PREFERRED_LANGUAGES", []string{"en", "en-US", "en-GB"}),
			MaxVideoDuration:   getEnvInt("SOURCE_MAX_VIDEO_DURATION", 3600),
			AudioResolverURL:   getEnv("SOURCE_AUDIO_RESOLVER_URL", ""),
		},
	}, nil
}

func (c *Config) Validate() error {
	if c.HuggingFace.Token == "" {
		return fmt.Errorf("HF_API_TOKEN is required")
	}
	if c.Chunking.OverlapFraction < 0 || c.Chunking.OverlapFraction >= 1 {
		return fmt.Errorf("CHUNK_OVERLAP_FRACTION must be in [0,1)")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive")
	}
	return nil
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("APP_LOG_LEVEL", "info")
	}

	return getEnv("APP_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value == "true" {
		return true
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvDurations(key string, defaultValue []time.Duration) []time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var schedule []time.Duration
	for _, part := range strings.Split(value, ",") {
		secs, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		schedule = append(schedule, time.Duration(secs)*time.Second)
	}
	return schedule
}
