package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers     []string
	KafkaGroupID     string
	StudioEventTopic string

	// Trainer (external fine-tuning service)
	TrainerBaseURL        string
	TrainerRequestTimeout time.Duration

	// Auth
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string

	// Catalogs
	ModelCatalogPath   string
	DatasetCatalogPath string
	CatalogCacheTTL    time.Duration

	// Studio
	ModelUploadCapBytes   int64
	DatasetUploadCapBytes int64
	UploadTickInterval    time.Duration
	SubmitPolicy          string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: getInt64Env("MAX_REQUEST_BODY_BYTES", 4*1024*1024),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "studio"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "studio123"),
		PostgresDB:       getEnv("POSTGRES_DB", "studio"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "tunelab-studio"),
		StudioEventTopic: getEnv("STUDIO_EVENT_TOPIC", "studio.events"),

		TrainerBaseURL:        getEnv("TRAINER_BASE_URL", "http://localhost:8100"),
		TrainerRequestTimeout: getDuration("TRAINER_REQUEST_TIMEOUT", 15*time.Second),

		JWTSecret:        getEnv("JWT_SECRET", "studio-dev-secret-key"),
		JWTIssuer:        getEnv("JWT_ISSUER", "tunelab-studio"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "studio-api"),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),

		ModelCatalogPath:   getEnv("MODEL_CATALOG_PATH", ""),
		DatasetCatalogPath: getEnv("DATASET_CATALOG_PATH", ""),
		CatalogCacheTTL:    getDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		ModelUploadCapBytes:   getInt64Env("MODEL_UPLOAD_CAP_BYTES", 2<<30),
		DatasetUploadCapBytes: getInt64Env("DATASET_UPLOAD_CAP_BYTES", 500<<20),
		UploadTickInterval:    getDuration("UPLOAD_TICK_INTERVAL", 200*time.Millisecond),
		SubmitPolicy:          getEnv("SUBMIT_POLICY", "model_dataset"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		brokers := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				brokers = append(brokers, trimmed)
			}
		}
		if len(brokers) > 0 {
			return brokers
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
