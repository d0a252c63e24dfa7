package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every tuning knob the service recognizes. Defaults follow
// the values documented next to each field.
type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	GenModel     string
	JWTSecret    string
	Port         string
	LogMode      string

	// Ingestion.
	MaxUploadBytes    int64 // upload size ceiling (default 50 MiB)
	MinExtractedChars int   // below this, ingestion aborts (default 100)
	ChunkTargetSize   int   // target chunk size in characters (default 1500)
	ChunkOverlap      int   // overlap between consecutive chunks (default 200)
	OCRConcurrency    int   // parallel OCR workers per job (default 4)
	EmbedBatchSize    int   // chunks per embedding call (default 40)
	EmbedRatePerSec   int   // embedding calls allowed per second (default 2)

	// Query understanding and retrieval.
	FuzzyThreshold     float64 // fuzzy-match acceptance threshold (default 0.65)
	GraphMaxDepth      int     // dependency traversal hop limit (default 3)
	MaxSearchResults   int     // context window budget (default 15)
	FullAnalysisMinLen int     // message length that triggers full analysis (default 100)
}

// LoadConfig reads the environment (plus an optional .env file) into a Config.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "maintexa-docs"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 768),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		Port:         getEnv("PORT", "8080"),
		LogMode:      getEnv("LOG_MODE", "dev"),

		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
		MinExtractedChars: getEnvInt("MIN_EXTRACTED_CHARS", 100),
		ChunkTargetSize:   getEnvInt("CHUNK_TARGET_SIZE", 1500),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 200),
		OCRConcurrency:    getEnvInt("OCR_CONCURRENCY", 4),
		EmbedBatchSize:    getEnvInt("EMBED_BATCH_SIZE", 40),
		EmbedRatePerSec:   getEnvInt("EMBED_RATE_PER_SEC", 2),

		FuzzyThreshold:     getEnvFloat("FUZZY_THRESHOLD", 0.65),
		GraphMaxDepth:      getEnvInt("GRAPH_MAX_DEPTH", 3),
		MaxSearchResults:   getEnvInt("MAX_SEARCH_RESULTS", 15),
		FullAnalysisMinLen: getEnvInt("FULL_ANALYSIS_MIN_LEN", 100),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a float, using default %g", key, v, def)
		return def
	}
	return f
}
