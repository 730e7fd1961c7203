package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string

	DataDir            string
	UploadDir          string
	CanonicalFile      string
	SeedSample         bool
	MaxUploadSizeBytes int64

	AllowedOrigins     []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	ReportCacheTTL     time.Duration

	AlertTakeProfitPct float64
	AlertReviewPct     float64

	// ExtraHeaderSynonyms extends the built-in header table, e.g.
	// "fecha compra=transaction_date;ticker=instrument".
	ExtraHeaderSynonyms map[string]string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	dataDir := getEnv("DATA_DIR", "data")

	Cfg = &AppConfig{
		Port:     getEnv("PORT", "8050"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:            dataDir,
		UploadDir:          getEnv("UPLOAD_DIR", dataDir+"/uploads"),
		CanonicalFile:      getEnv("CANONICAL_FILE", "transactions.csv"),
		SeedSample:         getEnvAsBool("SEED_SAMPLE", true),
		MaxUploadSizeBytes: getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),

		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),
		ReportCacheTTL:     getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),

		AlertTakeProfitPct: getEnvAsFloat("ALERT_TAKE_PROFIT_PCT", 20),
		AlertReviewPct:     getEnvAsFloat("ALERT_REVIEW_PCT", -10),

		ExtraHeaderSynonyms: parseSynonyms(getEnv("EXTRA_HEADER_SYNONYMS", "")),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DataDir=%s, CanonicalFile=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DataDir, Cfg.CanonicalFile)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseSynonyms reads "raw header=field" pairs separated by semicolons.
func parseSynonyms(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		raw, field, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		raw, field = strings.TrimSpace(raw), strings.TrimSpace(field)
		if raw == "" || field == "" {
			continue
		}
		out[raw] = field
	}
	return out
}
