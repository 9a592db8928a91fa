package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	// Signing secret for session tokens. Empty is a fatal
	// configuration error, checked at startup.
	JWTSecret string
	TokenTTL  time.Duration

	// Geocoding provider. An empty key switches the resolver
	// into offline fallback mode.
	GeocodeAPIKey  string
	GeocodeBaseURL string

	// Image storage: "disk" or "minio".
	StorageBackend string
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Optional Redis-backed list cache. Empty addr keeps the
	// in-memory cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MaxBodyBytes   int64
	AllowedOrigins []string

	OTLPEndpoint string
}

func Load() Config {
	// .env is optional, real env vars win.
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:  env,
		Port: port,

		DBURL: dbURL,

		JWTSecret: getEnv("TOKEN_PRIVATE_KEY", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", time.Hour),

		GeocodeAPIKey:  getEnv("GEOCODE_API_KEY", ""),
		GeocodeBaseURL: getEnv("GEOCODE_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),

		StorageBackend: getEnv("STORAGE_BACKEND", "disk"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads/images"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "placehub-images"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 30*time.Second),

		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 5<<20)),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "*")),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "placehub")
	pass := getEnv("DB_PASSWORD", "placehub")
	name := getEnv("DB_NAME", "placehub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			return fallback
		}

		return d
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
