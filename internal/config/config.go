package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret = "change-me-in-production"
	defaultAPIKey    = "change-me-internal-api-key"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	APIKey    APIKeyConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	Storage   StorageConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port       string
	APIVersion string
	Env        string
	// PublicURL is the externally reachable base used when building photo URLs.
	PublicURL string
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

type APIKeyConfig struct {
	Key string
}

type RateLimitConfig struct {
	Window     time.Duration
	Max        int
	AuthWindow time.Duration
	AuthMax    int
	RedisURL   string
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

type CORSConfig struct {
	Origin string
}

type StorageConfig struct {
	Driver       string
	UploadDir    string
	MaxPhotoSize int64
	MinIO        MinIOConfig
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads .env.<APP_ENV> and .env when present, then builds the config
// from the process environment. Variables already set in the environment win.
func Load() *Config {
	loadDotenv(getEnv("APP_ENV", "development"))

	return &Config{
		Server: ServerConfig{
			Port:       getEnv("PORT", "3000"),
			APIVersion: getEnv("API_VERSION", "v1"),
			Env:        getEnv("APP_ENV", "development"),
			PublicURL:  strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "user_service_dev"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Second),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", defaultJWTSecret),
			ExpiresIn: getEnvAsDuration("JWT_EXPIRES_IN", 24*time.Hour),
		},
		APIKey: APIKeyConfig{
			Key: getEnv("X_API_KEY", defaultAPIKey),
		},
		RateLimit: RateLimitConfig{
			Window:     getEnvAsMillis("RATE_LIMIT_WINDOW_MS", 15*time.Minute),
			Max:        getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
			AuthWindow: getEnvAsMillis("AUTH_RATE_LIMIT_WINDOW_MS", 15*time.Minute),
			AuthMax:    getEnvAsInt("AUTH_RATE_LIMIT_MAX_REQUESTS", 5),
			RedisURL:   getEnv("REDIS_URL", ""),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "debug"),
			FilePath: getEnv("LOG_FILE_PATH", "logs/app.log"),
		},
		CORS: CORSConfig{
			Origin: getEnv("CORS_ORIGIN", "*"),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadDir:    getEnv("UPLOAD_DIR", "uploads/profiles"),
			MaxPhotoSize: int64(getEnvAsInt("MAX_PHOTO_SIZE_BYTES", 5*1024*1024)),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "profile-photos"),
				UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.APIKey.Key == "" {
		errs = append(errs, errors.New("X_API_KEY must not be empty"))
	}
	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if c.APIKey.Key == defaultAPIKey {
			errs = append(errs, errors.New("X_API_KEY must be set in production"))
		}
	}
	if c.DB.MaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be at least 1"))
	}
	if c.DB.MaxIdleConns < 0 || c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS"))
	}
	if c.RateLimit.Max < 1 || c.RateLimit.AuthMax < 1 {
		errs = append(errs, errors.New("rate limit maximums must be at least 1"))
	}
	if c.Storage.MaxPhotoSize < 1 {
		errs = append(errs, errors.New("MAX_PHOTO_SIZE_BYTES must be positive"))
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR must not be empty"))
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	return errors.Join(errs...)
}

func loadDotenv(env string) {
	for _, path := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsMillis(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
