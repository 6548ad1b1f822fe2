package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string

	// Image storage
	StorageBackend string
	MediaRoot      string
	MediaURL       string
	S3BucketName   string
	S3Region       string
	S3Endpoint     string
	S3PublicURL    string
	S3AccessKey    string
	S3SecretKey    string

	// Recipe API behaviour
	PageSize           int
	IngredientMatch    string
	RecipeCreateLimit  int
	RecipeCreateWindow time.Duration
	PDFFontPath        string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal = "local"
	StorageS3    = "s3"

	MatchPrefix = "prefix"
	MatchExact  = "exact"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	v := newViper()
	cfg := fromViper(v)
	cfg.Environment = env

	// Load configuration based on environment
	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		loadDevConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("foodgram")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/foodgram")

	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", "8080")
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "foodgram")
	v.SetDefault("db_name", "foodgram")
	v.SetDefault("db_ssl_mode", "disable")
	v.SetDefault("sqlite_path", "foodgram.db")
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("storage_backend", StorageLocal)
	v.SetDefault("media_root", "media")
	v.SetDefault("media_url", "/media/")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("page_size", 6)
	v.SetDefault("ingredient_match", MatchPrefix)
	v.SetDefault("recipe_create_limit", 30)
	v.SetDefault("recipe_create_window", "1h")

	// A missing config file is fine, defaults and the environment cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "ignoring unreadable config file: %v\n", err)
		}
	}

	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		ServerHost:         v.GetString("server_host"),
		ServerPort:         v.GetString("server_port"),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
		DBDriver:           strings.ToLower(v.GetString("db_driver")),
		DBHost:             v.GetString("db_host"),
		DBPort:             v.GetString("db_port"),
		DBUser:             v.GetString("db_user"),
		DBPassword:         v.GetString("db_password"),
		DBName:             v.GetString("db_name"),
		DBSSLMode:          v.GetString("db_ssl_mode"),
		SQLitePath:         v.GetString("sqlite_path"),
		RedisURL:           v.GetString("redis_url"),
		RedisHost:          v.GetString("redis_host"),
		RedisPort:          v.GetString("redis_port"),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTTTL:             v.GetDuration("jwt_ttl"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		StorageBackend:     strings.ToLower(v.GetString("storage_backend")),
		MediaRoot:          v.GetString("media_root"),
		MediaURL:           v.GetString("media_url"),
		S3BucketName:       v.GetString("s3_bucket_name"),
		S3Region:           v.GetString("aws_region"),
		S3Endpoint:         v.GetString("s3_endpoint"),
		S3PublicURL:        v.GetString("s3_public_url"),
		S3AccessKey:        v.GetString("aws_access_key_id"),
		S3SecretKey:        v.GetString("aws_secret_access_key"),
		PageSize:           v.GetInt("page_size"),
		IngredientMatch:    strings.ToLower(v.GetString("ingredient_match")),
		RecipeCreateLimit:  v.GetInt("recipe_create_limit"),
		RecipeCreateWindow: v.GetDuration("recipe_create_window"),
		PDFFontPath:        v.GetString("pdf_font_path"),
	}
}

// loadCIConfig loads configuration for CI environment using ONLY GitHub Actions secrets
func loadCIConfig(cfg *Config) error {
	if pw := os.Getenv("TEST_DB_PASSWORD"); pw != "" {
		cfg.DBPassword = pw
	}
	if secret := os.Getenv("TEST_JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("TEST_JWT_SECRET or JWT_SECRET environment variable is required in CI environment")
	}
	return nil
}

// loadDevConfig lets Docker secrets override the environment when they exist
func loadDevConfig(cfg *Config) {
	overrideFromSecret(&cfg.DBUser, "db_user")
	overrideFromSecret(&cfg.DBPassword, "db_password")
	overrideFromSecret(&cfg.JWTSecret, "jwt_secret")
	overrideFromSecret(&cfg.RedisPassword, "redis_password")
	overrideFromSecret(&cfg.RedisURL, "redis_url")

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "foodgram-dev-secret"
	}
}

// loadProdConfig loads sensitive values for production using ONLY Docker secrets
func loadProdConfig(cfg *Config) {
	cfg.DBUser = firstNonEmpty(readSecret("db_user"), cfg.DBUser)
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisURL = firstNonEmpty(readSecret("redis_url"), cfg.RedisURL)
	cfg.S3AccessKey = firstNonEmpty(readSecret("aws_access_key_id"), cfg.S3AccessKey)
	cfg.S3SecretKey = firstNonEmpty(readSecret("aws_secret_access_key"), cfg.S3SecretKey)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func overrideFromSecret(dst *string, name string) {
	if value := readSecret(name); value != "" {
		*dst = value
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN builds the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// DatabaseURL builds the postgres URL form used by golang-migrate
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
