package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Firebase   FirebaseConfig
	Google     GoogleConfig
	QuickBooks QuickBooksConfig
	Storage    StorageConfig
	Backup     BackupConfig
	App        AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// FirebaseConfig is optional outside production. With no credentials the API
// trusts the X-User-Id header.
type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
	// CheckRevoked makes every request confirm the session was not revoked.
	CheckRevoked bool
}

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	BackupFolderName string
}

type QuickBooksConfig struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	Environment       string
	RequestsPerSecond float64
}

type StorageConfig struct {
	Bucket     string
	Region     string
	Endpoint   string
	PresignTTL time.Duration
}

type BackupConfig struct {
	Enabled  bool
	Schedule string
	PgDump   string
	WorkDir  string
	// CompanyID is the operator tenant whose Drive receives the database dump.
	CompanyID string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

var (
	validEnvironments = []string{"development", "test", "staging", "production"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads the configuration without validating it.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "corebuild"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CheckRevoked:    getEnvAsBool("FIREBASE_CHECK_REVOKED", false),
		},
		Google: GoogleConfig{
			ClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:      getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/integrations/google/callback"),
			BackupFolderName: getEnv("GOOGLE_BACKUP_FOLDER", "CoreBuild Backups"),
		},
		QuickBooks: QuickBooksConfig{
			ClientID:          getEnv("QUICKBOOKS_CLIENT_ID", ""),
			ClientSecret:      getEnv("QUICKBOOKS_CLIENT_SECRET", ""),
			RedirectURL:       getEnv("QUICKBOOKS_REDIRECT_URL", "http://localhost:8080/api/v1/integrations/quickbooks/callback"),
			Environment:       getEnv("QUICKBOOKS_ENVIRONMENT", "sandbox"),
			RequestsPerSecond: getEnvAsFloat("QUICKBOOKS_RPS", 5),
		},
		Storage: StorageConfig{
			Bucket:     getEnv("S3_BUCKET", ""),
			Region:     getEnv("S3_REGION", "us-east-1"),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", 15*time.Minute),
		},
		Backup: BackupConfig{
			Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
			Schedule:  getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),
			PgDump:    getEnv("PG_DUMP_BIN", "pg_dump"),
			WorkDir:   getEnv("BACKUP_WORK_DIR", os.TempDir()),
			CompanyID: getEnv("BACKUP_COMPANY_ID", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Server.Port)
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if !contains(validEnvironments, c.App.Environment) {
		return fmt.Errorf("APP_ENV must be one of %s, got %q", strings.Join(validEnvironments, ", "), c.App.Environment)
	}
	if !contains(validLogLevels, c.App.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.App.LogLevel)
	}

	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if (c.QuickBooks.ClientID == "") != (c.QuickBooks.ClientSecret == "") {
		return fmt.Errorf("QUICKBOOKS_CLIENT_ID and QUICKBOOKS_CLIENT_SECRET must be set together")
	}
	if c.QuickBooks.Environment != "sandbox" && c.QuickBooks.Environment != "production" {
		return fmt.Errorf("QUICKBOOKS_ENVIRONMENT must be sandbox or production, got %q", c.QuickBooks.Environment)
	}

	if c.App.Environment == "production" && c.Firebase.CredentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required in production")
	}

	if c.Backup.Enabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("BACKUP_SCHEDULE is invalid: %w", err)
		}
		if _, err := uuid.Parse(c.Backup.CompanyID); err != nil {
			return fmt.Errorf("BACKUP_COMPANY_ID must be the operator company id when backups are enabled")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value <= 0 {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	out := make([]string, 0, 4)
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
