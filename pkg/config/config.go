package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Recognition RecognitionConfig
	Storage     StorageConfig
	Logger      LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// RecognitionConfig points at the external extraction function. The legacy
// endpoint is only used when EnableLegacyFallback is set and the primary
// call fails.
type RecognitionConfig struct {
	BaseURL              string
	LegacyURL            string
	APIKey               string
	Model                string
	Timeout              time.Duration
	EnableLegacyFallback bool
}

// StorageConfig controls where uploaded receipt files land and how long a
// signed reference to them stays valid.
type StorageConfig struct {
	UploadDir     string
	PublicBaseURL string
	SignedURLTTL  time.Duration
	SigningSecret string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine: plain environment variables work for Docker/K8s.

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	recognitionTimeout, _ := strconv.Atoi(getEnv("RECOGNITION_TIMEOUT_SECONDS", "60"))
	signedURLTTL, _ := strconv.Atoi(getEnv("STORAGE_SIGNED_URL_TTL_MINUTES", "15"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "gastoscan"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Recognition: RecognitionConfig{
			BaseURL:              getEnv("RECOGNITION_URL", ""),
			LegacyURL:            getEnv("RECOGNITION_LEGACY_URL", ""),
			APIKey:               getEnv("RECOGNITION_API_KEY", ""),
			Model:                getEnv("RECOGNITION_MODEL", "gemini-1.5-pro-latest"),
			Timeout:              time.Duration(recognitionTimeout) * time.Second,
			EnableLegacyFallback: getEnv("ENABLE_LEGACY_RECEIPT_FUNC", "false") == "true",
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080"),
			SignedURLTTL:  time.Duration(signedURLTTL) * time.Minute,
			SigningSecret: getEnv("STORAGE_SIGNING_SECRET", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
