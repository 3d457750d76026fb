package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// config is the server configuration read from the environment.
type config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CORSOrigins     []string
	CookieSecure    bool
	CookieDomain    string
	PhoneRegion     string

	BrowserWSEndpoint string
	PDFTempDir        string
	PDFTimeout        time.Duration

	StorageProvider    string
	GCSBucket          string
	GCSCredentialsJSON string
	LocalStorageDir    string
	PublicBaseURL      string
	ImageMaxSide       int
}

func loadConfig() config {
	return config{
		Port:     getEnv("HTTP_PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: mustEnv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:  getEnvInt("DB_MIN_CONNS", 2),

		JWTSecret:       mustEnv("JWT_SECRET"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 10*24*time.Hour),
		CORSOrigins:     splitList(getEnv("CORS_ORIGIN", "")),
		CookieSecure:    getEnv("COOKIE_SECURE", "false") == "true",
		CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
		PhoneRegion:     getEnv("PHONE_REGION", "PK"),

		BrowserWSEndpoint: getEnv("BROWSER_WS_ENDPOINT", ""),
		PDFTempDir:        getEnv("PDF_TEMP_DIR", ""),
		PDFTimeout:        getEnvDuration("PDF_TIMEOUT", 30*time.Second),

		StorageProvider:    getEnv("STORAGE_PROVIDER", "local"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
		LocalStorageDir:    getEnv("LOCAL_STORAGE_DIR", "./data/files"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		ImageMaxSide:       getEnvInt("IMAGE_MAX_SIDE", 1024),
	}
}

func (c config) development() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
