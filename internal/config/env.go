package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage modes.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	StorageMode  string
	JWTSecret    string
	Port         string
	CORSOrigins  []string
	LogLevel     string
	LogFormat    string
	Workers      int
	MaxUploadMB  int

	// Exemplar engine defaults.
	USXSuffix     string
	Normalization string
	Segmentation  string
	Ranking       string
	MinCount      int
	AuxRatio      float64

	// Warnings collects unparsable values that fell back to defaults.
	Warnings []string
}

// LoadConfig loads the environment variables and returns the config.
// It never exits; call Validate before serving.
func LoadConfig() *Config {
	_ = godotenv.Load()

	c := &Config{}
	c.DatabaseURL = getEnv("DATABASE_URL", "")
	c.SslCertPath = getEnv("SSL_CERT_PATH", "")
	c.AwsAccessKey = getEnv("AWS_ACCESS_KEY", "")
	c.AwsSecretKey = getEnv("AWS_SECRET_KEY", "")
	c.AwsRegion = getEnv("AWS_REGION", "us-east-2")
	c.BucketName = getEnv("BUCKET_NAME", "orthoscan-texts")
	c.StorageMode = strings.ToLower(getEnv("STORAGE_MODE", StoragePostgres))
	c.JWTSecret = getEnv("JWT_SECRET", "")
	c.Port = getEnv("PORT", "8080")
	c.CORSOrigins = getEnvList("CORS_ORIGINS", []string{"*"})
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.LogFormat = getEnv("LOG_FORMAT", "json")
	c.Workers = c.getEnvInt("WORKERS", 2)
	c.MaxUploadMB = c.getEnvInt("MAX_UPLOAD_MB", 64)

	c.USXSuffix = getEnv("USX_SUFFIX", ".usx")
	c.Normalization = getEnv("NORMALIZATION", "nfc")
	c.Segmentation = getEnv("SEGMENTATION", "marks")
	c.Ranking = getEnv("RANKING", "frequency")
	c.MinCount = c.getEnvInt("MIN_COUNT", 0)
	c.AuxRatio = c.getEnvFloat("AUX_RATIO", 0.0001)

	return c
}

// Validate reports the missing or inconsistent keys the API server needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.StorageMode {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL not set"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_MODE %q: want %s or %s", c.StorageMode, StoragePostgres, StorageMemory))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be positive, got %d", c.Workers))
	}
	if c.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB))
	}
	if c.MinCount < 0 {
		errs = append(errs, fmt.Errorf("MIN_COUNT must not be negative, got %d", c.MinCount))
	}
	if c.AuxRatio < 0 || c.AuxRatio >= 1 {
		errs = append(errs, fmt.Errorf("AUX_RATIO must be in [0,1), got %g", c.AuxRatio))
	}
	return errors.Join(errs...)
}

// Helper to read environment variables with a default fallback; empty counts as unset
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func (c *Config) getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q not an int, using default %d", key, v, def))
		return def
	}
	return n
}

func (c *Config) getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q not a number, using default %g", key, v, def))
		return def
	}
	return f
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
