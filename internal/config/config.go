// Package config loads runtime configuration from .env, environment and
// flags, in that precedence order.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DB          DBConfig
	Blob        BlobConfig
	Automation  AutomationConfig
	PhoneFormat string
	// OwnerKey authorizes preview sessions. Empty disables preview.
	OwnerKey       string
	ResolveTimeout time.Duration
	CacheSize      int
}

type DBConfig struct {
	DSN string
}

type BlobConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AutomationConfig struct {
	Enabled bool
	Model   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:           *port,
		Env:            env,
		DB:             DBConfig{DSN: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		Blob:           loadBlobConfig(env),
		Automation:     loadAutomationConfig(),
		PhoneFormat:    strings.TrimSpace(os.Getenv("PHONE_FORMAT")),
		OwnerKey:       strings.TrimSpace(os.Getenv("OWNER_PREVIEW_KEY")),
		ResolveTimeout: durationEnv("RESOLVE_TIMEOUT", 5*time.Second),
		CacheSize:      intEnv("SURVEY_CACHE_SIZE", 256),
	}, nil
}

func loadBlobConfig(env string) BlobConfig {
	endpoint := resolveBlobEndpoint(env)
	return BlobConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("MEDIA_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("MEDIA_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("MEDIA_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("MEDIA_S3_BUCKET")), "leadform-media"),
		UseSSL:    resolveBlobUseSSL(env),
	}
}

func resolveBlobEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("MEDIA_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("MEDIA_S3_ENDPOINT"))
}

func resolveBlobUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("MEDIA_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func loadAutomationConfig() AutomationConfig {
	return AutomationConfig{
		Enabled: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) != "",
		Model:   strings.TrimSpace(os.Getenv("AUTOMATION_MODEL")),
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
