package app

import (
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/db"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/envutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type Config struct {
	HTTPAddr    string
	Environment string
	Version     string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	DB db.Config

	AIPromptFile string

	RedisAddr     string
	RedisPassword string

	OCREnabled bool
	MediaDir   string

	ChatAllowUnaffiliatedTenants bool
	CORSAllowedOrigins           []string
}

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8000"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", 7*24*time.Hour),

		DB: db.Config{
			Driver:     strings.ToLower(envutil.String("DB_DRIVER", "postgres")),
			DSN:        envutil.String("DATABASE_DSN", ""),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "smart_apartment"),
			SQLitePath: envutil.String("SQLITE_PATH", "smart_apartment.db"),
		},

		AIPromptFile: envutil.String("AI_PROMPT_FILE", ""),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),

		OCREnabled: envutil.Bool("OCR_ENABLED", false),
		MediaDir:   envutil.String("MEDIA_DIR", "media"),

		ChatAllowUnaffiliatedTenants: envutil.Bool("CHAT_ALLOW_UNAFFILIATED_TENANTS", false),
		CORSAllowedOrigins:           envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using the development default")
	}
	return cfg
}
