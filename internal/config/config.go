package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultSessionSecret = "secret_key_change_me"
	defaultJWTSecret     = "jwt_secret_change_me"
)

type Config struct {
	Port          string
	DBDriver      string // postgres | sqlite
	DatabaseURL   string
	SessionSecret string
	JWTSecret     string
	TokenTTL      time.Duration
	UploadDir     string

	LLMBaseURL string
	LLMToken   string
	LLMModel   string
	LLMTimeout time.Duration
	AIAuthor   string // 自动评论的署名
}

// Load 读取 .env 与系统环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	return FromEnv()
}

// FromEnv 只读取当前进程的环境变量，不加载 .env
func FromEnv() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		LLMBaseURL:    os.Getenv("LLM_BASE_URL"),
		LLMToken:      os.Getenv("LLM_TOKEN"),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:    getDuration("LLM_TIMEOUT", 30*time.Second),
		AIAuthor:      getEnv("AI_AUTHOR", "AI Bot"),
	}

	if cfg.DatabaseURL == "" {
		if cfg.DBDriver == "sqlite" {
			cfg.DatabaseURL = "board.db"
		} else {
			// Fallback for local dev if not set
			cfg.DatabaseURL = "host=localhost user=postgres password=postgres dbname=jejuboard port=5432 sslmode=disable TimeZone=Asia/Seoul"
		}
	}

	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("⚠️ JWT_SECRET not set, using the development default")
	}
	if cfg.SessionSecret == defaultSessionSecret {
		log.Println("⚠️ SESSION_SECRET not set, using the development default")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
