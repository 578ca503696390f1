package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	MongoURI   string
	DBName     string
	JWTSecret  string
	TokenTTL   time.Duration
	Version    string
	RateLimits RateLimits
}

type RateLimits struct {
	RegisterPerMinute int
	PostPerMinute     int
	CommentPerMinute  int
}

func Load() Config {
	// A local .env overrides nothing already set in the environment.
	_ = godotenv.Load()

	addr := envString("SOCIAL_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":3000"
		}
	}
	return Config{
		Addr:      addr,
		MongoURI:  envString("SOCIAL_MONGO_URI", "mongodb://127.0.0.1:27017"),
		DBName:    envString("SOCIAL_DB", "social-media"),
		JWTSecret: envString("SOCIAL_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:  envDuration("SOCIAL_TOKEN_TTL", time.Hour),
		Version:   envString("SOCIAL_VERSION", "dev"),
		RateLimits: RateLimits{
			RegisterPerMinute: envInt("SOCIAL_RL_REGISTER_PER_MIN", 10),
			PostPerMinute:     envInt("SOCIAL_RL_POST_PER_MIN", 30),
			CommentPerMinute:  envInt("SOCIAL_RL_COMMENT_PER_MIN", 60),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
