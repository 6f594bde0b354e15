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

// Comment policies accepted in COMMENT_POLICY.
const (
	CommentPolicyAutoApprove = "auto-approve"
	CommentPolicyModerate    = "moderate"
)

type HTTPConfig struct {
	Addr        string
	CORSOrigins string
	// WriteRateLimit is the per-client rate (req/s) for public writes; 0 disables.
	WriteRateLimit float64
	WriteBurst     int
	// TrustProxyHeaders keys the write limit by X-Forwarded-For.
	TrustProxyHeaders bool
}

type GRPCConfig struct {
	Addr string
}

type AuthConfig struct {
	JWTSecret     string
	VisitorSecret string
}

// EngagementConfig holds the policy switches of the engagement engine.
type EngagementConfig struct {
	AllowAnonymousReactions bool
	CommentPolicy           string
	ReportCacheTTL          time.Duration
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	Env         string
	HTTP        HTTPConfig
	GRPC        GRPCConfig
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	Auth        AuthConfig
	Engagement  EngagementConfig
}

// IsProduction reports whether APP_ENV is "production".
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		ServiceName: env("SERVICE_NAME"),
		LogLevel:    env("LOG_LEVEL"),
		Env:         env("APP_ENV"),
		HTTP: HTTPConfig{
			Addr:        env("HTTP_ADDR"),
			CORSOrigins: env("CORS_ALLOWED_ORIGINS"),
		},
		GRPC:        GRPCConfig{Addr: env("GRPC_ADDR")},
		DatabaseURL: env("DATABASE_URL"),
		RedisURL:    env("REDIS_URL"),
		NATSURL:     env("NATS_URL"),
		Auth: AuthConfig{
			JWTSecret:     env("JWT_SECRET"),
			VisitorSecret: env("VISITOR_SECRET"),
		},
		Engagement: EngagementConfig{
			CommentPolicy: strings.ToLower(env("COMMENT_POLICY")),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":9090"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	rate, err := envFloat("WRITE_RATE_LIMIT", 1)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.HTTP.WriteRateLimit = rate
	burst, err := envInt("WRITE_RATE_BURST", 10)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.HTTP.WriteBurst = burst
	trust, err := envBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.HTTP.TrustProxyHeaders = trust

	anon, err := envBool("ALLOW_ANONYMOUS_REACTIONS", false)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Engagement.AllowAnonymousReactions = anon

	switch cfg.Engagement.CommentPolicy {
	case "":
		cfg.Engagement.CommentPolicy = CommentPolicyAutoApprove
	case CommentPolicyAutoApprove, CommentPolicyModerate:
	default:
		return AppConfig{}, fmt.Errorf("COMMENT_POLICY must be %q or %q, got %q",
			CommentPolicyAutoApprove, CommentPolicyModerate, cfg.Engagement.CommentPolicy)
	}

	ttl, err := envDuration("REPORT_CACHE_TTL", time.Minute)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Engagement.ReportCacheTTL = ttl

	if cfg.Auth.VisitorSecret == "" {
		cfg.Auth.VisitorSecret = cfg.Auth.JWTSecret
	}

	if cfg.IsProduction() {
		if cfg.DatabaseURL == "" {
			return AppConfig{}, errors.New("DATABASE_URL is required in production")
		}
		if cfg.Auth.JWTSecret == "" {
			return AppConfig{}, errors.New("JWT_SECRET is required in production")
		}
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBool(key string, fallback bool) (bool, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return n, nil
}
