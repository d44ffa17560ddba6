package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the auth core.
type Config struct {
	AppPort string `env:"APP_PORT,default=8080"`
	AppEnv  string `env:"APP_ENV,default=development"`
	Debug   bool   `env:"DEBUG,default=false"`

	// PublicBaseURL is the externally reachable origin used to build
	// per-provider OAuth callback URLs.
	PublicBaseURL string `env:"PUBLIC_BASE_URL,required"`
	LoginURL      string `env:"LOGIN_URL,default=/login"`

	DatabaseDSN string `env:"DATABASE_DSN,required"`

	// SessionBackend selects "postgres" or "redis" for session persistence.
	SessionBackend string `env:"SESSION_BACKEND,default=postgres"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`

	JWTSecret       string `env:"JWT_SECRET,required"`
	JWTLegacySecret string `env:"JWT_LEGACY_SECRET"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=1h"`

	NaverClientID     string `env:"NAVER_CLIENT_ID"`
	NaverClientSecret string `env:"NAVER_CLIENT_SECRET"`

	KakaoClientID     string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret string `env:"KAKAO_CLIENT_SECRET"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`

	TwitterClientID     string `env:"TWITTER_CLIENT_ID"`
	TwitterClientSecret string `env:"TWITTER_CLIENT_SECRET"`

	PaycoClientID     string `env:"PAYCO_CLIENT_ID"`
	PaycoClientSecret string `env:"PAYCO_CLIENT_SECRET"`

	AppleClientID       string `env:"APPLE_CLIENT_ID"`
	AppleTeamID         string `env:"APPLE_TEAM_ID"`
	AppleKeyID          string `env:"APPLE_KEY_ID"`
	ApplePrivateKeyPath string `env:"APPLE_PRIVATE_KEY_PATH"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CookieSecure reports whether cookies should carry the Secure flag.
func (c Config) CookieSecure() bool {
	return c.AppEnv == "production"
}
