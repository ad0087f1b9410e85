package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string `env:"PORT,         default=8080"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	JWTSecret   string `env:"JWT_SECRET"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:5173"`

	Tokens  TokenConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	SMTP    SMTPConfig
	Cleanup CleanupConfig
}

type TokenConfig struct {
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=720h"`
	ResetTTL   time.Duration `env:"RESET_TOKEN_TTL,   default=10m"`
	OTPTTL     time.Duration `env:"OTP_TTL,           default=10m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST, default=localhost"`
	Port     int           `env:"SMTP_PORT, default=587"`
	Username string        `env:"SMTP_USER"`
	Password string        `env:"SMTP_PASS"`
	From     string        `env:"SMTP_FROM, default=no-reply@craftlink.io"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT, default=10s"`
}

type CleanupConfig struct {
	Interval         time.Duration `env:"CLEANUP_INTERVAL,          default=1h"`
	PendingRetention time.Duration `env:"CLEANUP_PENDING_RETENTION, default=24h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
