package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig maps TODOKEEPER_* environment variables onto Config. It is
// pre-filled from the running Config so unset variables keep earlier values.
type EnvConfig struct {
	HTTPAddr             string        `env:"HTTP_ADDR"`
	GRPCAddr             string        `env:"GRPC_ADDR"`
	DatabaseDSN          string        `env:"DATABASE_DSN"`
	SecretKey            string        `env:"SECRET_KEY"`
	SessionTokenTTL      time.Duration `env:"SESSION_TOKEN_TTL"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL"`
	DBTimeout            time.Duration `env:"DB_TIMEOUT"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT"`
	BcryptCost           int           `env:"BCRYPT_COST"`
	SnoozeTimezone       string        `env:"SNOOZE_TIMEZONE"`
	UniformResetResponse bool          `env:"UNIFORM_RESET_RESPONSE"`
	ResetLinkBaseURL     string        `env:"RESET_LINK_BASE_URL"`
	SMTPHost             string        `env:"SMTP_HOST"`
	SMTPPort             int           `env:"SMTP_PORT"`
	SMTPUser             string        `env:"SMTP_USER"`
	SMTPPassword         string        `env:"SMTP_PASSWORD"`
	SMTPFrom             string        `env:"SMTP_FROM"`
	RecaptchaSecret      string        `env:"RECAPTCHA_SECRET"`
	RedisURL             string        `env:"REDIS_URL"`
	OTelEndpoint         string        `env:"OTEL_ENDPOINT"`
	LogLevel             string        `env:"LOG_LEVEL"`
	LogBackend           string        `env:"LOG_BACKEND"`
}

// EnvPrefix is prepended to every variable name in EnvConfig.
const EnvPrefix = "TODOKEEPER_"

// dotEnvFile is loaded before the environment is read; variables already set
// in the process environment win over the file.
var dotEnvFile = ".env"

func parseEnv(config *Config) {
	path := dotEnvFile
	if p := os.Getenv(EnvPrefix + "ENV_FILE"); p != "" {
		path = p
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	ec := EnvConfig(*config)
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
	*config = Config(ec)
}
