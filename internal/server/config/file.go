package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration file. Only keys that
// are present override the running Config.
type FileConfig struct {
	HTTPAddr             string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr             string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN          string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey            string         `json:"secret_key" yaml:"secret_key"`
	SessionTokenTTL      timex.Duration `json:"session_token_ttl" yaml:"session_token_ttl"`
	ResetTokenTTL        timex.Duration `json:"reset_token_ttl" yaml:"reset_token_ttl"`
	DBTimeout            timex.Duration `json:"db_timeout" yaml:"db_timeout"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	BcryptCost           int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	SnoozeTimezone       string         `json:"snooze_timezone" yaml:"snooze_timezone"`
	UniformResetResponse *bool          `json:"uniform_reset_response" yaml:"uniform_reset_response"`
	ResetLinkBaseURL     string         `json:"reset_link_base_url" yaml:"reset_link_base_url"`
	SMTPHost             string         `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort             int            `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser             string         `json:"smtp_user" yaml:"smtp_user"`
	SMTPPassword         string         `json:"smtp_password" yaml:"smtp_password"`
	SMTPFrom             string         `json:"smtp_from" yaml:"smtp_from"`
	RecaptchaSecret      string         `json:"recaptcha_secret" yaml:"recaptcha_secret"`
	RedisURL             string         `json:"redis_url" yaml:"redis_url"`
	OTelEndpoint         string         `json:"otel_endpoint" yaml:"otel_endpoint"`
	LogLevel             string         `json:"log_level" yaml:"log_level"`
	LogBackend           string         `json:"log_backend" yaml:"log_backend"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, anything else as JSON. An unreadable
// or malformed file panics: the server must not start half-configured.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	if fc.SessionTokenTTL.Duration > 0 {
		c.SessionTokenTTL = fc.SessionTokenTTL.Duration
	}
	if fc.ResetTokenTTL.Duration > 0 {
		c.ResetTokenTTL = fc.ResetTokenTTL.Duration
	}
	if fc.DBTimeout.Duration > 0 {
		c.DBTimeout = fc.DBTimeout.Duration
	}
	if fc.ShutdownTimeout.Duration > 0 {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	if fc.BcryptCost > 0 {
		c.BcryptCost = fc.BcryptCost
	}
	setString(&c.SnoozeTimezone, fc.SnoozeTimezone)
	if fc.UniformResetResponse != nil {
		c.UniformResetResponse = *fc.UniformResetResponse
	}
	setString(&c.ResetLinkBaseURL, fc.ResetLinkBaseURL)
	setString(&c.SMTPHost, fc.SMTPHost)
	if fc.SMTPPort > 0 {
		c.SMTPPort = fc.SMTPPort
	}
	setString(&c.SMTPUser, fc.SMTPUser)
	setString(&c.SMTPPassword, fc.SMTPPassword)
	setString(&c.SMTPFrom, fc.SMTPFrom)
	setString(&c.RecaptchaSecret, fc.RecaptchaSecret)
	setString(&c.RedisURL, fc.RedisURL)
	setString(&c.OTelEndpoint, fc.OTelEndpoint)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogBackend, fc.LogBackend)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
