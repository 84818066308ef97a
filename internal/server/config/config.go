// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment and command-line flags.
package config

import "time"

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	BootstrapFirstUser = "first-user"
	BootstrapManual    = "manual"
)

// Config holds runtime settings for the clubhouse server.
//
// Fields:
//   - HTTPAddr: bind address for the web server.
//   - DatabaseDSN: postgres:// URL (pgx) or a SQLite path / sqlite:// URL.
//   - SecretKey: HMAC secret for signing session cookies (HS256). Do not use test defaults in prod.
//   - SessionDuration: how long a login stays valid.
//   - StorageBackend: "local" (UploadDir) or "s3".
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - LogFile / LogFormat / Debug: logging sinks and backend ("json" or "zerolog").
//   - AdminBootstrap: "first-user" makes the first registered account an admin, "manual" never does.
//   - InitialInviteCode: created at startup when no invite exists; empty disables it.
//   - LoginRateLimit: credential POSTs allowed per minute per client IP.
//   - ChatHistorySize: messages shown on the chat page.
type Config struct {
	HTTPAddr          string
	DatabaseDSN       string
	SecretKey         string
	SessionDuration   time.Duration
	UploadDir         string
	StorageBackend    string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	LogFile           string
	LogFormat         string
	Debug             bool
	AdminBootstrap    string
	InitialInviteCode string
	LoginRateLimit    int
	ChatHistorySize   int
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.DatabaseDSN = "sqlite:///clubhouse.db"
	c.SecretKey = "dev-secret-key"
	c.SessionDuration = 7 * 24 * time.Hour
	c.UploadDir = "uploads"
	c.StorageBackend = StorageLocal
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "clubhouse"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogFormat = "json"
	c.AdminBootstrap = BootstrapFirstUser
	c.InitialInviteCode = "WELCOME123"
	c.LoginRateLimit = 10
	c.ChatHistorySize = 50
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
