package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/flagx"
	"github.com/dmitrijs2005/clubhouse/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30m" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from the zero value so a partial file
// only overrides what it names.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	DatabaseDSN       *string         `json:"database_dsn"`
	SecretKey         *string         `json:"secret_key"`
	SessionDuration   *timex.Duration `json:"session_duration"`
	UploadDir         *string         `json:"upload_dir"`
	StorageBackend    *string         `json:"storage_backend"`
	S3RootUser        *string         `json:"s3_root_user"`
	S3RootPassword    *string         `json:"s3_root_password"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	LogFile           *string         `json:"log_file"`
	LogFormat         *string         `json:"log_format"`
	Debug             *bool           `json:"debug"`
	AdminBootstrap    *string         `json:"admin_bootstrap"`
	InitialInviteCode *string         `json:"initial_invite_code"`
	LoginRateLimit    *int            `json:"login_rate_limit"`
	ChatHistorySize   *int            `json:"chat_history_size"`
}

// parseJson loads configuration values from the JSON file named by the
// -c / -config flag into the provided Config. Without the flag nothing is
// loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	if c.SessionDuration != nil {
		config.SessionDuration = time.Duration(c.SessionDuration.Duration)
	}
	set(&config.UploadDir, c.UploadDir)
	set(&config.StorageBackend, c.StorageBackend)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.LogFile, c.LogFile)
	set(&config.LogFormat, c.LogFormat)
	set(&config.Debug, c.Debug)
	set(&config.AdminBootstrap, c.AdminBootstrap)
	set(&config.InitialInviteCode, c.InitialInviteCode)
	set(&config.LoginRateLimit, c.LoginRateLimit)
	set(&config.ChatHistorySize, c.ChatHistorySize)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
