package config

import (
	"os"
	"strings"
)

var lookupEnv = os.LookupEnv

// parseEnv applies the deployment variables SECRET_KEY, DATABASE_URL and PORT.
func parseEnv(config *Config) {
	if v, ok := lookupEnv("SECRET_KEY"); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := lookupEnv("DATABASE_URL"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookupEnv("PORT"); ok && v != "" {
		host := ""
		if i := strings.LastIndex(config.HTTPAddr, ":"); i > 0 {
			host = config.HTTPAddr[:i]
		}
		config.HTTPAddr = host + ":" + v
	}
}
