package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	origLookup := lookupEnv
	t.Cleanup(func() { lookupEnv = origLookup })

	tests := []struct {
		name     string
		env      map[string]string
		addr     string
		wantAddr string
		wantKey  string
		wantDSN  string
	}{
		{
			name:     "empty environment keeps values",
			env:      map[string]string{},
			addr:     ":5000",
			wantAddr: ":5000",
			wantKey:  "k",
			wantDSN:  "d",
		},
		{
			name:     "all set",
			env:      map[string]string{"SECRET_KEY": "s3cr3t", "DATABASE_URL": "sqlite:///x.db", "PORT": "9000"},
			addr:     ":5000",
			wantAddr: ":9000",
			wantKey:  "s3cr3t",
			wantDSN:  "sqlite:///x.db",
		},
		{
			name:     "port keeps host",
			env:      map[string]string{"PORT": "81"},
			addr:     "0.0.0.0:80",
			wantAddr: "0.0.0.0:81",
			wantKey:  "k",
			wantDSN:  "d",
		},
		{
			name:     "blank values ignored",
			env:      map[string]string{"SECRET_KEY": "", "PORT": ""},
			addr:     ":5000",
			wantAddr: ":5000",
			wantKey:  "k",
			wantDSN:  "d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookupEnv = func(k string) (string, bool) { v, ok := tt.env[k]; return v, ok }
			c := &Config{HTTPAddr: tt.addr, SecretKey: "k", DatabaseDSN: "d"}
			parseEnv(c)
			assert.Equal(t, tt.wantAddr, c.HTTPAddr)
			assert.Equal(t, tt.wantKey, c.SecretKey)
			assert.Equal(t, tt.wantDSN, c.DatabaseDSN)
		})
	}
}
