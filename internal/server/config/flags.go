package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-f", "-k", "-u", "-p", "-b", "-g", "-e", "-l", "-m"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   database DSN
//	-s string   session signing key
//	-t int      session validity, minutes
//	-f string   upload directory for the local store
//	-k string   storage backend: local | s3
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log file (rotated)
//	-m string   admin bootstrap: first-user | manual
//
// os.Args is filtered to the flags above with flagx.FilterArgs so that
// subcommand flags of other binaries do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionDuration := fs.Int("t", int(config.SessionDuration.Minutes()), "session validity (in minutes)")

	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogFile, "l", config.LogFile, "log file")
	fs.StringVar(&config.AdminBootstrap, "m", config.AdminBootstrap, "admin bootstrap (first-user|manual)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionDuration = time.Duration(*sessionDuration) * time.Minute
}
