// Package flagx contains helpers that let several independent flag sets
// share one command line: the config loader, the server flags and the
// clubctl subcommands each parse only the flags they own.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their
// values. Both "-c conf.json" and "--config=conf.json" forms are kept; a
// following token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath extracts the JSON config path given via -c or -config. It
// returns an empty string when neither flag is present; the last occurrence
// wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

// Subcommand splits "prog <cmd> [flags...]" style arguments. Leading flags
// (such as -c conf.json) are skipped so they can be consumed by ConfigPath.
func Subcommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		return a, args[i+1:]
	}
	return "", nil
}
