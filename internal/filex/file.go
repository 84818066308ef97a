// Package filex holds filesystem helpers: upload name sanitizing and
// directory setup.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename turns an arbitrary client-supplied name into a plain ASCII
// file name with no directory components. Non-ASCII letters are
// transliterated, whitespace becomes "_", everything else outside
// [A-Za-z0-9_.-] is dropped. It returns "file" when nothing survives.
func SecureFilename(name string) string {
	s := unidecode.Unidecode(name)
	s = strings.NewReplacer("/", " ", "\\", " ").Replace(s)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "._")
	if s == "" {
		return "file"
	}
	return s
}

// StorageName is the unique on-disk name for an upload: the unix timestamp
// of at, an underscore, and the sanitized original name.
func StorageName(at time.Time, original string) string {
	return fmt.Sprintf("%d_%s", at.Unix(), SecureFilename(original))
}

// EnsureSubdDir creates dirName under the working directory (or uses it as
// is when absolute) and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
