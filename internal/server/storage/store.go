// Package storage keeps uploaded file contents. Names are opaque, flat keys
// produced by filex.StorageName; stores reject anything that looks like a path.
package storage

//go:generate mockgen -destination=mock_store.go -package=storage . Store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/clubhouse/internal/common"
)

// Store saves, streams and deletes blobs by name.
type Store interface {
	// Save writes r under name and returns the number of bytes stored. An
	// existing name yields common.ErrorConflict before r is read.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open streams the blob. A missing blob yields common.ErrorNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the blob. A missing blob yields common.ErrorNotFound.
	Delete(ctx context.Context, name string) error
}

var errBadName = errors.New("invalid storage name")

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Base(name) != name {
		return fmt.Errorf("%w: %w %q", common.ErrorValidation, errBadName, name)
	}
	return nil
}
