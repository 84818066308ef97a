package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/spf13/afero"
)

// LocalStore keeps blobs as files in one directory of an afero filesystem
// (the OS filesystem in production, a memory filesystem in tests).
type LocalStore struct {
	fs  afero.Fs
	dir string
}

// NewLocalStore creates dir on fs if needed.
func NewLocalStore(fs afero.Fs, dir string) (*LocalStore, error) {
	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &LocalStore{fs: fs, dir: dir}, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	f, err := s.fs.OpenFile(s.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%w: %s already stored", common.ErrorConflict, name)
		}
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(s.path(name))
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	return n, nil
}

func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
