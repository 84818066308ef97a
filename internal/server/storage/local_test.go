package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*LocalStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewLocalStore(fs, "/uploads")
	require.NoError(t, err)
	return s, fs
}

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	s, fs := newLocal(t)
	ctx := context.Background()

	n, err := s.Save(ctx, "1_notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	ok, err := afero.Exists(fs, "/uploads/1_notes.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "1_notes.txt")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Delete(ctx, "1_notes.txt"))
	assert.ErrorIs(t, s.Delete(ctx, "1_notes.txt"), common.ErrorNotFound)

	_, err = s.Open(ctx, "1_notes.txt")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLocalStore_NoOverwrite(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "a", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = s.Save(ctx, "a", strings.NewReader("two"))
	assert.ErrorIs(t, err, common.ErrorConflict)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocalStore_SaveFailureLeavesNothing(t *testing.T) {
	s, fs := newLocal(t)

	_, err := s.Save(context.Background(), "partial", failingReader{})
	require.Error(t, err)

	ok, _ := afero.Exists(fs, "/uploads/partial")
	assert.False(t, ok)
}

func TestLocalStore_RejectsPaths(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`} {
		_, err := s.Save(ctx, name, strings.NewReader("x"))
		assert.ErrorIs(t, err, common.ErrorValidation, name)
		_, err = s.Open(ctx, name)
		assert.ErrorIs(t, err, common.ErrorValidation, name)
		assert.ErrorIs(t, s.Delete(ctx, name), common.ErrorValidation, name)
	}
}
