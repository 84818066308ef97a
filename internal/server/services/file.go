package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/filex"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clubhouse/internal/server/storage"
	"github.com/google/uuid"
)

// FileService keeps the file registry and its blobs in step.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.Store
	logger      logging.Logger
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store storage.Store, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger,
		now:         time.Now,
	}
}

// Upload stores r under a sanitized, timestamp-prefixed name and registers
// it. If the row cannot be inserted the blob is removed again.
func (s *FileService) Upload(ctx context.Context, id auth.Identity, originalName string, r io.Reader) (*models.File, error) {
	if strings.TrimSpace(originalName) == "" {
		return nil, fmt.Errorf("%w: no selected file", common.ErrorValidation)
	}

	now := s.now().UTC()
	name := filex.StorageName(now, originalName)

	size, err := s.store.Save(ctx, name, r)
	if errors.Is(err, common.ErrorConflict) {
		// Same name uploaded within the same second.
		name = fmt.Sprintf("%d_%s_%s", now.Unix(), uuid.NewString()[:8], filex.SecureFilename(originalName))
		size, err = s.store.Save(ctx, name, r)
	}
	if err != nil {
		return nil, fmt.Errorf("error saving blob: %w", err)
	}

	file, err := s.repomanager.Files(s.db).Create(ctx, &models.File{
		Filename:     name,
		OriginalName: originalName,
		Size:         size,
		UserID:       id.UserID,
		Username:     id.Username,
		UploadedAt:   now,
	})
	if err != nil {
		if derr := s.store.Delete(ctx, name); derr != nil {
			s.logger.Warn(ctx, "orphaned blob", "name", name, "error", derr)
		}
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	return file, nil
}

// Open returns the registry row and a reader over the blob. The caller
// closes the reader.
func (s *FileService) Open(ctx context.Context, fileID int64) (*models.File, io.ReadCloser, error) {
	file, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading file %d: %w", fileID, err)
	}
	rc, err := s.store.Open(ctx, file.Filename)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening blob: %w", err)
	}
	return file, rc, nil
}

// Delete removes a file owned by id (or any file, for admins). Blob removal
// is best effort: a missing or undeletable blob does not keep the row.
func (s *FileService) Delete(ctx context.Context, id auth.Identity, fileID int64) error {
	repo := s.repomanager.Files(s.db)

	file, err := repo.Get(ctx, fileID)
	if err != nil {
		return fmt.Errorf("error loading file %d: %w", fileID, err)
	}
	if !id.CanModify(file.UserID, true) {
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("error deleting file %d: %w", fileID, err)
	}

	if err := s.store.Delete(ctx, file.Filename); err != nil {
		s.logger.Warn(ctx, "blob delete failed", "file_id", fileID, "name", file.Filename, "error", err)
	}
	return nil
}

// List returns every file, newest first.
func (s *FileService) List(ctx context.Context) ([]*models.File, error) {
	list, err := s.repomanager.Files(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return list, nil
}
