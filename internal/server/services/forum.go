package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
)

const maxThreadTitleLen = 200

// CategoryView is a category page: the category and its threads.
type CategoryView struct {
	Category *models.Category
	Threads  []*models.ThreadSummary
}

// ThreadView is a thread page. The first post is the opening message.
type ThreadView struct {
	Category *models.Category
	Thread   *models.ThreadSummary
	Posts    []*models.PostView
}

type ForumService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewForumService(db *sql.DB, m repomanager.RepositoryManager) *ForumService {
	return &ForumService{db: db, repomanager: m, now: time.Now}
}

func (s *ForumService) Categories(ctx context.Context) ([]*models.Category, error) {
	list, err := s.repomanager.Forum(s.db).ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return list, nil
}

// Category returns a category with its threads, or common.ErrorNotFound.
func (s *ForumService) Category(ctx context.Context, categoryID int64) (*CategoryView, error) {
	repo := s.repomanager.Forum(s.db)

	cat, err := repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("error loading category %d: %w", categoryID, err)
	}
	threads, err := repo.ListThreads(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("error listing threads: %w", err)
	}
	return &CategoryView{Category: cat, Threads: threads}, nil
}

// CreateThread opens a thread in categoryID. The thread row and its opening
// post are written in one transaction.
func (s *ForumService) CreateThread(ctx context.Context, id auth.Identity, categoryID int64, title, content string) (*models.Thread, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if len([]rune(title)) > maxThreadTitleLen {
		return nil, fmt.Errorf("%w: title longer than %d characters", common.ErrorValidation, maxThreadTitleLen)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", common.ErrorValidation)
	}

	now := s.now().UTC()

	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Thread, error) {
		repo := s.repomanager.Forum(tx)

		if _, err := repo.GetCategory(ctx, categoryID); err != nil {
			return nil, fmt.Errorf("error loading category %d: %w", categoryID, err)
		}

		thread, err := repo.CreateThread(ctx, &models.Thread{
			Title:      title,
			CategoryID: categoryID,
			UserID:     id.UserID,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating thread: %w", err)
		}

		_, err = repo.CreatePost(ctx, &models.Post{
			Content:   content,
			ThreadID:  thread.ID,
			UserID:    id.UserID,
			CreatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating post: %w", err)
		}
		return thread, nil
	})
}

// Thread returns a thread with its posts, oldest first.
func (s *ForumService) Thread(ctx context.Context, threadID int64) (*ThreadView, error) {
	repo := s.repomanager.Forum(s.db)

	thread, err := repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("error loading thread %d: %w", threadID, err)
	}
	cat, err := repo.GetCategory(ctx, thread.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("error loading category %d: %w", thread.CategoryID, err)
	}
	posts, err := repo.ListPosts(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return &ThreadView{Category: cat, Thread: thread, Posts: posts}, nil
}

// Reply appends a post to threadID.
func (s *ForumService) Reply(ctx context.Context, id auth.Identity, threadID int64, content string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", common.ErrorValidation)
	}

	repo := s.repomanager.Forum(s.db)
	if _, err := repo.GetThread(ctx, threadID); err != nil {
		return nil, fmt.Errorf("error loading thread %d: %w", threadID, err)
	}

	post, err := repo.CreatePost(ctx, &models.Post{
		Content:   content,
		ThreadID:  threadID,
		UserID:    id.UserID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return post, nil
}
