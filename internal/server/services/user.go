// Package services contains server-side business logic. This file implements
// UserService, which handles invite-gated registration, login, and issuing
// and resolving server-stored sessions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/cryptox"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/users"
	"github.com/google/uuid"
)

const maxUsernameLen = 150

// UserService provides authentication-related operations:
// - Register: consume an invite and create a user
// - Login / Logout: open and revoke sessions
// - Resolve: map a session cookie back to an Identity
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	jwtSecret       []byte
	sessionDuration time.Duration
	bootstrap       string
	now             func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionDuration: cfg.SessionDuration,
		bootstrap:       cfg.AdminBootstrap,
		now:             time.Now,
	}
}

// Register creates a user, consuming invite in the same transaction. With
// the first-user bootstrap policy the very first account becomes admin.
// Failure modes: common.ErrInviteInvalid, common.ErrUsernameTaken,
// common.ErrorValidation.
func (s *UserService) Register(ctx context.Context, invite, username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if invite == "" {
		return nil, common.ErrInviteInvalid
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		inviteRepo := s.repomanager.Invites(tx)
		userRepo := s.repomanager.Users(tx)

		code, err := inviteRepo.GetByCode(ctx, invite)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrInviteInvalid
			}
			return nil, fmt.Errorf("error searching invite: %w", err)
		}
		if code.Used {
			return nil, common.ErrInviteInvalid
		}

		if err := ensureUsernameFree(ctx, userRepo, username); err != nil {
			return nil, err
		}

		user, err := userRepo.Create(ctx, &models.User{Username: username, PasswordHash: hash, CreatedAt: now})
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}

		// Consume is the real guard: a concurrent registration that passed
		// the check above loses here and rolls back its user row.
		if err := inviteRepo.Consume(ctx, invite, user.ID, now); err != nil {
			return nil, err
		}

		if s.bootstrap == config.BootstrapFirstUser {
			if err := s.claimBootstrap(ctx, userRepo, user, now); err != nil {
				return nil, err
			}
		}

		return user, nil
	})
}

// claimBootstrap promotes user when it is the only account and nobody has
// claimed the bootstrap slot yet.
func (s *UserService) claimBootstrap(ctx context.Context, repo users.Repository, user *models.User, at time.Time) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting users: %w", err)
	}
	if n != 1 {
		return nil
	}

	ok, err := repo.ClaimBootstrap(ctx, user.ID, at)
	if err != nil {
		return fmt.Errorf("error claiming bootstrap: %w", err)
	}
	if !ok {
		return nil
	}

	if err := repo.SetAdmin(ctx, user.ID, true); err != nil {
		return fmt.Errorf("error promoting user: %w", err)
	}
	user.IsAdmin = true
	return nil
}

// Login verifies the password and opens a session. Unknown usernames and
// wrong passwords both yield common.ErrInvalidCredentials after the same
// amount of hashing work.
func (s *UserService) Login(ctx context.Context, username, password, userAgent, ip string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnPasswordCheck(password)
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error searching user: %w", err)
	}

	if err := cryptox.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.StartSession(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// StartSession persists a new session for userID and returns the signed
// cookie value.
func (s *UserService) StartSession(ctx context.Context, userID int64, userAgent, ip string) (string, error) {
	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionDuration),
		CreatedAt: now,
		UserAgent: truncate(userAgent, 255),
		IPAddress: truncate(ip, 64),
	}

	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	token, err := auth.GenerateToken(session.ID, userID, s.jwtSecret, s.sessionDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout revokes the session behind token. Tokens that no longer verify
// have nothing left to revoke.
func (s *UserService) Logout(ctx context.Context, token string) error {
	sessionID, _, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// Resolve maps a session cookie value to the identity it belongs to.
// Revoked sessions yield common.ErrorUnauthorized, expired ones
// common.ErrSessionExpired.
func (s *UserService) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	sessionID, userID, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return auth.Identity{}, err
	}

	sessionRepo := s.repomanager.Sessions(s.db)
	session, err := sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.Identity{}, common.ErrorUnauthorized
		}
		return auth.Identity{}, fmt.Errorf("error searching session: %w", err)
	}
	if session.UserID != userID {
		return auth.Identity{}, common.ErrInvalidToken
	}
	if session.Expired(s.now()) {
		_ = sessionRepo.Delete(ctx, sessionID)
		return auth.Identity{}, common.ErrSessionExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.Identity{}, common.ErrorUnauthorized
		}
		return auth.Identity{}, fmt.Errorf("error searching user: %w", err)
	}

	return auth.Identity{
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		SessionID: session.ID,
	}, nil
}

// Promote grants the admin flag to an existing user.
func (s *UserService) Promote(ctx context.Context, username string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("error searching user %q: %w", username, err)
	}
	if err := repo.SetAdmin(ctx, user.ID, true); err != nil {
		return fmt.Errorf("error promoting user: %w", err)
	}
	return nil
}

// CreateAdmin creates an administrator without an invite. It also takes the
// bootstrap slot, so a later first registration is not promoted.
func (s *UserService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		if err := ensureUsernameFree(ctx, repo, username); err != nil {
			return nil, err
		}

		user, err := repo.Create(ctx, &models.User{Username: username, PasswordHash: hash, IsAdmin: true, CreatedAt: now})
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}

		if _, err := repo.ClaimBootstrap(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("error claiming bootstrap: %w", err)
		}
		return user, nil
	})
}

// --- helpers below ---

func ensureUsernameFree(ctx context.Context, repo users.Repository, username string) error {
	_, err := repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return common.ErrUsernameTaken
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return fmt.Errorf("error searching user: %w", err)
	}
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return fmt.Errorf("%w: username longer than %d characters", common.ErrorValidation, maxUsernameLen)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
