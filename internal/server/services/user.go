// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, profile updates and
// issuing/refreshing JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/dbx"
	"github.com/dmitrijs2005/recipeapi/internal/server/auth"
	"github.com/dmitrijs2005/recipeapi/internal/server/config"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserCache is a read-through cache of users keyed by id. Implementations
// report failures themselves; a failed Get is a miss.
type UserCache interface {
	Get(ctx context.Context, id int64) (*models.User, bool)
	Set(ctx context.Context, user *models.User)
	Delete(ctx context.Context, id int64)
}

type noCache struct{}

func (noCache) Get(context.Context, int64) (*models.User, bool) { return nil, false }
func (noCache) Set(context.Context, *models.User)               {}
func (noCache) Delete(context.Context, int64)                   {}

// ProfileUpdate carries the changeable profile fields. Nil fields are kept.
type ProfileUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

// UserService provides account operations:
// - CreateUser / CreateSuperuser: register accounts
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - GetByID / UpdateProfile: the authenticated user's own record
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	cache                        UserCache
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
// A nil cache disables caching.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, cache UserCache) *UserService {
	if cache == nil {
		cache = noCache{}
	}
	return &UserService{
		db:                           db,
		repomanager:                  m,
		cache:                        cache,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// CreateUser registers a regular, active user. The email is normalized to
// lower case; an empty email is a validation error.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.create(ctx, &models.User{Email: email, Name: name, IsActive: true}, password)
}

// CreateSuperuser registers an active user with staff and superuser rights.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.create(ctx, &models.User{Email: email, IsActive: true, IsStaff: true, IsSuperuser: true}, password)
}

func (s *UserService) create(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Email = models.NormalizeEmail(user.Email)
	if user.Email == "" {
		return nil, common.NewValidationError("email", "Users must have an email address.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user.PasswordHash = hash

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies email and password and, on success, returns a new TokenPair.
// Unknown users, wrong or empty passwords and inactive accounts all yield
// common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if password == "" {
		return nil, common.ErrInvalidCredentials
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w: %w", common.ErrorInternal, err)
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Unknown tokens yield ErrInvalidToken and expired
// ones ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// GetByID returns the user, consulting the cache first.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := s.cache.Get(ctx, id); ok {
		return u, nil
	}

	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, u)
	return u, nil
}

// UpdateProfile applies upd to the user's record and drops the cached copy.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		user.Email = models.NormalizeEmail(*upd.Email)
		if user.Email == "" {
			return nil, common.NewValidationError("email", "This field may not be blank.")
		}
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	s.cache.Delete(ctx, id)
	return user, nil
}

// PurgeExpiredTokens deletes refresh tokens that are already past expiry.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, time.Now())
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w: %w", common.ErrorInternal, err)
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w: %w", common.ErrorInternal, err)
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w: %w", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
