// Package users manages platform profiles.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/domain/user"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/pkg/logger"
)

// Service manages user profiles.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a users service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// UpsertByWallet returns the profile for wallet, creating one with a
// generated username on first login.
func (s *Service) UpsertByWallet(ctx context.Context, wallet string) (user.User, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return user.User{}, apierrors.BadRequest("wallet is required")
	}

	existing, err := s.store.GetUserByWallet(ctx, wallet)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, fmt.Errorf("lookup wallet: %w", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Wallet:   wallet,
		Username: generatedUsername(),
	})
	if err != nil {
		// Two first logins racing on the same wallet: the loser re-reads.
		if errors.Is(err, storage.ErrConflict) {
			return s.store.GetUserByWallet(ctx, wallet)
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.WithContext(ctx).WithField("user_id", created.ID).Info("user created")
	return created, nil
}

// GetByID loads a profile by ID.
func (s *Service) GetByID(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apierrors.NotFound("user not found")
		}
		return user.User{}, err
	}
	return u, nil
}

// GetByUsername loads a profile by handle.
func (s *Service) GetByUsername(ctx context.Context, username string) (user.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apierrors.NotFound("user not found")
		}
		return user.User{}, err
	}
	return u, nil
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username    *string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// UpdateProfile applies upd to the caller's own profile. A taken username
// surfaces as a conflict.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (user.User, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if upd.Username != nil {
		u.Username = strings.ToLower(strings.TrimSpace(*upd.Username))
		if u.Username == "" {
			return user.User{}, apierrors.BadRequest("username must not be empty")
		}
	}
	if upd.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Bio != nil {
		u.Bio = strings.TrimSpace(*upd.Bio)
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*upd.AvatarURL)
	}

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return user.User{}, apierrors.Conflict("username is already taken")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apierrors.NotFound("user not found")
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func generatedUsername() string {
	return "user_" + strings.Split(uuid.NewString(), "-")[0]
}
