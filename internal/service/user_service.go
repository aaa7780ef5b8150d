package service

import (
	"context"
	"errors"
	"log/slog"

	"huddle/internal/cache"
	"huddle/internal/dto"
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/repository"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) getUser(ctx context.Context, id string) (*models.User, error) {
	return cache.Fetch(ctx, cache.UserKey(id), cache.UserTTL, func(ctx context.Context) (*models.User, error) {
		return s.users.GetByID(ctx, id)
	})
}

// GetProfile returns the full-fetch projection of a user.
func (s *UserService) GetProfile(ctx context.Context, id string) (*dto.UserProfile, error) {
	if !models.IsValidID(id) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, storeError(err, func() *models.AppError { return models.NewNotFoundError("User", id) })
	}
	profile := dto.NewUserProfile(user)
	return &profile, nil
}

// IsAdmin reports whether id belongs to an admin. Unknown users are not
// admins.
func (s *UserService) IsAdmin(ctx context.Context, id string) (bool, error) {
	if !models.IsValidID(id) {
		return false, nil
	}
	user, err := s.getUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *UserService) Promote(ctx context.Context, id string) (*models.User, error) {
	return s.setAdmin(ctx, id, true)
}

func (s *UserService) Demote(ctx context.Context, id string) (*models.User, error) {
	return s.setAdmin(ctx, id, false)
}

func (s *UserService) setAdmin(ctx context.Context, id string, isAdmin bool) (*models.User, error) {
	if !models.IsValidID(id) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	missing := func() *models.AppError { return models.NewNotFoundError("User", id) }
	if err := s.users.SetAdmin(ctx, id, isAdmin); err != nil {
		return nil, storeError(err, missing)
	}
	cache.InvalidateUser(ctx, id)
	middleware.Logger.InfoContext(ctx, "admin flag updated",
		slog.String("user_id", id), slog.Bool("is_admin", isAdmin))

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, missing)
	}
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]*models.User, error) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}
