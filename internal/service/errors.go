// Package service implements the post interaction rules on top of the
// repositories and shapes every result through the dto projections.
package service

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/repository"
)

// Messages shared by the services and the HTTP layer.
const (
	MsgInvalidID      = "Invalid ObjectId"
	MsgMissingField   = "Missing required field"
	MsgUnauthorized   = "Unauthorized"
	MsgInvalidPrivacy = "Invalid privacy value"
	MsgNoPosts        = "No posts found"
	MsgNoFlaggedPosts = "No flagged posts found"
	MsgNotPostOwner   = "You can only modify your own posts"
)

// AdminChecker reports whether userID has admin rights.
type AdminChecker func(ctx context.Context, userID string) (bool, error)

func notFound(message string) *models.AppError {
	return &models.AppError{Code: models.CodeNotFound, Message: message}
}

// storeError turns a repository error into an AppError. ErrNotFound becomes
// the error returned by missing; anything unexpected is internal.
func storeError(err error, missing func() *models.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) && missing != nil {
		return missing()
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

func postNotFound(id string) func() *models.AppError {
	return func() *models.AppError { return models.NewNotFoundError("Post", id) }
}

// resolveActor picks the user a mutation acts as. claimed defaults to the
// authenticated actor; acting as someone else requires admin rights.
func resolveActor(ctx context.Context, isAdmin AdminChecker, actorID, claimed string) (string, error) {
	if actorID == "" {
		return "", models.NewUnauthorizedError(MsgUnauthorized)
	}
	if claimed == "" || claimed == actorID {
		return actorID, nil
	}
	if !models.IsValidID(claimed) {
		return "", models.NewValidationError(MsgInvalidID)
	}
	admin, err := checkAdmin(ctx, isAdmin, actorID)
	if err != nil {
		return "", err
	}
	if !admin {
		return "", models.NewUnauthorizedError(MsgUnauthorized)
	}
	return claimed, nil
}

func checkAdmin(ctx context.Context, isAdmin AdminChecker, userID string) (bool, error) {
	if isAdmin == nil || userID == "" {
		return false, nil
	}
	admin, err := isAdmin(ctx, userID)
	if err != nil {
		return false, storeError(err, nil)
	}
	return admin, nil
}
