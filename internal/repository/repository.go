// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"huddle/internal/models"
)

// ErrNotFound is returned when no stored record matches the request.
var ErrNotFound = errors.New("record not found")

// ContentUpdate carries the optional fields of a content update. Empty
// values are left untouched.
type ContentUpdate struct {
	Content string
	Image   string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	UpdateContent(ctx context.Context, id string, update ContentUpdate) error
	UpdatePrivacy(ctx context.Context, id string, privacy models.Privacy) error
	// AddLike adds userID to the post's likes unless it is already there.
	AddLike(ctx context.Context, postID, userID string) error
	// RemoveLike removes userID's like if present.
	RemoveLike(ctx context.Context, postID, userID string) error
	AppendComment(ctx context.Context, postID string, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
}

// FlaggedPostRepository defines the interface for flagged post data operations
type FlaggedPostRepository interface {
	Create(ctx context.Context, flag *models.FlaggedPost) error
	List(ctx context.Context) ([]*models.FlaggedPost, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

// Store bundles the repositories of one backing database.
type Store struct {
	Posts        PostRepository
	FlaggedPosts FlaggedPostRepository
	Users        UserRepository

	ping  func(context.Context) error
	close func(context.Context) error
}

// NewStore assembles a Store. ping and closeFn may be nil.
func NewStore(posts PostRepository, flagged FlaggedPostRepository, users UserRepository,
	ping, closeFn func(context.Context) error) *Store {
	return &Store{
		Posts:        posts,
		FlaggedPosts: flagged,
		Users:        users,
		ping:         ping,
		close:        closeFn,
	}
}

// Ping checks that the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backing database connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
