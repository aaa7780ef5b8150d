package testutil

import (
	"context"
	"testing"

	"huddle/internal/models"
	"huddle/internal/repository"

	"github.com/stretchr/testify/require"
)

// CreateUser stores a user named username and returns it.
func CreateUser(t *testing.T, users repository.UserRepository, username string, isAdmin bool) *models.User {
	t.Helper()
	u := &models.User{
		ID:           models.NewID(),
		Username:     username,
		Email:        username + "@example.com",
		Password:     "hashed",
		FullName:     username + " Example",
		ProfileImage: "/uploads/profiles/" + username + ".webp",
		IsAdmin:      isAdmin,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

// CreatePost stores a post by author and returns it.
func CreatePost(t *testing.T, posts repository.PostRepository, author string, privacy models.Privacy, content string) *models.Post {
	t.Helper()
	p := models.NewPost(author, privacy, content, "")
	require.NoError(t, posts.Create(context.Background(), p))
	return p
}
