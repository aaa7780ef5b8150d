// Package dto holds the response projections built from stored entities.
// Every constructor is a pure function; user references are resolved
// through a Users lookup built by the caller.
package dto

import (
	"time"

	"huddle/internal/models"
)

// Users maps user IDs to loaded records. Missing entries are dangling
// references.
type Users map[string]*models.User

// NewUsers indexes a slice of users by ID.
func NewUsers(list []*models.User) Users {
	m := make(Users, len(list))
	for _, u := range list {
		if u != nil {
			m[u.ID] = u
		}
	}
	return m
}

// Summary resolves id to its public profile projection. A dangling reference
// yields a projection whose fields are all empty.
func (u Users) Summary(id string) UserSummary {
	return NewUserSummary(u[id])
}

// UserSummary is the public profile projection embedded in post payloads.
type UserSummary struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	ProfileImage string `json:"profileImage"`
}

// NewUserSummary projects u. A nil user gives the empty projection.
func NewUserSummary(u *models.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
	}
}

// UserProfile is the full-fetch projection returned by user lookups. It
// never carries the password hash.
type UserProfile struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	ProfileImage string    `json:"profileImage"`
	CoverImage   string    `json:"coverImage"`
	Bio          string    `json:"bio"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUserProfile projects u for a full user fetch.
func NewUserProfile(u *models.User) UserProfile {
	if u == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
		CoverImage:   u.CoverImage,
		Bio:          u.Bio,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

// LikeView is a like with its author resolved.
type LikeView struct {
	UserID UserSummary `json:"userId"`
}

// CommentView is a comment with its author and replied-to user resolved.
type CommentView struct {
	UserID    UserSummary  `json:"userId"`
	RepliedTo *UserSummary `json:"repliedTo"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
}

// PostView is the populated post returned by every post operation.
type PostView struct {
	ID        string        `json:"_id"`
	UserID    UserSummary   `json:"userId"`
	Privacy   string        `json:"privacy"`
	Content   string        `json:"content"`
	Image     string        `json:"image"`
	Likes     []LikeView    `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewPostView projects p, resolving every user reference through users.
func NewPostView(p *models.Post, users Users) PostView {
	view := PostView{
		ID:        p.ID,
		UserID:    users.Summary(p.UserID),
		Privacy:   string(p.Privacy),
		Content:   p.Content,
		Image:     p.Image,
		Likes:     make([]LikeView, 0, len(p.Likes)),
		Comments:  make([]CommentView, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
	}
	for _, l := range p.Likes {
		view.Likes = append(view.Likes, LikeView{UserID: users.Summary(l.UserID)})
	}
	for _, c := range p.Comments {
		cv := CommentView{
			UserID:    users.Summary(c.UserID),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		}
		if c.RepliedTo != nil && *c.RepliedTo != "" {
			replied := users.Summary(*c.RepliedTo)
			cv.RepliedTo = &replied
		}
		view.Comments = append(view.Comments, cv)
	}
	return view
}

// PostSummary is the reduced post shape embedded in flagged-post payloads.
type PostSummary struct {
	ID        string      `json:"_id"`
	UserID    UserSummary `json:"userId"`
	Content   string      `json:"content"`
	Privacy   string      `json:"privacy"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewPostSummary projects p. A nil post gives nil.
func NewPostSummary(p *models.Post, users Users) *PostSummary {
	if p == nil {
		return nil
	}
	return &PostSummary{
		ID:        p.ID,
		UserID:    users.Summary(p.UserID),
		Content:   p.Content,
		Privacy:   string(p.Privacy),
		CreatedAt: p.CreatedAt,
	}
}

// FlaggedPostView is a flag with its post and reporter resolved. PostID is
// null once the flagged post has been deleted.
type FlaggedPostView struct {
	ID          string       `json:"_id"`
	PostID      *PostSummary `json:"postId"`
	FlaggedBy   UserSummary  `json:"flaggedBy"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// NewFlaggedPostView projects f. posts holds the flagged posts that still exist.
func NewFlaggedPostView(f *models.FlaggedPost, posts map[string]*models.Post, users Users) FlaggedPostView {
	return FlaggedPostView{
		ID:          f.ID,
		PostID:      NewPostSummary(posts[f.PostID], users),
		FlaggedBy:   users.Summary(f.FlaggedBy),
		Subject:     f.Subject,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
	}
}
