// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Privacy controls who can see a post.
type Privacy string

// Supported privacy levels.
const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

// Valid reports whether p is one of the supported privacy levels.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyFriends, PrivacyPrivate:
		return true
	default:
		return false
	}
}

// Post is the post aggregate. Likes and Comments are owned by the post and
// are removed with it.
type Post struct {
	ID        string    `gorm:"primaryKey;size:24" json:"_id"`
	UserID    string    `gorm:"size:24;not null;index" json:"userId"`
	Privacy   Privacy   `gorm:"size:16;not null;default:public" json:"privacy"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Image     string    `json:"image,omitempty"`
	Likes     []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"likes"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// NewPost builds an unsaved post with empty like and comment lists.
// An empty privacy falls back to public.
func NewPost(userID string, privacy Privacy, content, image string) *Post {
	if privacy == "" {
		privacy = PrivacyPublic
	}
	return &Post{
		ID:        NewID(),
		UserID:    userID,
		Privacy:   privacy,
		Content:   content,
		Image:     image,
		Likes:     []Like{},
		Comments:  []Comment{},
		CreatedAt: time.Now().UTC(),
	}
}

// HasLike reports whether userID currently likes the post.
func (p *Post) HasLike(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether the post may be shown to userID.
// Friends-only posts are treated like private posts.
func (p *Post) VisibleTo(userID string, isAdmin bool) bool {
	if p.Privacy == PrivacyPublic || p.Privacy == "" {
		return true
	}
	return isAdmin || p.UserID == userID
}

// Like is a single user's like on a post.
type Like struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	PostID string `gorm:"size:24;not null;uniqueIndex:idx_post_likes_post_user" json:"-"`
	UserID string `gorm:"size:24;not null;uniqueIndex:idx_post_likes_post_user" json:"userId"`
}

// TableName overrides the default table name.
func (Like) TableName() string { return "post_likes" }

// Comment is an append-only comment on a post. The auto-increment ID gives
// the append order.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    string    `gorm:"size:24;not null;index" json:"-"`
	UserID    string    `gorm:"size:24;not null" json:"userId"`
	RepliedTo *string   `gorm:"size:24" json:"repliedTo,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName overrides the default table name.
func (Comment) TableName() string { return "post_comments" }
