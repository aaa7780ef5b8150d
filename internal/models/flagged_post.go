package models

import (
	"time"

	"gorm.io/gorm"
)

// FlaggedPost is a user's report against a post. PostID is a weak reference:
// deleting the post leaves the flag in place.
type FlaggedPost struct {
	ID          string    `gorm:"primaryKey;size:24" json:"_id"`
	PostID      string    `gorm:"size:24;not null;index" json:"postId"`
	FlaggedBy   string    `gorm:"size:24;not null;index" json:"flaggedBy"`
	Subject     string    `gorm:"not null" json:"subject"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName overrides the default table name.
func (FlaggedPost) TableName() string { return "flagged_posts" }

// BeforeCreate assigns an identifier when the caller did not.
func (f *FlaggedPost) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	return nil
}
