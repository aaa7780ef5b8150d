package repository

import (
	"context"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
)

type flaggedPostRepository struct {
	db *gorm.DB
}

// NewFlaggedPostRepository creates a new flagged post repository
func NewFlaggedPostRepository(db *gorm.DB) FlaggedPostRepository {
	return &flaggedPostRepository{db: db}
}

func (r *flaggedPostRepository) Create(ctx context.Context, flag *models.FlaggedPost) error {
	defer observability.TrackStore("flagged_post.create")()
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *flaggedPostRepository) List(ctx context.Context) ([]*models.FlaggedPost, error) {
	defer observability.TrackStore("flagged_post.list")()
	flags := []*models.FlaggedPost{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&flags).Error
	return flags, err
}
