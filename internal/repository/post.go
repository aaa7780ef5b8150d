package repository

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postRepository implements PostRepository on top of gorm. Likes and comments
// live in their own tables and are preloaded in insertion order.
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) withEmbedded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Likes", func(tx *gorm.DB) *gorm.DB { return tx.Order("post_likes.id ASC") }).
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("post_comments.id ASC") })
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackStore("post.create")()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackStore("post.get")()
	var post models.Post
	err := r.withEmbedded(r.db.WithContext(ctx)).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	defer observability.TrackStore("post.get_many")()
	posts := []*models.Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	defer observability.TrackStore("post.list")()
	posts := []*models.Post{}
	err := r.withEmbedded(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) UpdateContent(ctx context.Context, id string, update ContentUpdate) error {
	defer observability.TrackStore("post.update_content")()
	fields := map[string]any{}
	if update.Content != "" {
		fields["content"] = update.Content
	}
	if update.Image != "" {
		fields["image"] = update.Image
	}
	if len(fields) == 0 {
		return nil
	}
	return r.updateFields(ctx, id, fields)
}

func (r *postRepository) UpdatePrivacy(ctx context.Context, id string, privacy models.Privacy) error {
	defer observability.TrackStore("post.update_privacy")()
	return r.updateFields(ctx, id, map[string]any{"privacy": privacy})
}

func (r *postRepository) updateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID string) error {
	defer observability.TrackStore("post.add_like")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePost(tx, postID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Like{PostID: postID, UserID: userID}).Error
	})
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	defer observability.TrackStore("post.remove_like")()
	return r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error
}

func (r *postRepository) AppendComment(ctx context.Context, postID string, comment *models.Comment) error {
	defer observability.TrackStore("post.append_comment")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePost(tx, postID); err != nil {
			return err
		}
		comment.PostID = postID
		return tx.Create(comment).Error
	})
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackStore("post.delete")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		// sqlite does not enforce the cascade unless foreign keys are enabled
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error
	})
}

func requirePost(tx *gorm.DB, postID string) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
