package mongostore

import (
	"context"
	"time"

	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type flaggedPostRepository struct {
	coll *mongo.Collection
}

// NewFlaggedPostRepository creates a flagged post repository.
func NewFlaggedPostRepository(db *mongo.Database) repository.FlaggedPostRepository {
	return &flaggedPostRepository{coll: db.Collection(FlaggedPostsCollection)}
}

func (r *flaggedPostRepository) Create(ctx context.Context, flag *models.FlaggedPost) error {
	defer observability.TrackStore("flagged_post.create")()
	if flag.ID == "" {
		flag.ID = models.NewID()
	}
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now().UTC()
	}
	id, err := objectID(flag.ID)
	if err != nil {
		return err
	}
	postID, err := objectID(flag.PostID)
	if err != nil {
		return err
	}
	by, err := objectID(flag.FlaggedBy)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, flaggedPostDocument{
		ID:          id,
		PostID:      postID,
		FlaggedBy:   by,
		Subject:     flag.Subject,
		Description: flag.Description,
		CreatedAt:   flag.CreatedAt,
	})
	return err
}

func (r *flaggedPostRepository) List(ctx context.Context) ([]*models.FlaggedPost, error) {
	defer observability.TrackStore("flagged_post.list")()
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	flags := []*models.FlaggedPost{}
	for cursor.Next(ctx) {
		var doc flaggedPostDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		flags = append(flags, doc.model())
	}
	return flags, cursor.Err()
}
