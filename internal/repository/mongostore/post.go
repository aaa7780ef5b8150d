package mongostore

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postRepository struct {
	coll *mongo.Collection
}

// NewPostRepository creates a post repository over the posts collection.
func NewPostRepository(db *mongo.Database) repository.PostRepository {
	return &postRepository{coll: db.Collection(PostsCollection)}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackStore("post.create")()
	doc, err := newPostDocument(post)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, doc)
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackStore("post.get")()
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc postDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	defer observability.TrackStore("post.get_many")()
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*models.Post{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	defer observability.TrackStore("post.list")()
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *postRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Post, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := r.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []*models.Post{}
	for cursor.Next(ctx) {
		var doc postDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		posts = append(posts, doc.model())
	}
	return posts, cursor.Err()
}

func (r *postRepository) UpdateContent(ctx context.Context, id string, update repository.ContentUpdate) error {
	defer observability.TrackStore("post.update_content")()
	set := bson.M{}
	if update.Content != "" {
		set["content"] = update.Content
	}
	if update.Image != "" {
		set["image"] = update.Image
	}
	if len(set) == 0 {
		return nil
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *postRepository) UpdatePrivacy(ctx context.Context, id string, privacy models.Privacy) error {
	defer observability.TrackStore("post.update_privacy")()
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"privacy": string(privacy)}})
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID string) error {
	defer observability.TrackStore("post.add_like")()
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, postID, bson.M{"$addToSet": bson.M{"likes": likeDocument{UserID: uid}}})
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	defer observability.TrackStore("post.remove_like")()
	pid, err := objectID(postID)
	if err != nil {
		return nil
	}
	uid, err := objectID(userID)
	if err != nil {
		return nil
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": pid}, bson.M{"$pull": bson.M{"likes": bson.M{"userId": uid}}})
	return err
}

func (r *postRepository) AppendComment(ctx context.Context, postID string, comment *models.Comment) error {
	defer observability.TrackStore("post.append_comment")()
	doc, err := newCommentDocument(comment)
	if err != nil {
		return err
	}
	comment.PostID = postID
	return r.updateOne(ctx, postID, bson.M{"$push": bson.M{"comments": doc}})
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackStore("post.delete")()
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
