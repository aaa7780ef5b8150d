package mongostore

import (
	"context"
	"errors"
	"time"

	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a user repository over the users collection.
func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{coll: db.Collection(UsersCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackStore("user.create")()
	if user.ID == "" {
		user.ID = models.NewID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	id, err := objectID(user.ID)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, userDocument{
		ID:           id,
		Username:     user.Username,
		Email:        user.Email,
		Password:     user.Password,
		FullName:     user.FullName,
		ProfileImage: user.ProfileImage,
		CoverImage:   user.CoverImage,
		Bio:          user.Bio,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackStore("user.get")()
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	defer observability.TrackStore("user.get_many")()
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
}

func (r *userRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	defer observability.TrackStore("user.set_admin")()
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"isAdmin":   isAdmin,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]*models.User, error) {
	defer observability.TrackStore("user.list_admins")()
	return r.find(ctx, bson.M{"isAdmin": true}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
}

func (r *userRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.User, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := r.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, doc.model())
	}
	return users, cursor.Err()
}
