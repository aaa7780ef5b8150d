package mongostore

import (
	"context"

	"huddle/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// New builds a Store backed by db. Closing the store disconnects the client.
func New(db *mongo.Database) *repository.Store {
	client := db.Client()
	return repository.NewStore(
		NewPostRepository(db),
		NewFlaggedPostRepository(db),
		NewUserRepository(db),
		func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		client.Disconnect,
	)
}

// EnsureIndexes creates the indexes the repositories rely on. It is safe to
// call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isAdmin", Value: 1}}},
	}
	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return err
	}

	posts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Collection(PostsCollection).Indexes().CreateMany(ctx, posts); err != nil {
		return err
	}

	flags := []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}}},
	}
	_, err := db.Collection(FlaggedPostsCollection).Indexes().CreateMany(ctx, flags)
	return err
}
