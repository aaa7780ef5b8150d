package seed

import (
	"context"
	"fmt"
	"log"

	"huddle/internal/models"
	"huddle/internal/repository"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxLikes and MaxComments bound the engagement generated per post.
	MaxLikes    int
	MaxComments int
	NumFlags    int
	// NumAdmins of the generated users are promoted to admin.
	NumAdmins int
	MaxDays   int

	SkipBcrypt bool
	DryRun     bool
	// RandomSeed makes the generated data reproducible. Zero picks a random seed.
	RandomSeed int64
}

// DefaultOptions returns the options used by the seed command.
func DefaultOptions() Options {
	return Options{
		NumUsers:    20,
		NumPosts:    60,
		MaxLikes:    10,
		MaxComments: 5,
		NumFlags:    5,
		NumAdmins:   1,
		MaxDays:     90,
	}
}

// Result lists what a seeding run created.
type Result struct {
	Users []*models.User
	Posts []*models.Post
	Flags []*models.FlaggedPost
}

// Seed populates the store with users, posts, likes, comments and flags.
func Seed(ctx context.Context, store *repository.Store, opts Options) (*Result, error) {
	if opts.NumUsers <= 0 {
		return nil, fmt.Errorf("seed requires at least one user")
	}
	if store == nil && !opts.DryRun {
		return nil, fmt.Errorf("seed requires a store unless running dry")
	}

	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)
	f := NewFactory(store, opts)
	res := &Result{}

	for i := 0; i < opts.NumUsers; i++ {
		admin := i < opts.NumAdmins
		user, err := f.CreateUser(ctx, func(u *models.User) { u.IsAdmin = admin })
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		res.Users = append(res.Users, user)
	}
	log.Printf("%d users created", len(res.Users))

	for i := 0; i < opts.NumPosts; i++ {
		author := res.Users[i%len(res.Users)]
		post, err := f.CreatePost(ctx, author)
		if err != nil {
			return nil, fmt.Errorf("failed to create posts: %w", err)
		}
		if err := seedEngagement(ctx, f, post, res.Users, opts); err != nil {
			return nil, fmt.Errorf("failed to create engagement: %w", err)
		}
		res.Posts = append(res.Posts, post)
	}
	log.Printf("%d posts created", len(res.Posts))

	for i := 0; i < opts.NumFlags && len(res.Posts) > 0; i++ {
		post := res.Posts[f.faker.Number(0, len(res.Posts)-1)]
		reporters := f.pick(res.Users, 1, post.UserID)
		if len(reporters) == 0 {
			break
		}
		flag, err := f.Flag(ctx, post, reporters[0])
		if err != nil {
			return nil, fmt.Errorf("failed to create flags: %w", err)
		}
		res.Flags = append(res.Flags, flag)
	}
	log.Printf("%d flags created", len(res.Flags))

	return res, nil
}

func seedEngagement(ctx context.Context, f *Factory, post *models.Post, users []*models.User, opts Options) error {
	if opts.MaxLikes > 0 {
		for _, liker := range f.pick(users, f.faker.Number(0, opts.MaxLikes), post.UserID) {
			if err := f.Like(ctx, post, liker); err != nil {
				return err
			}
		}
	}
	if opts.MaxComments > 0 {
		commenters := f.pick(users, f.faker.Number(0, opts.MaxComments), "")
		for i, author := range commenters {
			var repliedTo *models.User
			if i > 0 && f.faker.Bool() {
				repliedTo = commenters[i-1]
			}
			if err := f.Comment(ctx, post, author, repliedTo); err != nil {
				return err
			}
		}
	}
	return nil
}
