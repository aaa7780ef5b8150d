// Package seed provides helpers to create demo data for development and
// testing. They write through the repositories, so every store driver can
// be seeded the same way.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"huddle/internal/models"
	"huddle/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var flagSubjects = []string{"Spam", "Harassment", "Misinformation", "Nudity", "Violence", "Off-topic"}

// Factory builds domain entities and persists them through a store.
// With DryRun set nothing is written and the store may be nil.
type Factory struct {
	store *repository.Store
	opts  Options
	faker *gofakeit.Faker
}

// NewFactory creates a new Factory bound to the provided store.
func NewFactory(store *repository.Store, opts Options) *Factory {
	return &Factory{
		store: store,
		opts:  opts,
		faker: gofakeit.New(opts.RandomSeed),
	}
}

// BuildUser constructs a sample user without saving it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := strings.ToLower(first+last) + fmt.Sprintf("%d", f.faker.Number(100, 999))
	user := &models.User{
		ID:           models.NewID(),
		Username:     username,
		Email:        username + "@" + f.faker.DomainName(),
		FullName:     first + " " + last,
		Bio:          f.faker.Sentence(10),
		ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		CoverImage:   fmt.Sprintf("https://picsum.photos/seed/%s/1200/400", f.faker.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = DefaultPassword
	} else {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser builds and persists a sample user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.store.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost constructs a post by author without saving it. The creation
// time is spread over the last MaxDays days.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	privacy := models.PrivacyPublic
	switch n := f.faker.Number(1, 10); {
	case n == 1:
		privacy = models.PrivacyPrivate
	case n <= 3:
		privacy = models.PrivacyFriends
	}

	image := ""
	if f.faker.Bool() {
		image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	post := models.NewPost(author.ID, privacy, f.faker.Paragraph(1, 3, 12, "\n"), image)

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	post.CreatedAt = time.Now().UTC().Add(-back)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post by author.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if f.opts.DryRun {
		return post, nil
	}
	if err := f.store.Posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Like records user's like on post.
func (f *Factory) Like(ctx context.Context, post *models.Post, user *models.User) error {
	if post.HasLike(user.ID) {
		return nil
	}
	post.Likes = append(post.Likes, models.Like{PostID: post.ID, UserID: user.ID})
	if f.opts.DryRun {
		return nil
	}
	return f.store.Posts.AddLike(ctx, post.ID, user.ID)
}

// Comment appends a comment by author to post, optionally replying to
// another user.
func (f *Factory) Comment(ctx context.Context, post *models.Post, author, repliedTo *models.User) error {
	comment := models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   f.faker.Sentence(f.faker.Number(3, 15)),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute),
	}
	if repliedTo != nil {
		id := repliedTo.ID
		comment.RepliedTo = &id
	}
	post.Comments = append(post.Comments, comment)
	if f.opts.DryRun {
		return nil
	}
	return f.store.Posts.AppendComment(ctx, post.ID, &comment)
}

// Flag files a report by reporter against post.
func (f *Factory) Flag(ctx context.Context, post *models.Post, reporter *models.User) (*models.FlaggedPost, error) {
	flag := &models.FlaggedPost{
		ID:          models.NewID(),
		PostID:      post.ID,
		FlaggedBy:   reporter.ID,
		Subject:     flagSubjects[f.faker.Number(0, len(flagSubjects)-1)],
		Description: f.faker.Sentence(12),
		CreatedAt:   time.Now().UTC(),
	}
	if f.opts.DryRun {
		return flag, nil
	}
	if err := f.store.FlaggedPosts.Create(ctx, flag); err != nil {
		return nil, fmt.Errorf("create flag: %w", err)
	}
	return flag, nil
}

// pick returns up to n distinct users other than exclude.
func (f *Factory) pick(users []*models.User, n int, exclude string) []*models.User {
	candidates := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != exclude {
			candidates = append(candidates, u)
		}
	}
	f.faker.ShuffleAnySlice(candidates)
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}
