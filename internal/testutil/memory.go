// Package testutil provides in-memory repositories and fixtures for tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"huddle/internal/models"
	"huddle/internal/repository"
)

// PostRepository is an in-memory repository.PostRepository. Stored posts are
// copied on the way in and out.
type PostRepository struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	// Err, when set, is returned by every call.
	Err error
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: map[string]*models.Post{}}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]models.Like{}, p.Likes...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

func (r *PostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if post.ID == "" {
		post.ID = models.NewID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *PostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *PostRepository) GetByIDs(_ context.Context, ids []string) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []*models.Post{}
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, clonePost(p))
		}
	}
	return out, nil
}

func (r *PostRepository) List(_ context.Context) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PostRepository) modify(id string, fn func(p *models.Post)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	p, ok := r.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(p)
	return nil
}

func (r *PostRepository) UpdateContent(_ context.Context, id string, update repository.ContentUpdate) error {
	return r.modify(id, func(p *models.Post) {
		if update.Content != "" {
			p.Content = update.Content
		}
		if update.Image != "" {
			p.Image = update.Image
		}
	})
}

func (r *PostRepository) UpdatePrivacy(_ context.Context, id string, privacy models.Privacy) error {
	return r.modify(id, func(p *models.Post) { p.Privacy = privacy })
}

func (r *PostRepository) AddLike(_ context.Context, postID, userID string) error {
	return r.modify(postID, func(p *models.Post) {
		if !p.HasLike(userID) {
			p.Likes = append(p.Likes, models.Like{PostID: postID, UserID: userID})
		}
	})
}

func (r *PostRepository) RemoveLike(_ context.Context, postID, userID string) error {
	err := r.modify(postID, func(p *models.Post) {
		kept := p.Likes[:0]
		for _, l := range p.Likes {
			if l.UserID != userID {
				kept = append(kept, l)
			}
		}
		p.Likes = kept
	})
	if err == repository.ErrNotFound {
		return nil
	}
	return err
}

func (r *PostRepository) AppendComment(_ context.Context, postID string, comment *models.Comment) error {
	return r.modify(postID, func(p *models.Post) {
		comment.PostID = postID
		comment.ID = uint(len(p.Comments) + 1)
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = time.Now().UTC()
		}
		p.Comments = append(p.Comments, *comment)
	})
}

func (r *PostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

// FlaggedPostRepository is an in-memory repository.FlaggedPostRepository.
type FlaggedPostRepository struct {
	mu    sync.Mutex
	flags []*models.FlaggedPost
	Err   error
}

func NewFlaggedPostRepository() *FlaggedPostRepository {
	return &FlaggedPostRepository{}
}

func (r *FlaggedPostRepository) Create(_ context.Context, flag *models.FlaggedPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if flag.ID == "" {
		flag.ID = models.NewID()
	}
	c := *flag
	r.flags = append(r.flags, &c)
	return nil
}

func (r *FlaggedPostRepository) List(_ context.Context) ([]*models.FlaggedPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*models.FlaggedPost, 0, len(r.flags))
	for i := len(r.flags) - 1; i >= 0; i-- {
		c := *r.flags[i]
		out = append(out, &c)
	}
	return out, nil
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	Err   error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]*models.User{}}
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if user.ID == "" {
		user.ID = models.NewID()
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []*models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *UserRepository) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (r *UserRepository) ListAdmins(_ context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []*models.User{}
	for _, u := range r.users {
		if u.IsAdmin {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// NewStore returns a Store over fresh in-memory repositories.
func NewStore() *repository.Store {
	return repository.NewStore(NewPostRepository(), NewFlaggedPostRepository(), NewUserRepository(), nil, nil)
}
