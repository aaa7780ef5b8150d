package service

import (
	"context"

	"huddle/internal/dto"
	"huddle/internal/models"
	"huddle/internal/repository"
)

// populator resolves the user references of posts and flags with one batch
// lookup per call.
type populator struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func (p *populator) loadUsers(ctx context.Context, ids []string) (dto.Users, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return dto.Users{}, nil
	}
	list, err := p.users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return dto.NewUsers(list), nil
}

func postUserIDs(ids []string, post *models.Post) []string {
	ids = append(ids, post.UserID)
	for _, l := range post.Likes {
		ids = append(ids, l.UserID)
	}
	for _, c := range post.Comments {
		ids = append(ids, c.UserID)
		if c.RepliedTo != nil {
			ids = append(ids, *c.RepliedTo)
		}
	}
	return ids
}

func (p *populator) postViews(ctx context.Context, posts []*models.Post) ([]dto.PostView, error) {
	var ids []string
	for _, post := range posts {
		ids = postUserIDs(ids, post)
	}
	users, err := p.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]dto.PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, dto.NewPostView(post, users))
	}
	return views, nil
}

func (p *populator) postView(ctx context.Context, post *models.Post) (*dto.PostView, error) {
	views, err := p.postViews(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// flagViews resolves each flag's post and reporter. Flags pointing at a
// deleted post keep a null post.
func (p *populator) flagViews(ctx context.Context, flags []*models.FlaggedPost) ([]dto.FlaggedPostView, error) {
	postIDs := make([]string, 0, len(flags))
	for _, f := range flags {
		postIDs = append(postIDs, f.PostID)
	}
	found, err := p.posts.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts := make(map[string]*models.Post, len(found))
	userIDs := make([]string, 0, len(flags)+len(found))
	for _, post := range found {
		posts[post.ID] = post
		userIDs = append(userIDs, post.UserID)
	}
	for _, f := range flags {
		userIDs = append(userIDs, f.FlaggedBy)
	}

	users, err := p.loadUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	views := make([]dto.FlaggedPostView, 0, len(flags))
	for _, f := range flags {
		views = append(views, dto.NewFlaggedPostView(f, posts, users))
	}
	return views, nil
}
