package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"huddle/internal/dto"
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"
)

type FlaggedPostService struct {
	flags    repository.FlaggedPostRepository
	isAdmin  AdminChecker
	opts     Options
	populate *populator
}

type AddFlagInput struct {
	ActorID string
	PostID  string
	// FlaggedBy is the reporter. Empty means the actor.
	FlaggedBy   string
	Subject     string
	Description string
}

func NewFlaggedPostService(
	flags repository.FlaggedPostRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	isAdmin AdminChecker,
	opts Options,
) *FlaggedPostService {
	return &FlaggedPostService{
		flags:    flags,
		isAdmin:  isAdmin,
		opts:     opts,
		populate: &populator{users: users, posts: posts},
	}
}

// List returns every flag, newest first, with its post and reporter resolved.
func (s *FlaggedPostService) List(ctx context.Context) (views []dto.FlaggedPostView, err error) {
	ctx, span := observability.StartSpan(ctx, "flagged_post", "list")
	defer func() { span.End(err) }()

	flags, err := s.flags.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(flags) == 0 && s.opts.EmptyListNotFound {
		return nil, notFound(MsgNoFlaggedPosts)
	}
	return s.populate.flagViews(ctx, flags)
}

// Add records a report against a post. The post is not required to exist.
func (s *FlaggedPostService) Add(ctx context.Context, in AddFlagInput) (view *dto.FlaggedPostView, err error) {
	ctx, span := observability.StartSpan(ctx, "flagged_post", "add")
	defer func() { span.End(err) }()

	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}
	subject := strings.TrimSpace(in.Subject)
	description := strings.TrimSpace(in.Description)
	if in.PostID == "" || subject == "" || description == "" {
		return nil, models.NewValidationError(MsgMissingField)
	}
	if !models.IsValidID(in.PostID) || (in.FlaggedBy != "" && !models.IsValidID(in.FlaggedBy)) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	reporter, err := resolveActor(ctx, s.isAdmin, in.ActorID, in.FlaggedBy)
	if err != nil {
		return nil, err
	}

	flag := &models.FlaggedPost{
		ID:          models.NewID(),
		PostID:      in.PostID,
		FlaggedBy:   reporter,
		Subject:     subject,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.flags.Create(ctx, flag); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.FlaggedPosts.Inc()
	middleware.Logger.InfoContext(ctx, "post flagged",
		slog.String("flag_id", flag.ID), slog.String("post_id", flag.PostID))

	views, err := s.populate.flagViews(ctx, []*models.FlaggedPost{flag})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
