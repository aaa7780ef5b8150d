package service

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"huddle/internal/dto"
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"
	"huddle/internal/upload"

	"go.opentelemetry.io/otel/attribute"
)

// Options tunes service behaviour that differs between deployments.
type Options struct {
	// EmptyListNotFound answers an empty list with NotFound.
	EmptyListNotFound bool
}

type PostService struct {
	posts    repository.PostRepository
	uploader upload.Uploader
	isAdmin  AdminChecker
	opts     Options
	locks    postLocks
	populate *populator
}

type GetPostInput struct {
	ActorID string
	PostID  string
}

type CreatePostInput struct {
	ActorID string
	// UserID is the author. Empty means the actor.
	UserID  string
	Privacy string
	Content string
	Image   string
	Files   []*multipart.FileHeader
}

type UpdateContentInput struct {
	ActorID string
	PostID  string
	Content string
	Image   string
	Files   []*multipart.FileHeader
}

type UpdatePrivacyInput struct {
	ActorID string
	PostID  string
	Privacy string
}

type ToggleLikeInput struct {
	ActorID string
	PostID  string
	UserID  string
}

type AppendCommentInput struct {
	ActorID   string
	PostID    string
	UserID    string
	Content   string
	RepliedTo string
}

type DeletePostInput struct {
	ActorID string
	PostID  string
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	uploader upload.Uploader,
	isAdmin AdminChecker,
	opts Options,
) *PostService {
	return &PostService{
		posts:    posts,
		uploader: uploader,
		isAdmin:  isAdmin,
		opts:     opts,
		populate: &populator{users: users, posts: posts},
	}
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context) (views []dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "list")
	defer func() { span.End(err) }()

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(posts) == 0 && s.opts.EmptyListNotFound {
		return nil, notFound(MsgNoPosts)
	}
	return s.populate.postViews(ctx, posts)
}

// GetPost returns one post. Posts the actor may not see are reported as
// missing.
func (s *PostService) GetPost(ctx context.Context, in GetPostInput) (view *dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "get", attribute.String("post.id", in.PostID))
	defer func() { span.End(err) }()

	if !models.IsValidID(in.PostID) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	post, err := s.visiblePost(ctx, in.PostID, in.ActorID)
	if err != nil {
		return nil, err
	}
	return s.populate.postView(ctx, post)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (view *dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "create")
	defer func() {
		span.End(err)
		observability.RecordMutation("create", err)
	}()

	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" || in.Privacy == "" {
		return nil, models.NewValidationError(MsgMissingField)
	}
	privacy := models.Privacy(in.Privacy)
	if !privacy.Valid() {
		return nil, models.NewValidationError(MsgInvalidPrivacy)
	}
	if in.UserID != "" && !models.IsValidID(in.UserID) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	author, err := resolveActor(ctx, s.isAdmin, in.ActorID, in.UserID)
	if err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, in.Image, in.Files)
	if err != nil {
		return nil, err
	}

	post := models.NewPost(author, privacy, content, image)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID), slog.String("author_id", author))

	return s.populate.postView(ctx, post)
}

// UpdateContent overwrites the supplied content and image fields.
func (s *PostService) UpdateContent(ctx context.Context, in UpdateContentInput) (view *dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "update_content", attribute.String("post.id", in.PostID))
	defer func() {
		span.End(err)
		observability.RecordMutation("update_content", err)
	}()

	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}
	if !models.IsValidID(in.PostID) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" && in.Image == "" && len(in.Files) == 0 {
		return nil, models.NewValidationError(MsgMissingField)
	}
	if _, err := s.ownedPost(ctx, in.PostID, in.ActorID); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, in.Image, in.Files)
	if err != nil {
		return nil, err
	}
	update := repository.ContentUpdate{Content: content, Image: image}
	if err := s.posts.UpdateContent(ctx, in.PostID, update); err != nil {
		return nil, storeError(err, postNotFound(in.PostID))
	}
	return s.reload(ctx, in.PostID)
}

// UpdatePrivacy sets the post's privacy. The value is checked before the
// post is looked up.
func (s *PostService) UpdatePrivacy(ctx context.Context, in UpdatePrivacyInput) (view *dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "update_privacy", attribute.String("post.id", in.PostID))
	defer func() {
		span.End(err)
		observability.RecordMutation("update_privacy", err)
	}()

	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}
	if !models.IsValidID(in.PostID) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	if in.Privacy == "" {
		return nil, models.NewValidationError(MsgMissingField)
	}
	privacy := models.Privacy(in.Privacy)
	if !privacy.Valid() {
		return nil, models.NewValidationError(MsgInvalidPrivacy)
	}
	if _, err := s.ownedPost(ctx, in.PostID, in.ActorID); err != nil {
		return nil, err
	}

	if err := s.posts.UpdatePrivacy(ctx, in.PostID, privacy); err != nil {
		return nil, storeError(err, postNotFound(in.PostID))
	}
	return s.reload(ctx, in.PostID)
}

// ToggleLike removes the user's like when present and adds it otherwise.
func (s *PostService) ToggleLike(ctx context.Context, in ToggleLikeInput) (view *dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "toggle_like", attribute.String("post.id", in.PostID))
	defer func() {
		span.End(err)
		observability.RecordMutation("toggle_like", err)
	}()

	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}
	if !models.IsValidID(in.PostID) || (in.UserID != "" && !models.IsValidID(in.UserID)) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	userID, err := resolveActor(ctx, s.isAdmin, in.ActorID, in.UserID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(in.PostID)
	defer unlock()

	post, err := s.visiblePost(ctx, in.PostID, in.ActorID)
	if err != nil {
		return nil, err
	}
	liked := post.HasLike(userID)
	if liked {
		err = s.posts.RemoveLike(ctx, in.PostID, userID)
	} else {
		err = s.posts.AddLike(ctx, in.PostID, userID)
	}
	if err != nil {
		return nil, storeError(err, postNotFound(in.PostID))
	}
	middleware.Logger.InfoContext(ctx, "post like toggled",
		slog.String("post_id", in.PostID), slog.String("liker_id", userID), slog.Bool("liked", !liked))

	return s.reload(ctx, in.PostID)
}

// AppendComment adds a comment to the end of the post's comments.
func (s *PostService) AppendComment(ctx context.Context, in AppendCommentInput) (view *dto.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "append_comment", attribute.String("post.id", in.PostID))
	defer func() {
		span.End(err)
		observability.RecordMutation("append_comment", err)
	}()

	if in.ActorID == "" {
		return nil, models.NewUnauthorizedError(MsgUnauthorized)
	}
	if !models.IsValidID(in.PostID) ||
		(in.UserID != "" && !models.IsValidID(in.UserID)) ||
		(in.RepliedTo != "" && !models.IsValidID(in.RepliedTo)) {
		return nil, models.NewValidationError(MsgInvalidID)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError(MsgMissingField)
	}
	userID, err := resolveActor(ctx, s.isAdmin, in.ActorID, in.UserID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(in.PostID)
	defer unlock()

	if _, err := s.visiblePost(ctx, in.PostID, in.ActorID); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if in.RepliedTo != "" {
		replied := in.RepliedTo
		comment.RepliedTo = &replied
	}
	if err := s.posts.AppendComment(ctx, in.PostID, comment); err != nil {
		return nil, storeError(err, postNotFound(in.PostID))
	}
	return s.reload(ctx, in.PostID)
}

// DeletePost removes the post with its likes and comments. Flags that
// reference it are kept.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "post", "delete", attribute.String("post.id", in.PostID))
	defer func() {
		span.End(err)
		observability.RecordMutation("delete", err)
	}()

	if in.ActorID == "" {
		return models.NewUnauthorizedError(MsgUnauthorized)
	}
	if !models.IsValidID(in.PostID) {
		return models.NewValidationError(MsgInvalidID)
	}
	if _, err := s.ownedPost(ctx, in.PostID, in.ActorID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, in.PostID); err != nil {
		return storeError(err, postNotFound(in.PostID))
	}
	middleware.Logger.InfoContext(ctx, "post deleted", slog.String("post_id", in.PostID))
	return nil
}

func (s *PostService) visiblePost(ctx context.Context, postID, actorID string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError(err, postNotFound(postID))
	}
	if post.Privacy == models.PrivacyPublic || post.UserID == actorID {
		return post, nil
	}
	admin, err := checkAdmin(ctx, s.isAdmin, actorID)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(actorID, admin) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

func (s *PostService) ownedPost(ctx context.Context, postID, actorID string) (*models.Post, error) {
	post, err := s.visiblePost(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}
	if post.UserID == actorID {
		return post, nil
	}
	admin, err := checkAdmin(ctx, s.isAdmin, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewForbiddenError(MsgNotPostOwner)
	}
	return post, nil
}

func (s *PostService) reload(ctx context.Context, postID string) (*dto.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError(err, postNotFound(postID))
	}
	return s.populate.postView(ctx, post)
}

// storeImage uploads files and returns the first URL, or image when no
// file was sent.
func (s *PostService) storeImage(ctx context.Context, image string, files []*multipart.FileHeader) (string, error) {
	if len(files) == 0 {
		return image, nil
	}
	if s.uploader == nil {
		return "", models.NewValidationError("File uploads are not enabled")
	}
	urls, err := s.uploader.Upload(ctx, files, upload.PostsFolder)
	if err != nil {
		return "", storeError(err, nil)
	}
	if len(urls) == 0 {
		return image, nil
	}
	return urls[0], nil
}
