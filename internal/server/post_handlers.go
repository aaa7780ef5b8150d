package server

import (
	"huddle/internal/models"
	"huddle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	UserID    string `json:"userId"`
	Privacy   string `json:"privacy"`
	Content   string `json:"content"`
	Image     string `json:"image"`
	RepliedTo string `json:"repliedTo"`
}

// GetPosts handles GET /posts/all
// @Summary List posts
// @Description List every post, newest first, with authors, likes and comments resolved.
// @Tags posts
// @Produce json
// @Success 200 {object} models.Envelope{data=[]dto.PostView}
// @Failure 401 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Security BearerAuth
// @Router /posts/all [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Fetched all posts", posts)
}

// GetPost handles GET /posts/find/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Envelope{data=dto.PostView}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Security BearerAuth
// @Router /posts/find/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), service.GetPostInput{
		ActorID: currentUserID(c),
		PostID:  postID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post retrieved successfully", post)
}

// CreatePost handles POST /posts/add
// @Summary Create post
// @Description Accepts a JSON body or a multipart form with a "data" JSON field and an optional "single" image.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Param request body postRequest true "Post payload"
// @Success 201 {object} models.Envelope{data=dto.PostView}
// @Failure 400 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Security BearerAuth
// @Router /posts/add [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := parsePayload(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		ActorID: currentUserID(c),
		UserID:  req.UserID,
		Privacy: req.Privacy,
		Content: req.Content,
		Image:   req.Image,
		Files:   uploadedFiles(c),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Post added successfully", post)
}

// UpdatePostContent handles PATCH /posts/update-content/:id
// @Summary Update post content
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Post ID"
// @Param request body postRequest true "Content and/or image"
// @Success 200 {object} models.Envelope{data=dto.PostView}
// @Failure 400 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Security BearerAuth
// @Router /posts/update-content/{id} [patch]
func (s *Server) UpdatePostContent(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req postRequest
	if err := parsePayload(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.UpdateContent(c.UserContext(), service.UpdateContentInput{
		ActorID: currentUserID(c),
		PostID:  postID,
		Content: req.Content,
		Image:   req.Image,
		Files:   uploadedFiles(c),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post content updated successfully", post)
}

// UpdatePostPrivacy handles PATCH /posts/update-privacy/:id
func (s *Server) UpdatePostPrivacy(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req postRequest
	if err := parsePayload(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.UpdatePrivacy(c.UserContext(), service.UpdatePrivacyInput{
		ActorID: currentUserID(c),
		PostID:  postID,
		Privacy: req.Privacy,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post privacy updated successfully", post)
}

// UpdatePostLikes handles PATCH /posts/update-likes/:id
// @Summary Toggle like
// @Description Removes the user's like when present and adds it otherwise.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{userId=string} false "Liking user, defaults to the caller"
// @Success 200 {object} models.Envelope{data=dto.PostView}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Security BearerAuth
// @Router /posts/update-likes/{id} [patch]
func (s *Server) UpdatePostLikes(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req postRequest
	if err := parsePayload(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.ToggleLike(c.UserContext(), service.ToggleLikeInput{
		ActorID: currentUserID(c),
		PostID:  postID,
		UserID:  req.UserID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post likes updated successfully", post)
}

// UpdatePostComments handles PATCH /posts/update-comments/:id
// @Summary Append comment
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{userId=string,content=string,repliedTo=string} true "Comment"
// @Success 200 {object} models.Envelope{data=dto.PostView}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Security BearerAuth
// @Router /posts/update-comments/{id} [patch]
func (s *Server) UpdatePostComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req postRequest
	if err := parsePayload(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.AppendComment(c.UserContext(), service.AppendCommentInput{
		ActorID:   currentUserID(c),
		PostID:    postID,
		UserID:    req.UserID,
		Content:   req.Content,
		RepliedTo: req.RepliedTo,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post comments updated successfully", post)
}

// DeletePost handles DELETE /posts/delete/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		ActorID: currentUserID(c),
		PostID:  postID,
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post deleted successfully", nil)
}
