package server

import (
	"huddle/internal/models"
	"huddle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type flagRequest struct {
	PostID      string `json:"postId"`
	FlaggedBy   string `json:"flaggedBy"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// GetFlaggedPosts handles GET /flagged-posts/all
// @Summary List flagged posts
// @Tags moderation
// @Produce json
// @Success 200 {object} models.Envelope{data=[]dto.FlaggedPostView}
// @Failure 401 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Security BearerAuth
// @Router /flagged-posts/all [get]
func (s *Server) GetFlaggedPosts(c *fiber.Ctx) error {
	flags, err := s.flaggedPostService.List(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Fetched all flagged posts", flags)
}

// FlagPost handles POST /flagged-posts/add
// @Summary Flag a post
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body flagRequest true "Report"
// @Success 201 {object} models.Envelope{data=dto.FlaggedPostView}
// @Failure 400 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Security BearerAuth
// @Router /flagged-posts/add [post]
func (s *Server) FlagPost(c *fiber.Ctx) error {
	var req flagRequest
	if err := parsePayload(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	flag, err := s.flaggedPostService.Add(c.UserContext(), service.AddFlagInput{
		ActorID:     currentUserID(c),
		PostID:      req.PostID,
		FlaggedBy:   req.FlaggedBy,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Post flagged successfully", flag)
}
