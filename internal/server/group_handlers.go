package server

import (
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListGroups handles GET /api/groups
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {array} models.Group
// @Router /groups [get]
func (s *Server) ListGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

// GroupPosts handles GET /api/groups/:slug/posts
// @Summary Group feed
// @Tags groups
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} service.GroupFeed
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{slug}/posts [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	feed, err := s.feedService.ListGroupFeed(c.UserContext(), c.Params("slug"), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// CreateGroup handles POST /api/admin/groups
// @Summary Create group
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,slug=string,description=string} true "Group"
// @Success 201 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/groups [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	group, err := s.groupService.CreateGroup(c.UserContext(), service.CreateGroupInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// DeleteGroup handles DELETE /api/admin/groups/:slug
// @Summary Delete group
// @Description Posts of the group are kept and lose their group.
// @Tags admin
// @Security BearerAuth
// @Param slug path string true "Group slug"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/groups/{slug} [delete]
func (s *Server) DeleteGroup(c *fiber.Ctx) error {
	if err := s.groupService.DeleteGroup(c.UserContext(), c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	s.clearFeedCache(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearFeedCache handles POST /api/admin/cache/clear
// @Summary Clear the global feed cache
// @Tags admin
// @Security BearerAuth
// @Success 204
// @Router /admin/cache/clear [post]
func (s *Server) ClearFeedCache(c *fiber.Ctx) error {
	if err := s.feedService.ClearCache(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
