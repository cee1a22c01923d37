package server

import (
	"yatube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type followResponse struct {
	Following bool `json:"following"`
	Created   bool `json:"created"`
}

// Profile handles GET /api/profiles/:username
// @Summary Author profile
// @Description The author's posts, post count and whether the caller follows them
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} service.ProfileFeed
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username} [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	viewerID, _ := middleware.CurrentUserID(c)
	feed, err := s.feedService.ListProfileFeed(c.UserContext(), c.Params("username"), parsePage(c), viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// FollowFeed handles GET /api/follow
// @Summary Followed feed
// @Description Posts by the authors the caller follows
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Failure 401 {object} models.ErrorResponse
// @Router /follow [get]
func (s *Server) FollowFeed(c *fiber.Ctx) error {
	page, err := s.feedService.ListFollowedFeed(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// Follow handles POST /api/profiles/:username/follow
// @Summary Follow an author
// @Description Following yourself or someone already followed is a no-op
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} followResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	username := c.Params("username")

	created, err := s.followService.Follow(ctx, userID, username)
	if err != nil {
		return respondError(c, err)
	}
	following, err := s.isFollowing(c, userID, username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(followResponse{Following: following, Created: created})
}

// Unfollow handles DELETE /api/profiles/:username/follow
// @Summary Unfollow an author
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} followResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), c.Params("username")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(followResponse{Following: false})
}

func (s *Server) isFollowing(c *fiber.Ctx, userID uint, username string) (bool, error) {
	author, err := s.userService.GetUserByUsername(c.UserContext(), username)
	if err != nil {
		return false, err
	}
	return s.followService.IsFollowing(c.UserContext(), userID, author.ID)
}
