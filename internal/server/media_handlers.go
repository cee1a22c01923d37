package server

import (
	"github.com/gofiber/fiber/v2"
)

// ServeMedia handles GET /media/*
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	content, contentType, err := s.assets.Open(c.UserContext(), c.Params("*"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(content)
}
