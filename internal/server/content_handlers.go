package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetHome handles GET /api/home.
func (s *Server) GetHome(c *fiber.Ctx) error {
	view, err := s.contentService.GetHome(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetPortfolio handles GET /api/portfolio.
func (s *Server) GetPortfolio(c *fiber.Ctx) error {
	view, err := s.contentService.GetPortfolio(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetProjects handles GET /api/projects. An optional ?type= filter
// narrows to "project" or "lab".
func (s *Server) GetProjects(c *fiber.Ctx) error {
	projects, err := s.contentService.GetProjects(c.UserContext(), c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// GetProject handles GET /api/projects/:slug.
func (s *Server) GetProject(c *fiber.Ctx) error {
	project, err := s.contentService.GetProjectBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// GetBlogList handles GET /api/blog. An optional ?limit= caps the
// number of posts; 0 or absent returns all.
func (s *Server) GetBlogList(c *fiber.Ctx) error {
	view, err := s.contentService.GetBlogList(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetBlogTags handles GET /api/blog/tags.
func (s *Server) GetBlogTags(c *fiber.Ctx) error {
	tags, err := s.contentService.GetBlogTags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// GetBlogPost handles GET /api/blog/:slug.
func (s *Server) GetBlogPost(c *fiber.Ctx) error {
	view, err := s.contentService.GetBlogPost(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}
