package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/discuss/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler serves the shared post the discussion belongs to
type PostHandler struct {
	postRepository repositories.PostRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository) *PostHandler {
	return &PostHandler{postRepository: postRepo}
}

// RegisterPostRoutes registers post routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/post", h.GetPost)
}

// GetPost returns the shared post
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPost(c.Request().Context())
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, post)
}
