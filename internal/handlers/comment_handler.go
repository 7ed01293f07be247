package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/discuss/internal/middleware"
	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/repositories"
	"github.com/anonto42/discuss/pkg/metrics"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	upvoteRepository  repositories.CommentUpvoteRepository
	userRepository    repositories.UserRepository
	postRepository    repositories.PostRepository // optional, keeps the shared post's comment count
	metrics           *metrics.Metrics
	log               *zap.Logger
}

// NewCommentHandler creates a new CommentHandler. postRepo may be nil.
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	upvoteRepo repositories.CommentUpvoteRepository,
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		upvoteRepository:  upvoteRepo,
		userRepository:    userRepo,
		postRepository:    postRepo,
		metrics:           m,
		log:               logger,
	}
}

// RegisterCommentRoutes registers comment-related routes. Reads allow anonymous callers, writes need requireAuth.
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, optionalAuth, requireAuth echo.MiddlewareFunc) {
	g.GET("/comments", h.ListComments, optionalAuth)
	g.GET("/comments/:id", h.GetComment, optionalAuth)
	g.POST("/comments/create", h.CreateComment, requireAuth)
	g.POST("/comments/:id/upvote", h.UpvoteComment, requireAuth)
	g.DELETE("/comments/:id", h.DeleteComment, requireAuth)
}

// ListComments returns the top-level comments ordered by ?sortBy=top|new
func (h *CommentHandler) ListComments(c echo.Context) error {
	sortBy := models.SortMode(c.QueryParam("sortBy"))
	if sortBy == "" {
		sortBy = models.SortTop
	}
	if !sortBy.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "sortBy must be one of top, new")
	}

	ctx := c.Request().Context()
	comments, err := h.commentRepository.ListTopLevel(ctx, sortBy)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	list := models.CommentList{Comments: comments}
	if claims := middleware.CurrentClaims(c); claims != nil {
		if user, err := h.userRepository.GetUserByID(ctx, claims.UserID); err == nil {
			compact := user.ToCompact()
			list.CurrentUser = &compact
		}
	}
	return respond(c, http.StatusOK, list)
}

// GetComment returns one comment with its direct replies
func (h *CommentHandler) GetComment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return dbError(err, "Comment not found")
	}
	replies, err := h.commentRepository.ListReplies(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	comment.Replies = replies
	n := len(replies)
	comment.ReplyCount = &n

	return respond(c, http.StatusOK, comment)
}

// CreateComment creates a top-level comment or a reply
func (h *CommentHandler) CreateComment(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment text cannot be empty")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if req.ParentID != nil {
		if _, err := h.commentRepository.GetCommentByID(ctx, *req.ParentID); err != nil {
			return dbError(err, "Parent comment not found")
		}
	}

	comment := &models.Comment{
		Text:     req.Text,
		ParentID: req.ParentID,
		UserID:   claims.UserID,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	kind := "top"
	if req.ParentID != nil {
		kind = "reply"
	}
	h.metrics.CommentsCreated.WithLabelValues(kind).Inc()
	h.adjustPostCount(1)

	return respond(c, http.StatusCreated, comment)
}

// UpvoteComment adds one upvote. Repeated calls keep adding.
func (h *CommentHandler) UpvoteComment(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}

	upvotes, err := h.upvoteRepository.Upvote(c.Request().Context(), id, claims.UserID)
	if err != nil {
		return dbError(err, "Comment not found")
	}
	h.metrics.Upvotes.Inc()

	return respond(c, http.StatusOK, models.UpvoteResult{Upvotes: upvotes})
}

// DeleteComment deletes a comment and its replies. Only the owner or an admin may do so.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authenticated user not found")
	}
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return dbError(err, "Comment not found")
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	deleted, err := h.commentRepository.DeleteCommentTree(ctx, id)
	if err != nil {
		return dbError(err, "Comment not found")
	}
	h.metrics.CommentsDeleted.Add(float64(len(deleted)))
	h.adjustPostCount(-len(deleted))

	h.log.Info("comment deleted",
		zap.Uint("comment_id", id),
		zap.Int("removed", len(deleted)),
		zap.Uint("by_user", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// adjustPostCount updates the shared post counter in the background
func (h *CommentHandler) adjustPostCount(delta int) {
	if h.postRepository == nil || delta == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.postRepository.IncrementCommentsCount(ctx, delta); err != nil {
			h.log.Warn("failed to update post comment count", zap.Int("delta", delta), zap.Error(err))
		}
	}()
}
