package post

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studycircle-backend/internal/middleware"
	"studycircle-backend/internal/service/circle"
	"studycircle-backend/internal/service/post"
	"studycircle-backend/pkg/response"
)

// Handler handles circle feed HTTP requests
type Handler struct {
	postService   *post.Service
	circleService *circle.Service
}

// NewHandler creates a new post handler
func NewHandler(postService *post.Service, circleService *circle.Service) *Handler {
	return &Handler{
		postService:   postService,
		circleService: circleService,
	}
}

// CreatePostRequest represents post creation request
type CreatePostRequest struct {
	CircleID string     `json:"circle_id" binding:"required,uuid"`
	Content  string     `json:"content" binding:"required"`
	PostedAt *time.Time `json:"posted_at,omitempty"`
}

// CreatePost publishes a post to a circle feed. Members only.
// POST /v1/posts
func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	circleID, err := uuid.Parse(req.CircleID)
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	if err := h.circleService.AssertMember(c.Request.Context(), circleID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	postedAt := time.Time{}
	if req.PostedAt != nil {
		postedAt = *req.PostedAt
	}

	created, err := h.postService.AddPost(c.Request.Context(), userID, circleID, req.Content, postedAt)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// GetPosts lists posts by author or circle query param, defaulting to
// the caller's own posts
// GET /v1/posts?author=<id>|circle=<id>&limit=n
func (h *Handler) GetPosts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.ValidationError(c, "Invalid limit")
			return
		}
		limit = n
	}

	if circleStr := c.Query("circle"); circleStr != "" {
		circleID, err := uuid.Parse(circleStr)
		if err != nil {
			response.ValidationError(c, "Invalid circle ID")
			return
		}
		posts, err := h.postService.GetPostsByCircle(c.Request.Context(), circleID, limit)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, posts)
		return
	}

	var authorID uuid.UUID
	if authorStr := c.Query("author"); authorStr != "" {
		parsed, err := uuid.Parse(authorStr)
		if err != nil {
			response.ValidationError(c, "Invalid author ID")
			return
		}
		authorID = parsed
	} else {
		userID, ok := middleware.UserIDFromContext(c)
		if !ok {
			response.Unauthorized(c, "Not authenticated")
			return
		}
		authorID = userID
	}

	posts, err := h.postService.GetPostsByAuthor(c.Request.Context(), authorID, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, posts)
}

// UpdatePostRequest represents post edit request
type UpdatePostRequest struct {
	CircleID string `json:"circle_id" binding:"required,uuid"`
	Bucket   int    `json:"bucket" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// UpdatePost rewrites a post's content. Author only.
// PATCH /v1/posts/:id
func (h *Handler) UpdatePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid post ID")
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	circleID, err := uuid.Parse(req.CircleID)
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	updated, err := h.postService.EditPost(c.Request.Context(), userID, circleID, req.Bucket, postID, req.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// DeletePost removes a post. Author only.
// DELETE /v1/posts/:id?circle=<id>&bucket=<n>
func (h *Handler) DeletePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid post ID")
		return
	}

	circleID, err := uuid.Parse(c.Query("circle"))
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	bucket, err := strconv.Atoi(c.Query("bucket"))
	if err != nil {
		response.ValidationError(c, "Invalid bucket")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), userID, circleID, bucket, postID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Post deleted",
		"post_id": postID,
	})
}

// GetLeaderboard ranks circle members by post count. Members only.
// GET /v1/circles/:id/leaderboard/posts
func (h *Handler) GetLeaderboard(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.circleService.AssertMember(c.Request.Context(), circleID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	leaderboard, err := h.postService.GetLeaderboard(c.Request.Context(), circleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, leaderboard)
}
