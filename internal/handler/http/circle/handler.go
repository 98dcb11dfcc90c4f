package circle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studycircle-backend/internal/domain"
	"studycircle-backend/internal/middleware"
	"studycircle-backend/internal/service/circle"
	"studycircle-backend/pkg/response"
)

// Handler handles study circle HTTP requests
type Handler struct {
	circleService *circle.Service
}

// NewHandler creates a new circle handler
func NewHandler(circleService *circle.Service) *Handler {
	return &Handler{circleService: circleService}
}

// CreateCircleRequest represents circle creation request
type CreateCircleRequest struct {
	Title           string `json:"title" binding:"required"`
	Capacity        int    `json:"capacity" binding:"gte=0"`
	DifficultyLevel string `json:"difficulty_level"`
	Description     string `json:"description"`
}

// CreateCircle creates a circle with the caller as admin
// POST /v1/circles
func (h *Handler) CreateCircle(c *gin.Context) {
	var req CreateCircleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	created, err := h.circleService.CreateCircle(c.Request.Context(), userID,
		req.Title, req.Capacity, req.DifficultyLevel, req.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// ListCircles lists circles, optionally filtered by title, admin,
// member or difficulty level query params
// GET /v1/circles
func (h *Handler) ListCircles(c *gin.Context) {
	filter := &domain.CircleFilter{
		Title:           c.Query("title"),
		DifficultyLevel: c.Query("difficulty_level"),
	}

	if adminStr := c.Query("admin"); adminStr != "" {
		adminID, err := uuid.Parse(adminStr)
		if err != nil {
			response.ValidationError(c, "Invalid admin ID")
			return
		}
		filter.AdminID = &adminID
	}

	if memberStr := c.Query("member"); memberStr != "" {
		memberID, err := uuid.Parse(memberStr)
		if err != nil {
			response.ValidationError(c, "Invalid member ID")
			return
		}
		filter.MemberID = &memberID
	}

	circles, err := h.circleService.ListCircles(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, circles)
}

// SearchCircles finds joinable circles matching keywords
// GET /v1/circles/search?keywords=a,b
func (h *Handler) SearchCircles(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	var keywords []string
	if raw := c.Query("keywords"); raw != "" {
		keywords = strings.Split(raw, ",")
	}

	circles, err := h.circleService.SearchCircles(c.Request.Context(), userID, keywords)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, circles)
}

// GetCircle retrieves one circle with its members
// GET /v1/circles/:id
func (h *Handler) GetCircle(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	found, err := h.circleService.GetCircleByID(c.Request.Context(), circleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, found)
}

// JoinCircle enrolls the caller into a circle
// PATCH /v1/circles/:id/members
func (h *Handler) JoinCircle(c *gin.Context) {
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

	joined, err := h.circleService.JoinCircle(c.Request.Context(), userID, circleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, joined)
}

// LeaveCircle removes the caller from a circle
// DELETE /v1/circles/:id/members
func (h *Handler) LeaveCircle(c *gin.Context) {
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

	left, err := h.circleService.LeaveCircle(c.Request.Context(), userID, circleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, left)
}

// RenameCircleRequest represents circle rename request
type RenameCircleRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameCircle changes a circle's title. Admin only.
// PATCH /v1/circles/:id
func (h *Handler) RenameCircle(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	var req RenameCircleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	renamed, err := h.circleService.RenameCircle(c.Request.Context(), userID, circleID, req.Title)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, renamed)
}

// DeleteCircle removes a circle. Admin only.
// DELETE /v1/circles/:id
func (h *Handler) DeleteCircle(c *gin.Context) {
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

	if err := h.circleService.DeleteCircle(c.Request.Context(), userID, circleID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":   "Circle deleted",
		"circle_id": circleID,
	})
}
