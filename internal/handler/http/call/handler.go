package call

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycircle-backend/internal/middleware"
	"studycircle-backend/internal/service/call"
	"studycircle-backend/internal/service/circle"
	"studycircle-backend/internal/service/post"
	"studycircle-backend/pkg/logger"
	"studycircle-backend/pkg/response"
)

// Handler handles call coordination HTTP requests
type Handler struct {
	callService   *call.Service
	circleService *circle.Service
	postService   *post.Service
}

// NewHandler creates a new call handler
func NewHandler(callService *call.Service, circleService *circle.Service, postService *post.Service) *Handler {
	return &Handler{
		callService:   callService,
		circleService: circleService,
		postService:   postService,
	}
}

// StartCallRequest represents call start request
type StartCallRequest struct {
	CircleID string `json:"circle_id" binding:"required,uuid"`
}

// StartCall opens a call room for a circle. Circle admin only.
// POST /v1/calls
func (h *Handler) StartCall(c *gin.Context) {
	var req StartCallRequest
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

	if err := h.circleService.AssertAdmin(c.Request.Context(), circleID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	created, err := h.callService.StartCall(c.Request.Context(), userID, circleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// GetCalls lists all active calls
// GET /v1/calls
func (h *Handler) GetCalls(c *gin.Context) {
	calls := h.callService.GetAllCalls(c.Request.Context())
	response.Success(c, http.StatusOK, calls)
}

// GetCall retrieves one call by ID
// GET /v1/calls/:id
func (h *Handler) GetCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	found, err := h.callService.GetCallByID(c.Request.Context(), callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, found)
}

// GetCurrentCall retrieves the caller's active call
// GET /v1/calls/current
func (h *Handler) GetCurrentCall(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	current, err := h.callService.GetCurrentCallOf(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, current)
}

// GetPresence reports the cross-instance presence mirror: who is on a
// call anywhere, or one user's status with ?user=<id>. The degraded
// flag marks the mirror as possibly stale.
// GET /v1/calls/presence
func (h *Handler) GetPresence(c *gin.Context) {
	if userStr := c.Query("user"); userStr != "" {
		target, err := uuid.Parse(userStr)
		if err != nil {
			response.ValidationError(c, "Invalid user ID")
			return
		}

		onCall, err := h.callService.IsUserOnCall(c.Request.Context(), target)
		if err != nil {
			response.FromError(c, err)
			return
		}

		response.Success(c, http.StatusOK, gin.H{"user_id": target, "on_call": onCall})
		return
	}

	users, degraded, err := h.callService.OnCallUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": users, "degraded": degraded})
}

// GetCallCircle retrieves the circle a call belongs to
// GET /v1/calls/:id/circle
func (h *Handler) GetCallCircle(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	circleID, err := h.callService.CircleOfCall(c.Request.Context(), callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"circle_id": circleID})
}

// GetCallsByCircle lists calls of one circle
// GET /v1/circles/:id/calls
func (h *Handler) GetCallsByCircle(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	calls := h.callService.GetCallsByCircle(c.Request.Context(), circleID)
	response.Success(c, http.StatusOK, calls)
}

// JoinCall adds the caller to a call as unmuted participant
// PATCH /v1/calls/:id/participants
func (h *Handler) JoinCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	joined, err := h.callService.JoinCall(c.Request.Context(), userID, callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, joined)
}

// LeaveCall removes the caller from a call entirely
// DELETE /v1/calls/:id/participants
func (h *Handler) LeaveCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	left, err := h.callService.LeaveCall(c.Request.Context(), userID, callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, left)
}

// ListenerSwitch toggles the caller between listener and participant
// PATCH /v1/calls/:id/listeners
func (h *Handler) ListenerSwitch(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	updated, err := h.callService.ListenerSwitch(c.Request.Context(), userID, callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// NextSpeaker pops the next queued speaker. Call admin only. An empty
// queue returns 200 with called=false.
// PATCH /v1/calls/:id/next
func (h *Handler) NextSpeaker(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.callService.NextSpeaker(c.Request.Context(), userID, callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// MuteSwitch toggles the caller's mute state
// PATCH /v1/calls/:id/speakers
func (h *Handler) MuteSwitch(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	updated, err := h.callService.MuteSwitch(c.Request.Context(), userID, callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// EndCall closes a call and posts a summary to the circle feed.
// Call admin only.
// DELETE /v1/calls/:id
func (h *Handler) EndCall(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid call ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	ended, err := h.callService.EndCall(c.Request.Context(), userID, callID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// Summary post is best effort; the call is already torn down
	if h.postService != nil {
		content := fmt.Sprintf("Call %s ended after %d participants took part.",
			ended.CallID, 1+len(ended.Participants))
		if _, err := h.postService.AddPost(c.Request.Context(), userID, ended.CircleID, content, time.Time{}); err != nil {
			logger.FromContext(c.Request.Context()).Warn("failed to post call summary",
				zap.String("call_id", ended.CallID.String()),
				zap.String("circle_id", ended.CircleID.String()),
				zap.Error(err),
			)
		}
	}

	response.Success(c, http.StatusOK, ended)
}
