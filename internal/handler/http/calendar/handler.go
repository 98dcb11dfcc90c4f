package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studycircle-backend/internal/domain"
	"studycircle-backend/internal/middleware"
	"studycircle-backend/internal/service/calendar"
	"studycircle-backend/internal/service/circle"
	"studycircle-backend/pkg/response"
)

// Handler handles calendar event HTTP requests
type Handler struct {
	calendarService *calendar.Service
	circleService   *circle.Service
}

// NewHandler creates a new calendar handler
func NewHandler(calendarService *calendar.Service, circleService *circle.Service) *Handler {
	return &Handler{
		calendarService: calendarService,
		circleService:   circleService,
	}
}

// RecurrenceRequest mirrors domain.Recurrence on the wire
type RecurrenceRequest struct {
	Unit     string `json:"unit" binding:"required,oneof=day week month"`
	Interval int    `json:"interval" binding:"required,gt=0"`
}

// CreateEventRequest represents event creation request
type CreateEventRequest struct {
	Name       string             `json:"name" binding:"required"`
	CircleID   string             `json:"circle_id" binding:"required,uuid"`
	Type       string             `json:"type" binding:"required,oneof=call deadline"`
	StartTime  time.Time          `json:"start_time" binding:"required"`
	EndTime    *time.Time         `json:"end_time,omitempty"`
	Recurrence *RecurrenceRequest `json:"recurrence,omitempty"`
}

// CreateEvent schedules an event on a circle's calendar. Members only.
// A missing end time defaults to one hour after start.
// POST /v1/events
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
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

	endTime := req.StartTime.Add(time.Hour)
	if req.EndTime != nil {
		endTime = *req.EndTime
	}

	var recurrence *domain.Recurrence
	if req.Recurrence != nil {
		recurrence = &domain.Recurrence{
			Unit:     req.Recurrence.Unit,
			Interval: req.Recurrence.Interval,
		}
	}

	created, err := h.calendarService.CreateEvent(c.Request.Context(), userID, circleID,
		req.Name, req.StartTime, endTime, req.Type, recurrence)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, created)
}

// GetEvent retrieves one event
// GET /v1/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid event ID")
		return
	}

	event, err := h.calendarService.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

// GetCircleEvents lists a circle's calendar
// GET /v1/circles/:id/events
func (h *Handler) GetCircleEvents(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid circle ID")
		return
	}

	events, err := h.calendarService.GetEventsOfCircle(c.Request.Context(), circleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, events)
}

// GetMyEvents lists events the caller has scheduled
// GET /v1/events
func (h *Handler) GetMyEvents(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	events, err := h.calendarService.GetEventsOfCreator(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, events)
}

// UpdateEventRequest represents event edit request. Nil fields keep
// their current values.
type UpdateEventRequest struct {
	Name       *string            `json:"name,omitempty"`
	StartTime  *time.Time         `json:"start_time,omitempty"`
	EndTime    *time.Time         `json:"end_time,omitempty"`
	Recurrence *RecurrenceRequest `json:"recurrence,omitempty"`
}

// UpdateEvent reschedules an event. Creator only.
// PATCH /v1/events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid event ID")
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	update := calendar.EventUpdate{
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Recurrence != nil {
		update.Recurrence = &domain.Recurrence{
			Unit:     req.Recurrence.Unit,
			Interval: req.Recurrence.Interval,
		}
	}

	updated, err := h.calendarService.EditEvent(c.Request.Context(), userID, eventID, update)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// DeleteEvent removes an event. Creator only.
// DELETE /v1/events/:id
func (h *Handler) DeleteEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid event ID")
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.calendarService.DeleteEvent(c.Request.Context(), userID, eventID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":  "Event deleted",
		"event_id": eventID,
	})
}
