package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Authorization errors
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeNotCircleAdmin     ErrorCode = "NOT_CIRCLE_ADMIN"
	ErrCodeNotCircleMember    ErrorCode = "NOT_CIRCLE_MEMBER"
	ErrCodeNotCallAdmin       ErrorCode = "NOT_CALL_ADMIN"
	ErrCodeCallAdminForbidden ErrorCode = "CALL_ADMIN_FORBIDDEN"
	ErrCodeNotEventCreator    ErrorCode = "NOT_EVENT_CREATOR"
	ErrCodeNotPostAuthor      ErrorCode = "NOT_POST_AUTHOR"

	// Not found errors
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeCallNotFound   ErrorCode = "CALL_NOT_FOUND"
	ErrCodeCircleNotFound ErrorCode = "CIRCLE_NOT_FOUND"
	ErrCodeEventNotFound  ErrorCode = "EVENT_NOT_FOUND"
	ErrCodePostNotFound   ErrorCode = "POST_NOT_FOUND"
	ErrCodeNotOnAnyCall   ErrorCode = "NOT_ON_ANY_CALL"

	// State conflict errors
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeAlreadyOnCall ErrorCode = "ALREADY_ON_CALL"
	ErrCodeNotOnCall     ErrorCode = "NOT_ON_CALL"
	ErrCodeAlreadyMember ErrorCode = "ALREADY_MEMBER"
	ErrCodeCircleFull    ErrorCode = "CIRCLE_FULL"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError represents a structured application error with code, message, and HTTP status
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface, returning a formatted error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewWithStatus creates a new AppError with a specific HTTP status code
func NewWithStatus(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WrapWithStatus wraps an existing error with an AppError and specific status code
func WrapWithStatus(code ErrorCode, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Validation errors
func ValidationError(message string) *AppError {
	return NewWithStatus(ErrCodeValidation, message, http.StatusBadRequest)
}

func InvalidInputError(message string) *AppError {
	return NewWithStatus(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func MissingFieldError(field string) *AppError {
	return NewWithStatus(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field), http.StatusBadRequest)
}

// Not found errors
func NotFoundError(resource string) *AppError {
	return NewWithStatus(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func CallNotFoundError(callID string) *AppError {
	return NewWithStatus(ErrCodeCallNotFound, fmt.Sprintf("Call %s does not exist", callID), http.StatusNotFound)
}

func CircleNotFoundError(circleID string) *AppError {
	return NewWithStatus(ErrCodeCircleNotFound, fmt.Sprintf("Circle %s does not exist", circleID), http.StatusNotFound)
}

func EventNotFoundError(eventID string) *AppError {
	return NewWithStatus(ErrCodeEventNotFound, fmt.Sprintf("Event %s does not exist", eventID), http.StatusNotFound)
}

func PostNotFoundError(postID string) *AppError {
	return NewWithStatus(ErrCodePostNotFound, fmt.Sprintf("Post %s does not exist", postID), http.StatusNotFound)
}

// NotOnAnyCallError is the expected miss of a current-call lookup;
// callers treat it as a recoverable outcome, not a defect.
func NotOnAnyCallError(userID string) *AppError {
	return NewWithStatus(ErrCodeNotOnAnyCall, fmt.Sprintf("User %s is not currently on any call", userID), http.StatusNotFound)
}

// Authorization errors
func NotCallAdminError(userID, callID string) *AppError {
	return NewWithStatus(ErrCodeNotCallAdmin, fmt.Sprintf("User %s is not the admin of call %s", userID, callID), http.StatusForbidden)
}

// CallAdminForbiddenError rejects the call admin from participant-only
// actions; the admin role excludes the participant, listener and queue roles.
func CallAdminForbiddenError(userID, callID string) *AppError {
	return NewWithStatus(ErrCodeCallAdminForbidden, fmt.Sprintf("User %s is the admin of call %s", userID, callID), http.StatusForbidden)
}

func NotCircleAdminError(userID, circleID string) *AppError {
	return NewWithStatus(ErrCodeNotCircleAdmin, fmt.Sprintf("User %s is not the admin of circle %s", userID, circleID), http.StatusForbidden)
}

func NotCircleMemberError(userID, circleID string) *AppError {
	return NewWithStatus(ErrCodeNotCircleMember, fmt.Sprintf("User %s is not a member of circle %s", userID, circleID), http.StatusForbidden)
}

func NotEventCreatorError(userID, eventID string) *AppError {
	return NewWithStatus(ErrCodeNotEventCreator, fmt.Sprintf("User %s is not the creator of event %s", userID, eventID), http.StatusForbidden)
}

func NotPostAuthorError(userID, postID string) *AppError {
	return NewWithStatus(ErrCodeNotPostAuthor, fmt.Sprintf("User %s is not the author of post %s", userID, postID), http.StatusForbidden)
}

// State conflict errors
func AlreadyOnCallError(userID, callID string) *AppError {
	return NewWithStatus(ErrCodeAlreadyOnCall, fmt.Sprintf("User %s is already on call %s", userID, callID), http.StatusConflict)
}

func NotOnCallError(userID, callID string) *AppError {
	return NewWithStatus(ErrCodeNotOnCall, fmt.Sprintf("User %s is not a participant of call %s", userID, callID), http.StatusConflict)
}

func AlreadyMemberError(userID, circleID string) *AppError {
	return NewWithStatus(ErrCodeAlreadyMember, fmt.Sprintf("User %s is already a member of circle %s", userID, circleID), http.StatusConflict)
}

func CircleFullError(circleID string, capacity int) *AppError {
	return NewWithStatus(ErrCodeCircleFull, fmt.Sprintf("Circle %s has reached its capacity of %d", circleID, capacity), http.StatusConflict)
}

// Internal errors
func InternalError(message string) *AppError {
	return NewWithStatus(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(err error) *AppError {
	return WrapWithStatus(ErrCodeDatabase, "Database error", http.StatusInternalServerError, err)
}

// IsAppError checks if an error is an AppError type
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError extracts AppError from an error, wrapping non-AppErrors as InternalError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return InternalError(err.Error())
}

// HasCode reports whether err is an AppError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
