package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Handlers map these onto HTTP codes.
var (
	ErrProblemNotFound    = errors.New("problem not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAnswerNotFound     = errors.New("answer not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrKnowledgeNotFound  = errors.New("knowledge point not found")
	ErrProgressNotFound   = errors.New("learning progress not found")

	// ErrAttemptLimitExceeded means the assignment's max attempts is used up.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")

	// ErrSequenceOutOfRange means a target position fell outside 1..N.
	ErrSequenceOutOfRange = errors.New("sequence position out of range")

	// ErrDeleteFailed means a delete targeted a row that does not exist.
	// It is surfaced as a server error, not a client one.
	ErrDeleteFailed = errors.New("delete failed: record not found")

	ErrDuplicateKnowledge = errors.New("knowledge point already in course")
	ErrNotAutoGradable    = errors.New("problem is not auto gradable")
)

// ValidationError reports a single invalid field on a request.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// PermissionError reports a denied action on a resource.
type PermissionError struct {
	UserID     string      `json:"user_id"`
	ResourceID interface{} `json:"resource_id"`
	Resource   string      `json:"resource"`
	Action     string      `json:"action"`
	Reason     string      `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID string, resourceID interface{}, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError reports a domain rule violation with structured context.
type BusinessRuleError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Code, e.Message)
}

func NewBusinessRuleError(code, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// IsClientError reports whether the error is the caller's fault. Anything
// else is treated as an internal failure by the HTTP layer.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrProblemNotFound),
		errors.Is(err, ErrAssignmentNotFound),
		errors.Is(err, ErrAnswerNotFound),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrKnowledgeNotFound),
		errors.Is(err, ErrProgressNotFound),
		errors.Is(err, ErrAttemptLimitExceeded),
		errors.Is(err, ErrSequenceOutOfRange),
		errors.Is(err, ErrDuplicateKnowledge),
		errors.Is(err, ErrNotAutoGradable):
		return true
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var pe *PermissionError
	if errors.As(err, &pe) {
		return true
	}
	var bre *BusinessRuleError
	if errors.As(err, &bre) {
		return true
	}

	return false
}

// IsNotFoundError reports whether the error is one of the not-found sentinels.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProblemNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrKnowledgeNotFound) ||
		errors.Is(err, ErrProgressNotFound)
}
