package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by this service
const (
	EventAnswerSubmitted = "answer.submitted"
	EventAnswerGraded    = "answer.graded"
	EventAnswerDeleted   = "answer.deleted"
	EventMasteryUpdated  = "mastery.updated"
	EventSequenceChanged = "course.sequence_changed"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with the service identity filled in.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "mastery-service",
		Version:   "1.0",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// AnswerGradedEvent is emitted when an answer receives a score, whether from
// auto-grading or a teacher.
type AnswerGradedEvent struct {
	AnswerID     uint     `json:"answer_id"`
	StudentID    string   `json:"student_id"`
	ProblemID    uint     `json:"problem_id"`
	AssignmentID uint     `json:"assignment_id"`
	Score        *float64 `json:"score"`
	AutoGraded   bool     `json:"auto_graded"`
	GradedBy     *string  `json:"graded_by"`
}

// AnswerSubmittedEvent is emitted on every accepted submission.
type AnswerSubmittedEvent struct {
	AnswerID      uint   `json:"answer_id"`
	StudentID     string `json:"student_id"`
	ProblemID     uint   `json:"problem_id"`
	AssignmentID  uint   `json:"assignment_id"`
	AttemptNumber int    `json:"attempt_number"`
}

// MasteryUpdatedEvent is emitted after a review moves a student's mastery level.
type MasteryUpdatedEvent struct {
	StudentID     string  `json:"student_id"`
	KnowledgeID   uint    `json:"knowledge_id"`
	MasteryLevel  float64 `json:"mastery_level"`
	PreviousLevel float64 `json:"previous_level"`
	Status        string  `json:"status"`
	ReviewCount   int     `json:"review_count"`
}

// SequenceChangedEvent is emitted when a course's knowledge ordering mutates.
type SequenceChangedEvent struct {
	CourseID  uint   `json:"course_id"`
	Operation string `json:"operation"`
	Count     int    `json:"count"`
}
