package models

import (
	"time"

	"gorm.io/datatypes"
)

type AnswerStatus string

const (
	AnswerNotSubmitted AnswerStatus = "NOT_SUBMITTED"
	AnswerSubmitted    AnswerStatus = "SUBMITTED"
	AnswerSaved        AnswerStatus = "SAVED"
)

type GradingStatus string

const (
	GradingPending  GradingStatus = "PENDING"
	GradingSuccess  GradingStatus = "SUCCESS"
	GradingReviewed GradingStatus = "REVIEWED"
)

// StudentAnswer is the single answer record per (student, problem) pair.
// Resubmission mutates the row in place; there is never more than one row
// per pair.
type StudentAnswer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_student_problem"`
	AssignmentID uint   `json:"assignment_id" gorm:"not null;index"`
	ProblemID    uint   `json:"problem_id" gorm:"not null;uniqueIndex:idx_student_problem"`

	Answer        string       `json:"answer" gorm:"type:text"`
	AttemptNumber int          `json:"attempt_number" gorm:"not null;default:1"`
	Status        AnswerStatus `json:"status" gorm:"not null;default:NOT_SUBMITTED;size:20"`

	// Grading
	GradingStatus  GradingStatus `json:"grading_status" gorm:"not null;default:PENDING;size:20"`
	AutoGraded     bool          `json:"auto_graded"`
	AutomaticScore *float64      `json:"automatic_score"`
	ManualScore    *float64      `json:"manual_score"`
	GradedBy       *string       `json:"graded_by" gorm:"size:255"`
	GradedAt       *time.Time    `json:"graded_at"`

	// AnswerHistory tracks prior submissions for audit; one JSON entry per
	// overwritten attempt.
	AnswerHistory datatypes.JSON `json:"answer_history" gorm:"type:jsonb"`

	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Problem    Problem    `json:"problem" gorm:"foreignKey:ProblemID"`
	Assignment Assignment `json:"-" gorm:"foreignKey:AssignmentID"`
}

// FinalScore derives the reporting score from its two nullable sources.
// Manual always wins; the result is never stored, so it cannot drift.
func FinalScore(manual, automatic *float64) *float64 {
	if manual != nil {
		return manual
	}
	return automatic
}

// FinalScore returns the derived final score for this answer.
func (a *StudentAnswer) FinalScore() *float64 {
	return FinalScore(a.ManualScore, a.AutomaticScore)
}
