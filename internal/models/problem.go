package models

import (
	"time"
)

type ProblemType string

const (
	SingleChoice ProblemType = "SINGLE_CHOICE"
	MultiChoice  ProblemType = "MULTI_CHOICE"
	FillBlank    ProblemType = "FILL_BLANK"
	Essay        ProblemType = "ESSAY"
	TrueFalse    ProblemType = "TRUE_FALSE"
)

// IsObjective reports whether correctness can be decided by comparison alone,
// without human judgment.
func (t ProblemType) IsObjective() bool {
	switch t {
	case SingleChoice, MultiChoice, FillBlank, TrueFalse:
		return true
	default:
		return false
	}
}

// Problem is a gradable unit belonging to an Assignment.
//
// The type must be treated as immutable once a student answer exists for the
// problem; storage does not enforce this, services do.
type Problem struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	AssignmentID uint        `json:"assignment_id" gorm:"not null;index"`
	Type         ProblemType `json:"type" gorm:"not null;size:20"`
	Title        string      `json:"title" gorm:"not null;type:text"`
	AutoGradable bool        `json:"auto_gradable"`

	// ExpectedAnswer is the canonical answer string. For MULTI_CHOICE it is a
	// whitespace-separated option list ("A C").
	ExpectedAnswer string `json:"expected_answer" gorm:"type:text"`

	Points   float64 `json:"points" gorm:"not null;default:0"`
	Sequence int     `json:"sequence" gorm:"not null;default:1"`

	CreatedBy string    `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assignment Assignment `json:"-" gorm:"foreignKey:AssignmentID"`
}

// Assignment groups problems and carries the resubmission policy.
type Assignment struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	CourseID    uint    `json:"course_id" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`

	// MaxAttempts bounds how many times a student may resubmit any one problem.
	MaxAttempts int `json:"max_attempts" gorm:"not null;default:1"`

	CreatedBy string    `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Problems []Problem `json:"problems,omitempty" gorm:"foreignKey:AssignmentID"`
}
