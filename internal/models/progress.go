package models

import (
	"time"
)

type LearningStatus string

const (
	LearningInProgress LearningStatus = "in_progress"
	LearningMastered   LearningStatus = "mastered"
)

// MasteredThreshold is the mastery level at or above which a knowledge point
// counts as mastered.
const MasteredThreshold = 0.8

// LearningProgress is the single mastery record per (student, knowledge point)
// pair. MasteryLevel is always clamped to [0,1].
type LearningProgress struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_student_knowledge"`
	KnowledgeID uint   `json:"knowledge_id" gorm:"not null;uniqueIndex:idx_student_knowledge"`

	MasteryLevel   float64        `json:"mastery_level" gorm:"type:decimal(5,4);not null;default:0"`
	LearningStatus LearningStatus `json:"learning_status" gorm:"not null;default:in_progress;size:20"`
	ReviewCount    int            `json:"review_count" gorm:"not null;default:0"`
	LastReviewedAt *time.Time     `json:"last_reviewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Knowledge KnowledgePoint `json:"knowledge" gorm:"foreignKey:KnowledgeID"`
}

// StatusForLevel derives the learning status from a mastery level.
func StatusForLevel(level float64) LearningStatus {
	if level >= MasteredThreshold {
		return LearningMastered
	}
	return LearningInProgress
}
