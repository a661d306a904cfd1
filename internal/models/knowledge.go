package models

import (
	"time"
)

// Course is the container knowledge points are sequenced within.
type Course struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`
	CreatedBy   string  `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnowledgePoint holds the teachable content that courses reference.
type KnowledgePoint struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`
	Content     *string `json:"content" gorm:"type:text"`
	CreatedBy   string  `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseKnowledge associates a knowledge point with a course at a position.
//
// Invariant: for a fixed course the sequence numbers are exactly 1..N. Every
// reorder, insert, or delete renumbers the full list; the list, not the row,
// is the unit of consistency.
type CourseKnowledge struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	CourseID    uint `json:"course_id" gorm:"not null;uniqueIndex:idx_course_knowledge"`
	KnowledgeID uint `json:"knowledge_id" gorm:"not null;uniqueIndex:idx_course_knowledge"`
	Sequence    int  `json:"sequence" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course    Course         `json:"-" gorm:"foreignKey:CourseID"`
	Knowledge KnowledgePoint `json:"knowledge" gorm:"foreignKey:KnowledgeID"`
}
