package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AnswerFilters struct {
	Status        *models.AnswerStatus  `json:"status"`
	GradingStatus *models.GradingStatus `json:"grading_status"`
	AutoGraded    *bool                 `json:"auto_graded"`
	DateFrom      *time.Time            `json:"date_from"`
	DateTo        *time.Time            `json:"date_to"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

type ProgressFilters struct {
	Status *models.LearningStatus `json:"status"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type GradingStats struct {
	TotalAnswers   int     `json:"total_answers"`
	GradedAnswers  int     `json:"graded_answers"`
	PendingAnswers int     `json:"pending_answers"`
	AutoGraded     int     `json:"auto_graded"`
	ManualGraded   int     `json:"manual_graded"`
	AverageScore   float64 `json:"average_score"`
}

// ===== ENTITY REPOSITORIES =====

type ProblemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, problem *models.Problem) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Problem, error)
	GetByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.Problem, error)
	Update(ctx context.Context, tx *gorm.DB, problem *models.Problem) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) (int64, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error)
	GetByIDWithProblems(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error)
	Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
}

type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error)

	// GetByStudentAndProblem returns gorm.ErrRecordNotFound when no row exists
	// for the pair. Callers rely on that to distinguish first submit from
	// resubmit. When forUpdate is true the row is locked for the enclosing
	// transaction, serializing concurrent resubmissions of the same pair.
	GetByStudentAndProblem(ctx context.Context, tx *gorm.DB, studentID string, problemID uint, forUpdate bool) (*models.StudentAnswer, error)
	GetByStudentAndAssignment(ctx context.Context, tx *gorm.DB, studentID string, assignmentID uint) ([]*models.StudentAnswer, error)
	GetByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint, filters AnswerFilters) ([]*models.StudentAnswer, error)
	GetByProblem(ctx context.Context, tx *gorm.DB, problemID uint) ([]*models.StudentAnswer, error)
	Update(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	GetGradingStats(ctx context.Context, tx *gorm.DB, assignmentID uint) (*GradingStats, error)
}

type CourseRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
}

type KnowledgeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, knowledge *models.KnowledgePoint) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.KnowledgePoint, error)
	Update(ctx context.Context, tx *gorm.DB, knowledge *models.KnowledgePoint) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type CourseKnowledgeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, link *models.CourseKnowledge) error

	// GetByCourseOrdered loads the full list for a course ordered by sequence.
	// When forUpdate is true the rows are locked for the enclosing
	// transaction, serializing concurrent reorders on the same course.
	GetByCourseOrdered(ctx context.Context, tx *gorm.DB, courseID uint, forUpdate bool) ([]*models.CourseKnowledge, error)
	GetByCourseAndKnowledge(ctx context.Context, tx *gorm.DB, courseID, knowledgeID uint) (*models.CourseKnowledge, error)
	UpdateSequence(ctx context.Context, tx *gorm.DB, id uint, sequence int) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteByCourseAndKnowledge(ctx context.Context, tx *gorm.DB, courseID uint, knowledgeIDs []uint) (int64, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
	CountByKnowledge(ctx context.Context, tx *gorm.DB, knowledgeID uint) (int64, error)
}

type ProgressRepository interface {
	Create(ctx context.Context, tx *gorm.DB, progress *models.LearningProgress) error
	GetByStudentAndKnowledge(ctx context.Context, tx *gorm.DB, studentID string, knowledgeID uint) (*models.LearningProgress, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters ProgressFilters) ([]*models.LearningProgress, error)
	Update(ctx context.Context, tx *gorm.DB, progress *models.LearningProgress) error
}

// UserRepository is read-only; users live in Casdoor.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
