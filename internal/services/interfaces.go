package services

import (
	"context"
	"time"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

// ===== SUBMISSION DTOS =====

type SubmitAnswerRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ProblemID uint   `json:"problem_id" validate:"required"`
	Answer    string `json:"answer"`
}

type GradeAnswerRequest struct {
	Score float64 `json:"score" validate:"min=0"`
}

type AnswerResponse struct {
	*models.StudentAnswer
	FinalScore *float64 `json:"final_score"`
}

type GradingResult struct {
	AnswerID   uint      `json:"answer_id"`
	ProblemID  uint      `json:"problem_id"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"max_score"`
	IsCorrect  bool      `json:"is_correct"`
	AutoGraded bool      `json:"auto_graded"`
	GradedAt   time.Time `json:"graded_at"`
	GradedBy   *string   `json:"graded_by"`
}

// ===== SCORE DTOS =====

type CompletionRateResult struct {
	AssignmentID      uint    `json:"assignment_id"`
	StudentID         string  `json:"student_id"`
	Rate              float64 `json:"rate"`
	TotalProblems     int     `json:"total_problems"`
	CompletedProblems int     `json:"completed_problems"`
}

type AccuracyRateResult struct {
	AssignmentID   uint    `json:"assignment_id"`
	StudentID      string  `json:"student_id"`
	Rate           float64 `json:"rate"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalAnswers   int     `json:"total_answers"`
}

type GradingOverview struct {
	AssignmentID   uint    `json:"assignment_id"`
	TotalAnswers   int     `json:"total_answers"`
	GradedAnswers  int     `json:"graded_answers"`
	PendingAnswers int     `json:"pending_answers"`
	AutoGraded     int     `json:"auto_graded"`
	ManualGraded   int     `json:"manual_graded"`
	AverageScore   float64 `json:"average_score"`
}

// ===== MASTERY DTOS =====

// UpdateMasteryRequest carries one review outcome. Out-of-range scores are
// clamped to [0,1] by the service, not rejected.
type UpdateMasteryRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	KnowledgeID uint    `json:"knowledge_id" validate:"required"`
	Score       float64 `json:"score"`
}

type MasteryResult struct {
	StudentID     string                `json:"student_id"`
	KnowledgeID   uint                  `json:"knowledge_id"`
	MasteryLevel  float64               `json:"mastery_level"`
	PreviousLevel float64               `json:"previous_level"`
	Status        models.LearningStatus `json:"status"`
	ReviewCount   int                   `json:"review_count"`
}

type MasterySummary struct {
	KnowledgeID    uint                  `json:"knowledge_id"`
	KnowledgeName  string                `json:"knowledge_name"`
	MasteryLevel   float64               `json:"mastery_level"`
	LearningStatus models.LearningStatus `json:"learning_status"`
	ReviewCount    int                   `json:"review_count"`
	LastReviewedAt *time.Time            `json:"last_reviewed_at"`
}

// ===== SEQUENCE DTOS =====

type SequenceEntry struct {
	KnowledgeID uint   `json:"knowledge_id"`
	Sequence    int    `json:"sequence"`
	Name        string `json:"name,omitempty"`
}

// ===== REPORT DTOS =====

type StudyReport struct {
	StudentID   string           `json:"student_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Masteries   []MasterySummary `json:"masteries"`
	Narrative   string           `json:"narrative"`
}

// ===== SERVICE INTERFACES =====

type SubmissionService interface {
	// Submit records or overwrites the student's answer for a problem,
	// auto-grading it inline when the problem allows.
	Submit(ctx context.Context, req *SubmitAnswerRequest) (*AnswerResponse, error)

	// Grade applies a manual score from a grader. Manual scores override
	// automatic ones in all reporting.
	Grade(ctx context.Context, answerID uint, req *GradeAnswerRequest, graderID string) (*GradingResult, error)

	Delete(ctx context.Context, answerID uint) error
	GetByID(ctx context.Context, answerID uint) (*AnswerResponse, error)
	GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) ([]*AnswerResponse, error)

	// ReGradeProblem re-runs auto-grading for every answer to a problem,
	// used after the expected answer is corrected.
	ReGradeProblem(ctx context.Context, problemID uint, userID string) ([]GradingResult, error)
}

type ScoreService interface {
	CompletionRate(ctx context.Context, studentID string, assignmentID uint) (*CompletionRateResult, error)
	AccuracyRate(ctx context.Context, studentID string, assignmentID uint) (*AccuracyRateResult, error)
	GetGradingOverview(ctx context.Context, assignmentID uint, userID string) (*GradingOverview, error)
}

type MasteryService interface {
	// UpdateMastery folds a new review score into the student's mastery
	// level for a knowledge point.
	UpdateMastery(ctx context.Context, req *UpdateMasteryRequest) (*MasteryResult, error)

	GetProgress(ctx context.Context, studentID string, knowledgeID uint) (*models.LearningProgress, error)
	GetStudentSummary(ctx context.Context, studentID string, filters repositories.ProgressFilters) ([]*MasterySummary, error)
}

type SequenceService interface {
	Append(ctx context.Context, courseID, knowledgeID uint) (*SequenceEntry, error)
	MoveTo(ctx context.Context, courseID, knowledgeID uint, newPosition int) error
	Remove(ctx context.Context, courseID, knowledgeID uint) error
	RemoveMany(ctx context.Context, courseID uint, knowledgeIDs []uint) (int, error)

	// CopyInto deep-copies a knowledge point's content into a new record
	// and appends the copy to the end of the course. The source record and
	// any course referencing it are untouched.
	CopyInto(ctx context.Context, courseID, sourceKnowledgeID uint) (*SequenceEntry, error)

	List(ctx context.Context, courseID uint) ([]*SequenceEntry, error)
}

type ExportService interface {
	// ExportScoreSheet renders per-student scores for an assignment as an
	// xlsx workbook.
	ExportScoreSheet(ctx context.Context, assignmentID uint, userID string) ([]byte, error)
}

type ReportService interface {
	GenerateStudyReport(ctx context.Context, studentID string) (*StudyReport, error)
}
