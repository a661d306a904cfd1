package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

type scoreService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewScoreService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ScoreService {
	return &scoreService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// CompletionRate is submitted answers over the assignment's problem count.
// An assignment with no problems reports zero instead of dividing by zero.
func (s *scoreService) CompletionRate(ctx context.Context, studentID string, assignmentID uint) (*CompletionRateResult, error) {
	if _, err := s.repo.Assignment().GetByID(ctx, s.db, assignmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	total, err := s.repo.Problem().CountByAssignment(ctx, s.db, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count problems: %w", err)
	}

	answers, err := s.repo.Answer().GetByStudentAndAssignment(ctx, s.db, studentID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	completed := 0
	for _, answer := range answers {
		if answer.Status == models.AnswerSubmitted {
			completed++
		}
	}

	result := &CompletionRateResult{
		AssignmentID:      assignmentID,
		StudentID:         studentID,
		TotalProblems:     int(total),
		CompletedProblems: completed,
	}
	if total > 0 {
		result.Rate = float64(completed) / float64(total)
	}

	return result, nil
}

// AccuracyRate counts answers whose final score is present and positive,
// over every answer row the student has for the assignment. Ungraded rows
// stay in the denominator.
func (s *scoreService) AccuracyRate(ctx context.Context, studentID string, assignmentID uint) (*AccuracyRateResult, error) {
	if _, err := s.repo.Assignment().GetByID(ctx, s.db, assignmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	answers, err := s.repo.Answer().GetByStudentAndAssignment(ctx, s.db, studentID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	correct := 0
	for _, answer := range answers {
		if final := answer.FinalScore(); final != nil && *final > 0 {
			correct++
		}
	}

	result := &AccuracyRateResult{
		AssignmentID:   assignmentID,
		StudentID:      studentID,
		CorrectAnswers: correct,
		TotalAnswers:   len(answers),
	}
	if len(answers) > 0 {
		result.Rate = float64(correct) / float64(len(answers))
	}

	return result, nil
}

func (s *scoreService) GetGradingOverview(ctx context.Context, assignmentID uint, userID string) (*GradingOverview, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleTeacher && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, assignmentID, "assignment", "view_grading", "insufficient role")
	}

	if _, err := s.repo.Assignment().GetByID(ctx, s.db, assignmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	stats, err := s.repo.Answer().GetGradingStats(ctx, s.db, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get grading stats: %w", err)
	}

	return &GradingOverview{
		AssignmentID:   assignmentID,
		TotalAnswers:   stats.TotalAnswers,
		GradedAnswers:  stats.GradedAnswers,
		PendingAnswers: stats.PendingAnswers,
		AutoGraded:     stats.AutoGraded,
		ManualGraded:   stats.ManualGraded,
		AverageScore:   stats.AverageScore,
	}, nil
}
