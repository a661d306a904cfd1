package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ExportScoreSheet renders one row per (student, problem) answer with the
// derived final score. Ungraded answers export with an empty score cell.
func (s *exportService) ExportScoreSheet(ctx context.Context, assignmentID uint, userID string) ([]byte, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleTeacher && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, assignmentID, "assignment", "export", "insufficient role")
	}

	assignment, err := s.repo.Assignment().GetByIDWithProblems(ctx, s.db, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	answers, err := s.repo.Answer().GetByAssignment(ctx, s.db, assignmentID, repositories.AnswerFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	problemTitles := make(map[uint]string, len(assignment.Problems))
	problemPoints := make(map[uint]float64, len(assignment.Problems))
	for _, problem := range assignment.Problems {
		problemTitles[problem.ID] = problem.Title
		problemPoints[problem.ID] = problem.Points
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Scores"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Student ID", "Problem", "Attempt", "Answer", "Auto Score", "Manual Score", "Final Score", "Max Points", "Grading Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, answer := range answers {
		values := []interface{}{
			answer.StudentID,
			problemTitles[answer.ProblemID],
			answer.AttemptNumber,
			answer.Answer,
			floatOrEmpty(answer.AutomaticScore),
			floatOrEmpty(answer.ManualScore),
			floatOrEmpty(answer.FinalScore()),
			problemPoints[answer.ProblemID],
			string(answer.GradingStatus),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Score sheet exported",
		"assignment_id", assignmentID,
		"rows", len(answers))

	return buf.Bytes(), nil
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
