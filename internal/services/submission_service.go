package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/events"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
	"github.com/brightclass/mastery-service/internal/validator"
)

type submissionService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	grader         *AutoGrader
	eventPublisher events.EventPublisher
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		grader:         NewAutoGrader(),
		eventPublisher: publisher,
	}
}

// answerHistoryEntry is what gets appended to AnswerHistory when a
// resubmission overwrites the row.
type answerHistoryEntry struct {
	Answer         string     `json:"answer"`
	AttemptNumber  int        `json:"attempt_number"`
	AutomaticScore *float64   `json:"automatic_score,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

func (s *submissionService) Submit(ctx context.Context, req *SubmitAnswerRequest) (*AnswerResponse, error) {
	s.logger.Info("Submitting answer",
		"student_id", req.StudentID,
		"problem_id", req.ProblemID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	normalized := normalizeAnswer(req.Answer)

	var answer *models.StudentAnswer
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		problem, err := repo.Problem().GetByID(ctx, nil, req.ProblemID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrProblemNotFound
			}
			return fmt.Errorf("failed to get problem: %w", err)
		}

		assignment, err := repo.Assignment().GetByID(ctx, nil, problem.AssignmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAssignmentNotFound
			}
			return fmt.Errorf("failed to get assignment: %w", err)
		}

		// Locked read: two concurrent resubmissions must not both see the
		// same attempt number and slip past the limit.
		existing, err := repo.Answer().GetByStudentAndProblem(ctx, nil, req.StudentID, req.ProblemID, true)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get existing answer: %w", err)
		}

		now := time.Now()

		if existing != nil && err == nil {
			if existing.AttemptNumber+1 > assignment.MaxAttempts {
				return ErrAttemptLimitExceeded
			}

			history, herr := appendHistory(existing)
			if herr != nil {
				return herr
			}

			existing.AnswerHistory = history
			existing.Answer = normalized
			existing.AttemptNumber++
			existing.Status = models.AnswerSubmitted
			existing.SubmittedAt = timePtr(now)

			// A new answer invalidates any previous grading
			existing.ManualScore = nil
			existing.GradedBy = nil
			existing.GradedAt = nil
			existing.AutomaticScore = nil
			existing.AutoGraded = false
			existing.GradingStatus = models.GradingPending

			answer = existing
		} else {
			answer = &models.StudentAnswer{
				StudentID:     req.StudentID,
				AssignmentID:  problem.AssignmentID,
				ProblemID:     req.ProblemID,
				Answer:        normalized,
				AttemptNumber: 1,
				Status:        models.AnswerSubmitted,
				GradingStatus: models.GradingPending,
				SubmittedAt:   timePtr(now),
			}
		}

		if err := s.autoGrade(answer, problem, now); err != nil {
			return err
		}

		if answer.ID == 0 {
			if err := repo.Answer().Create(ctx, nil, answer); err != nil {
				return fmt.Errorf("failed to create answer: %w", err)
			}
		} else {
			if err := repo.Answer().Update(ctx, nil, answer); err != nil {
				return fmt.Errorf("failed to update answer: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishSubmitted(ctx, answer)
	if answer.AutoGraded {
		s.publishGraded(ctx, answer)
	}

	s.logger.Info("Answer submitted",
		"answer_id", answer.ID,
		"attempt_number", answer.AttemptNumber,
		"auto_graded", answer.AutoGraded)

	return buildAnswerResponse(answer), nil
}

// autoGrade scores the answer inline when the problem supports it. Problems
// that need human review stay PENDING.
func (s *submissionService) autoGrade(answer *models.StudentAnswer, problem *models.Problem, now time.Time) error {
	if !problem.AutoGradable || !problem.Type.IsObjective() {
		return nil
	}

	correct, err := s.grader.Grade(problem.Type, problem.ExpectedAnswer, answer.Answer)
	if err != nil {
		return fmt.Errorf("auto-grading failed: %w", err)
	}

	score := s.grader.Score(correct, problem.Points)
	answer.AutomaticScore = &score
	answer.AutoGraded = true
	answer.GradingStatus = models.GradingSuccess
	answer.GradedAt = timePtr(now)
	// GradedBy stays nil for automatic grading

	return nil
}

func (s *submissionService) Grade(ctx context.Context, answerID uint, req *GradeAnswerRequest, graderID string) (*GradingResult, error) {
	s.logger.Info("Manually grading answer",
		"answer_id", answerID,
		"grader_id", graderID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	grader, err := s.repo.User().GetByID(ctx, graderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get grader: %w", err)
	}
	if grader.Role != models.RoleTeacher && grader.Role != models.RoleAdmin {
		return nil, NewPermissionError(graderID, answerID, "answer", "grade", "insufficient role")
	}

	var result *GradingResult
	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		answer, err := repo.Answer().GetByID(ctx, nil, answerID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAnswerNotFound
			}
			return fmt.Errorf("failed to get answer: %w", err)
		}

		problem, err := repo.Problem().GetByID(ctx, nil, answer.ProblemID)
		if err != nil {
			return fmt.Errorf("failed to get problem: %w", err)
		}

		if req.Score > problem.Points {
			return NewValidationError("score",
				fmt.Sprintf("score must be between 0 and %g", problem.Points), req.Score)
		}

		now := time.Now()
		score := req.Score
		answer.ManualScore = &score
		answer.GradedBy = &graderID
		answer.GradedAt = timePtr(now)
		answer.GradingStatus = models.GradingSuccess

		if err := repo.Answer().Update(ctx, nil, answer); err != nil {
			return fmt.Errorf("failed to update answer: %w", err)
		}

		result = &GradingResult{
			AnswerID:   answer.ID,
			ProblemID:  answer.ProblemID,
			Score:      score,
			MaxScore:   problem.Points,
			IsCorrect:  score > 0,
			AutoGraded: false,
			GradedAt:   now,
			GradedBy:   &graderID,
		}

		s.publishGraded(ctx, answer)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *submissionService) Delete(ctx context.Context, answerID uint) error {
	answer, err := s.repo.Answer().GetByID(ctx, s.db, answerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDeleteFailed
		}
		return fmt.Errorf("failed to get answer: %w", err)
	}

	if err := s.repo.Answer().Delete(ctx, s.db, answerID); err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.EventAnswerDeleted, events.AnswerSubmittedEvent{
		AnswerID:     answer.ID,
		StudentID:    answer.StudentID,
		ProblemID:    answer.ProblemID,
		AssignmentID: answer.AssignmentID,
	}))

	s.logger.Info("Answer deleted", "answer_id", answerID)
	return nil
}

func (s *submissionService) GetByID(ctx context.Context, answerID uint) (*AnswerResponse, error) {
	answer, err := s.repo.Answer().GetByIDWithDetails(ctx, s.db, answerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return buildAnswerResponse(answer), nil
}

func (s *submissionService) GetByStudentAndAssignment(ctx context.Context, studentID string, assignmentID uint) ([]*AnswerResponse, error) {
	answers, err := s.repo.Answer().GetByStudentAndAssignment(ctx, s.db, studentID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	responses := make([]*AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		responses = append(responses, buildAnswerResponse(answer))
	}
	return responses, nil
}

// ReGradeProblem re-runs auto-grading over every answer to one problem.
// Manual scores survive: they still win in FinalScore.
func (s *submissionService) ReGradeProblem(ctx context.Context, problemID uint, userID string) ([]GradingResult, error) {
	s.logger.Info("Re-grading all answers for problem",
		"problem_id", problemID,
		"user_id", userID)

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleTeacher && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, problemID, "problem", "regrade", "insufficient role")
	}

	problem, err := s.repo.Problem().GetByID(ctx, s.db, problemID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProblemNotFound
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	if !problem.AutoGradable || !problem.Type.IsObjective() {
		return nil, ErrNotAutoGradable
	}

	answers, err := s.repo.Answer().GetByProblem(ctx, s.db, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers for problem: %w", err)
	}

	var results []GradingResult
	for _, answer := range answers {
		now := time.Now()
		if err := s.autoGrade(answer, problem, now); err != nil {
			s.logger.Error("Failed to re-grade answer", "answer_id", answer.ID, "error", err)
			continue
		}
		if err := s.repo.Answer().Update(ctx, s.db, answer); err != nil {
			s.logger.Error("Failed to persist re-graded answer", "answer_id", answer.ID, "error", err)
			continue
		}

		results = append(results, GradingResult{
			AnswerID:   answer.ID,
			ProblemID:  problemID,
			Score:      *answer.AutomaticScore,
			MaxScore:   problem.Points,
			IsCorrect:  *answer.AutomaticScore > 0,
			AutoGraded: true,
			GradedAt:   now,
		})
		s.publishGraded(ctx, answer)
	}

	s.logger.Info("Problem re-grading completed",
		"problem_id", problemID,
		"answers_processed", len(results))

	return results, nil
}

// ===== HELPERS =====

// normalizeAnswer trims the answer and collapses runs of whitespace so that
// stored answers compare cleanly.
func normalizeAnswer(answer string) string {
	return strings.Join(strings.Fields(answer), " ")
}

func appendHistory(answer *models.StudentAnswer) (datatypes.JSON, error) {
	var history []answerHistoryEntry
	if len(answer.AnswerHistory) > 0 {
		if err := json.Unmarshal(answer.AnswerHistory, &history); err != nil {
			return nil, fmt.Errorf("failed to decode answer history: %w", err)
		}
	}

	history = append(history, answerHistoryEntry{
		Answer:         answer.Answer,
		AttemptNumber:  answer.AttemptNumber,
		AutomaticScore: answer.AutomaticScore,
		SubmittedAt:    answer.SubmittedAt,
	})

	encoded, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer history: %w", err)
	}
	return encoded, nil
}

func buildAnswerResponse(answer *models.StudentAnswer) *AnswerResponse {
	return &AnswerResponse{
		StudentAnswer: answer,
		FinalScore:    answer.FinalScore(),
	}
}

func timePtr(now time.Time) *time.Time {
	return &now
}

func (s *submissionService) publishSubmitted(ctx context.Context, answer *models.StudentAnswer) {
	s.publishEvent(ctx, events.NewEvent(events.EventAnswerSubmitted, events.AnswerSubmittedEvent{
		AnswerID:      answer.ID,
		StudentID:     answer.StudentID,
		ProblemID:     answer.ProblemID,
		AssignmentID:  answer.AssignmentID,
		AttemptNumber: answer.AttemptNumber,
	}))
}

func (s *submissionService) publishGraded(ctx context.Context, answer *models.StudentAnswer) {
	s.publishEvent(ctx, events.NewEvent(events.EventAnswerGraded, events.AnswerGradedEvent{
		AnswerID:     answer.ID,
		StudentID:    answer.StudentID,
		ProblemID:    answer.ProblemID,
		AssignmentID: answer.AssignmentID,
		Score:        answer.FinalScore(),
		AutoGraded:   answer.AutoGraded,
		GradedBy:     answer.GradedBy,
	}))
}

func (s *submissionService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
