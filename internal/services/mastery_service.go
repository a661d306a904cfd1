package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/events"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
	"github.com/brightclass/mastery-service/internal/validator"
)

// EMA weights for folding a new review score into the running mastery level.
const (
	masteryHistoryWeight = 0.7
	masteryScoreWeight   = 0.3
)

type masteryService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewMasteryService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) MasteryService {
	return &masteryService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      v,
		eventPublisher: publisher,
	}
}

func (s *masteryService) UpdateMastery(ctx context.Context, req *UpdateMasteryRequest) (*MasteryResult, error) {
	s.logger.Info("Updating mastery",
		"student_id", req.StudentID,
		"knowledge_id", req.KnowledgeID,
		"score", req.Score)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	score := clampMastery(req.Score)
	if score != req.Score {
		s.logger.Warn("Review score clamped",
			"student_id", req.StudentID,
			"knowledge_id", req.KnowledgeID,
			"raw_score", req.Score,
			"clamped_score", score)
	}

	var result *MasteryResult
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if _, err := repo.Knowledge().GetByID(ctx, nil, req.KnowledgeID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrKnowledgeNotFound
			}
			return fmt.Errorf("failed to get knowledge point: %w", err)
		}

		progress, err := repo.Progress().GetByStudentAndKnowledge(ctx, nil, req.StudentID, req.KnowledgeID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get progress: %w", err)
		}

		now := time.Now()

		if progress == nil || err != nil {
			// First review seeds the level with the clamped score
			level := roundMastery(score)
			progress = &models.LearningProgress{
				StudentID:      req.StudentID,
				KnowledgeID:    req.KnowledgeID,
				MasteryLevel:   level,
				LearningStatus: models.StatusForLevel(level),
				ReviewCount:    1,
				LastReviewedAt: timePtr(now),
			}
			if err := repo.Progress().Create(ctx, nil, progress); err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}

			result = s.buildResult(progress, 0)
			return nil
		}

		previous := progress.MasteryLevel
		level := masteryHistoryWeight*previous + masteryScoreWeight*score

		if clamped := clampMastery(level); clamped != level {
			s.logger.Warn("Mastery level clamped",
				"student_id", req.StudentID,
				"knowledge_id", req.KnowledgeID,
				"raw_level", level)
			level = clamped
		}
		level = roundMastery(level)

		progress.MasteryLevel = level
		progress.LearningStatus = models.StatusForLevel(level)
		progress.ReviewCount++
		progress.LastReviewedAt = timePtr(now)

		if err := repo.Progress().Update(ctx, nil, progress); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}

		result = s.buildResult(progress, previous)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMasteryUpdated(ctx, result)

	s.logger.Info("Mastery updated",
		"student_id", result.StudentID,
		"knowledge_id", result.KnowledgeID,
		"mastery_level", result.MasteryLevel,
		"status", result.Status)

	return result, nil
}

func (s *masteryService) GetProgress(ctx context.Context, studentID string, knowledgeID uint) (*models.LearningProgress, error) {
	progress, err := s.repo.Progress().GetByStudentAndKnowledge(ctx, s.db, studentID, knowledgeID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

func (s *masteryService) GetStudentSummary(ctx context.Context, studentID string, filters repositories.ProgressFilters) ([]*MasterySummary, error) {
	progresses, err := s.repo.Progress().GetByStudent(ctx, s.db, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get student progress: %w", err)
	}

	summaries := make([]*MasterySummary, 0, len(progresses))
	for _, progress := range progresses {
		summary := &MasterySummary{
			KnowledgeID:    progress.KnowledgeID,
			MasteryLevel:   progress.MasteryLevel,
			LearningStatus: progress.LearningStatus,
			ReviewCount:    progress.ReviewCount,
			LastReviewedAt: progress.LastReviewedAt,
		}

		if knowledge, err := s.repo.Knowledge().GetByID(ctx, s.db, progress.KnowledgeID); err == nil {
			summary.KnowledgeName = knowledge.Name
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *masteryService) buildResult(progress *models.LearningProgress, previous float64) *MasteryResult {
	return &MasteryResult{
		StudentID:     progress.StudentID,
		KnowledgeID:   progress.KnowledgeID,
		MasteryLevel:  progress.MasteryLevel,
		PreviousLevel: previous,
		Status:        progress.LearningStatus,
		ReviewCount:   progress.ReviewCount,
	}
}

func (s *masteryService) publishMasteryUpdated(ctx context.Context, result *MasteryResult) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventMasteryUpdated, events.MasteryUpdatedEvent{
		StudentID:     result.StudentID,
		KnowledgeID:   result.KnowledgeID,
		MasteryLevel:  result.MasteryLevel,
		PreviousLevel: result.PreviousLevel,
		Status:        string(result.Status),
		ReviewCount:   result.ReviewCount,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// roundMastery keeps stored levels at four decimal places, matching the
// decimal(5,4) column.
func roundMastery(level float64) float64 {
	return math.Round(level*10000) / 10000
}

func clampMastery(level float64) float64 {
	return math.Max(0, math.Min(1, level))
}
