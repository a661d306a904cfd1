package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

// TextCompletionClient generates the narrative section of a study report.
// Implementations wrap whatever model endpoint the deployment uses.
type TextCompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type reportService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	completion TextCompletionClient
	mastery    MasteryService
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, completion TextCompletionClient, mastery MasteryService) ReportService {
	return &reportService{
		repo:       repo,
		db:         db,
		logger:     logger,
		completion: completion,
		mastery:    mastery,
	}
}

func (s *reportService) GenerateStudyReport(ctx context.Context, studentID string) (*StudyReport, error) {
	s.logger.Info("Generating study report", "student_id", studentID)

	summaries, err := s.mastery.GetStudentSummary(ctx, studentID, repositories.ProgressFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get mastery summary: %w", err)
	}

	report := &StudyReport{
		StudentID:   studentID,
		GeneratedAt: time.Now(),
		Masteries:   make([]MasterySummary, 0, len(summaries)),
	}
	for _, summary := range summaries {
		report.Masteries = append(report.Masteries, *summary)
	}

	report.Narrative = s.buildNarrative(ctx, report.Masteries)

	return report, nil
}

// buildNarrative asks the completion client for prose; when no client is
// configured or the call fails, it falls back to a plain template so the
// report endpoint never breaks on a model outage.
func (s *reportService) buildNarrative(ctx context.Context, masteries []MasterySummary) string {
	fallback := fallbackNarrative(masteries)

	if s.completion == nil {
		return fallback
	}

	narrative, err := s.completion.Complete(ctx, narrativePrompt(masteries))
	if err != nil {
		s.logger.Warn("Completion client failed, using fallback narrative", "error", err)
		return fallback
	}
	if strings.TrimSpace(narrative) == "" {
		return fallback
	}
	return narrative
}

func narrativePrompt(masteries []MasterySummary) string {
	var b strings.Builder
	b.WriteString("Write a short study progress summary for a student with the following knowledge point mastery levels:\n")
	for _, m := range masteries {
		fmt.Fprintf(&b, "- %s: %.0f%% (%s, %d reviews)\n",
			m.KnowledgeName, m.MasteryLevel*100, m.LearningStatus, m.ReviewCount)
	}
	b.WriteString("Highlight mastered topics and suggest what to review next.")
	return b.String()
}

func fallbackNarrative(masteries []MasterySummary) string {
	mastered := 0
	for _, m := range masteries {
		if m.LearningStatus == models.LearningMastered {
			mastered++
		}
	}
	return fmt.Sprintf("Tracked %d knowledge points, %d mastered.", len(masteries), mastered)
}
