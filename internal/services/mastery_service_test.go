package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/brightclass/mastery-service/internal/events"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
	"github.com/brightclass/mastery-service/internal/validator"
)

func newMasteryFixture() (*masteryService, *mockRepository, *events.MockEventPublisher) {
	logger := testLogger()
	mockRepo := newMockRepository()
	mockPublisher := events.NewMockEventPublisher(logger)

	service := &masteryService{
		repo:           mockRepo,
		logger:         logger,
		validator:      validator.New(),
		eventPublisher: mockPublisher,
	}
	return service, mockRepo, mockPublisher
}

func seedMasteryData(mockRepo *mockRepository) {
	mockRepo.knowledge[1] = &models.KnowledgePoint{ID: 1, Name: "Fractions"}
	mockRepo.knowledge[2] = &models.KnowledgePoint{ID: 2, Name: "Decimals"}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMasteryService_UpdateMastery(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstReview_SeedsLevel", func(t *testing.T) {
		service, mockRepo, mockPublisher := newMasteryFixture()
		seedMasteryData(mockRepo)

		result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{
			StudentID:   "student-1",
			KnowledgeID: 1,
			Score:       0.2,
		})
		if err != nil {
			t.Fatalf("UpdateMastery failed: %v", err)
		}

		if !almostEqual(result.MasteryLevel, 0.2) {
			t.Errorf("Expected seeded level 0.2, got %g", result.MasteryLevel)
		}
		if result.ReviewCount != 1 {
			t.Errorf("Expected review count 1, got %d", result.ReviewCount)
		}
		if result.Status != models.LearningInProgress {
			t.Errorf("Expected status in_progress, got %s", result.Status)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventMasteryUpdated {
			t.Errorf("Expected one %s event, got %v", events.EventMasteryUpdated, published)
		}
	})

	t.Run("SecondReview_WeightedAverage", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.2}); err != nil {
			t.Fatalf("First update failed: %v", err)
		}

		result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 1.0})
		if err != nil {
			t.Fatalf("Second update failed: %v", err)
		}

		// 0.7*0.2 + 0.3*1.0
		if !almostEqual(result.MasteryLevel, 0.44) {
			t.Errorf("Expected level 0.44, got %g", result.MasteryLevel)
		}
		if !almostEqual(result.PreviousLevel, 0.2) {
			t.Errorf("Expected previous level 0.2, got %g", result.PreviousLevel)
		}
		if result.ReviewCount != 2 {
			t.Errorf("Expected review count 2, got %d", result.ReviewCount)
		}
		if result.Status != models.LearningInProgress {
			t.Errorf("Expected status in_progress at 0.44, got %s", result.Status)
		}
	})

	t.Run("MasteredAtThreshold", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.8})
		if err != nil {
			t.Fatalf("UpdateMastery failed: %v", err)
		}
		if result.Status != models.LearningMastered {
			t.Errorf("Expected mastered at 0.8, got %s", result.Status)
		}
	})

	t.Run("MasteryCanDropBackToInProgress", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.9}); err != nil {
			t.Fatalf("First update failed: %v", err)
		}

		result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.1})
		if err != nil {
			t.Fatalf("Second update failed: %v", err)
		}

		// 0.7*0.9 + 0.3*0.1
		if !almostEqual(result.MasteryLevel, 0.66) {
			t.Errorf("Expected level 0.66, got %g", result.MasteryLevel)
		}
		if result.Status != models.LearningInProgress {
			t.Errorf("Expected status to drop back to in_progress, got %s", result.Status)
		}
	})

	t.Run("ScoreAboveOneClamps", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 1.5})
		if err != nil {
			t.Fatalf("UpdateMastery failed: %v", err)
		}
		if !almostEqual(result.MasteryLevel, 1.0) {
			t.Errorf("Expected score 1.5 to clamp to level 1.0, got %g", result.MasteryLevel)
		}
		if result.Status != models.LearningMastered {
			t.Errorf("Expected mastered at clamped 1.0, got %s", result.Status)
		}
	})

	t.Run("NegativeScoreClamps", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.5}); err != nil {
			t.Fatalf("First update failed: %v", err)
		}

		result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: -0.5})
		if err != nil {
			t.Fatalf("Second update failed: %v", err)
		}
		// 0.7*0.5 + 0.3*0 after the input clamps to 0
		if !almostEqual(result.MasteryLevel, 0.35) {
			t.Errorf("Expected level 0.35 with the negative score clamped to 0, got %g", result.MasteryLevel)
		}
	})

	t.Run("RepeatedPerfectScoresStayBoundedAndConverge", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.2}); err != nil {
			t.Fatalf("Seed update failed: %v", err)
		}

		previous := 0.2
		var last float64
		for i := 0; i < 40; i++ {
			result, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 1.0})
			if err != nil {
				t.Fatalf("Update %d failed: %v", i+1, err)
			}
			if result.MasteryLevel > 1 {
				t.Fatalf("Level %g escaped [0,1] at update %d", result.MasteryLevel, i+1)
			}
			if result.MasteryLevel < previous {
				t.Fatalf("Level dropped from %g to %g at update %d", previous, result.MasteryLevel, i+1)
			}
			previous = result.MasteryLevel
			last = result.MasteryLevel
		}
		if last < 0.999 {
			t.Errorf("Expected repeated perfect scores to approach 1.0, got %g", last)
		}
	})

	t.Run("UnknownKnowledgePoint", func(t *testing.T) {
		service, mockRepo, _ := newMasteryFixture()
		seedMasteryData(mockRepo)

		_, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 999, Score: 0.5})
		if !errors.Is(err, ErrKnowledgeNotFound) {
			t.Errorf("Expected ErrKnowledgeNotFound, got %v", err)
		}
	})
}

func TestMasteryService_GetProgress(t *testing.T) {
	ctx := context.Background()
	service, mockRepo, _ := newMasteryFixture()
	seedMasteryData(mockRepo)

	if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.5}); err != nil {
		t.Fatalf("UpdateMastery failed: %v", err)
	}

	progress, err := service.GetProgress(ctx, "student-1", 1)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if !almostEqual(progress.MasteryLevel, 0.5) {
		t.Errorf("Expected level 0.5, got %g", progress.MasteryLevel)
	}

	if _, err := service.GetProgress(ctx, "student-1", 2); !errors.Is(err, ErrProgressNotFound) {
		t.Errorf("Expected ErrProgressNotFound, got %v", err)
	}
}

func TestMasteryService_GetStudentSummary(t *testing.T) {
	ctx := context.Background()
	service, mockRepo, _ := newMasteryFixture()
	seedMasteryData(mockRepo)

	if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 1, Score: 0.9}); err != nil {
		t.Fatalf("UpdateMastery failed: %v", err)
	}
	if _, err := service.UpdateMastery(ctx, &UpdateMasteryRequest{StudentID: "student-1", KnowledgeID: 2, Score: 0.3}); err != nil {
		t.Fatalf("UpdateMastery failed: %v", err)
	}

	summaries, err := service.GetStudentSummary(ctx, "student-1", repositories.ProgressFilters{})
	if err != nil {
		t.Fatalf("GetStudentSummary failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].KnowledgeName != "Fractions" {
		t.Errorf("Expected knowledge name Fractions, got %s", summaries[0].KnowledgeName)
	}

	mastered := models.LearningMastered
	filtered, err := service.GetStudentSummary(ctx, "student-1", repositories.ProgressFilters{Status: &mastered})
	if err != nil {
		t.Fatalf("GetStudentSummary with filter failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].KnowledgeID != 1 {
		t.Errorf("Expected only the mastered knowledge point, got %v", filtered)
	}
}
