package services

import (
	"context"
	"errors"
	"testing"

	"github.com/brightclass/mastery-service/internal/events"
	"github.com/brightclass/mastery-service/internal/models"
)

func newSequenceFixture() (*sequenceService, *mockRepository, *events.MockEventPublisher) {
	logger := testLogger()
	mockRepo := newMockRepository()
	mockPublisher := events.NewMockEventPublisher(logger)

	service := &sequenceService{
		repo:           mockRepo,
		logger:         logger,
		eventPublisher: mockPublisher,
	}
	return service, mockRepo, mockPublisher
}

func seedSequenceData(mockRepo *mockRepository) {
	mockRepo.courses[1] = &models.Course{ID: 1, Title: "Algebra"}
	mockRepo.courses[2] = &models.Course{ID: 2, Title: "Algebra II"}
	for i := uint(1); i <= 5; i++ {
		mockRepo.knowledge[i] = &models.KnowledgePoint{ID: i, Name: "Topic"}
	}
}

// assertSequence checks that the course's list is exactly the given knowledge
// IDs numbered densely 1..N.
func assertSequence(t *testing.T, mockRepo *mockRepository, courseID uint, wantKnowledge []uint) {
	t.Helper()

	links, err := mockRepo.CourseKnowledge().GetByCourseOrdered(context.Background(), nil, courseID, false)
	if err != nil {
		t.Fatalf("Failed to load sequence: %v", err)
	}
	if len(links) != len(wantKnowledge) {
		t.Fatalf("Expected %d entries, got %d", len(wantKnowledge), len(links))
	}
	for i, link := range links {
		if link.Sequence != i+1 {
			t.Errorf("Expected dense sequence %d at index %d, got %d", i+1, i, link.Sequence)
		}
		if link.KnowledgeID != wantKnowledge[i] {
			t.Errorf("Expected knowledge %d at position %d, got %d", wantKnowledge[i], i+1, link.KnowledgeID)
		}
	}
}

func appendAll(t *testing.T, service *sequenceService, courseID uint, knowledgeIDs ...uint) {
	t.Helper()
	for _, id := range knowledgeIDs {
		if _, err := service.Append(context.Background(), courseID, id); err != nil {
			t.Fatalf("Append %d failed: %v", id, err)
		}
	}
}

func TestSequenceService_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendsAtEnd", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		entry, err := service.Append(ctx, 1, 3)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if entry.Sequence != 1 {
			t.Errorf("Expected first entry at position 1, got %d", entry.Sequence)
		}

		entry, err = service.Append(ctx, 1, 4)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if entry.Sequence != 2 {
			t.Errorf("Expected second entry at position 2, got %d", entry.Sequence)
		}

		assertSequence(t, mockRepo, 1, []uint{3, 4})
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 3)

		_, err := service.Append(ctx, 1, 3)
		if !errors.Is(err, ErrDuplicateKnowledge) {
			t.Errorf("Expected ErrDuplicateKnowledge, got %v", err)
		}
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		_, err := service.Append(ctx, 999, 1)
		if !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("UnknownKnowledge", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		_, err := service.Append(ctx, 1, 999)
		if !errors.Is(err, ErrKnowledgeNotFound) {
			t.Errorf("Expected ErrKnowledgeNotFound, got %v", err)
		}
	})
}

func TestSequenceService_MoveTo(t *testing.T) {
	ctx := context.Background()

	t.Run("MoveForward", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2, 3, 4)

		if err := service.MoveTo(ctx, 1, 4, 1); err != nil {
			t.Fatalf("MoveTo failed: %v", err)
		}
		assertSequence(t, mockRepo, 1, []uint{4, 1, 2, 3})
	})

	t.Run("MoveBackward", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2, 3, 4)

		if err := service.MoveTo(ctx, 1, 1, 3); err != nil {
			t.Fatalf("MoveTo failed: %v", err)
		}
		assertSequence(t, mockRepo, 1, []uint{2, 3, 1, 4})
	})

	t.Run("MoveToSamePosition_NoChange", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2, 3)

		if err := service.MoveTo(ctx, 1, 2, 2); err != nil {
			t.Fatalf("MoveTo failed: %v", err)
		}
		assertSequence(t, mockRepo, 1, []uint{1, 2, 3})
	})

	t.Run("PositionOutOfRange", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2, 3)

		if err := service.MoveTo(ctx, 1, 1, 0); !errors.Is(err, ErrSequenceOutOfRange) {
			t.Errorf("Expected ErrSequenceOutOfRange for position 0, got %v", err)
		}
		if err := service.MoveTo(ctx, 1, 1, 4); !errors.Is(err, ErrSequenceOutOfRange) {
			t.Errorf("Expected ErrSequenceOutOfRange for position 4, got %v", err)
		}
	})

	t.Run("KnowledgeNotInCourse", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2)

		if err := service.MoveTo(ctx, 1, 5, 1); !errors.Is(err, ErrKnowledgeNotFound) {
			t.Errorf("Expected ErrKnowledgeNotFound, got %v", err)
		}
	})
}

func TestSequenceService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("RemoveMiddle_ClosesGap", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2, 3, 4)

		if err := service.Remove(ctx, 1, 2); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		assertSequence(t, mockRepo, 1, []uint{1, 3, 4})
	})

	t.Run("RemoveAbsent", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2)

		if err := service.Remove(ctx, 1, 5); !errors.Is(err, ErrKnowledgeNotFound) {
			t.Errorf("Expected ErrKnowledgeNotFound, got %v", err)
		}
	})
}

func TestSequenceService_RemoveMany(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesMatchesAndRenumbers", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2, 3, 4, 5)

		removed, err := service.RemoveMany(ctx, 1, []uint{2, 4, 999})
		if err != nil {
			t.Fatalf("RemoveMany failed: %v", err)
		}
		if removed != 2 {
			t.Errorf("Expected 2 removed, got %d", removed)
		}
		assertSequence(t, mockRepo, 1, []uint{1, 3, 5})
	})

	t.Run("NoMatches_NoOp", func(t *testing.T) {
		service, mockRepo, mockPublisher := newSequenceFixture()
		seedSequenceData(mockRepo)
		appendAll(t, service, 1, 1, 2)
		mockPublisher.ClearEvents()

		removed, err := service.RemoveMany(ctx, 1, []uint{4, 5})
		if err != nil {
			t.Fatalf("RemoveMany failed: %v", err)
		}
		if removed != 0 {
			t.Errorf("Expected 0 removed, got %d", removed)
		}
		if got := len(mockPublisher.GetPublishedEvents()); got != 0 {
			t.Errorf("Expected no events for a no-op removal, got %d", got)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		removed, err := service.RemoveMany(ctx, 1, nil)
		if err != nil {
			t.Fatalf("RemoveMany failed: %v", err)
		}
		if removed != 0 {
			t.Errorf("Expected 0 removed for empty input, got %d", removed)
		}
	})
}

func TestSequenceService_CopyInto(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesNewRecordAndAppends", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)
		content := "Adding fractions with unlike denominators"
		mockRepo.knowledge[1].Content = &content
		appendAll(t, service, 1, 1)
		appendAll(t, service, 2, 2, 5)

		before := len(mockRepo.knowledge)
		entry, err := service.CopyInto(ctx, 2, 1)
		if err != nil {
			t.Fatalf("CopyInto failed: %v", err)
		}

		if entry.KnowledgeID == 1 {
			t.Error("Expected the copy to be a new knowledge record, got the source ID")
		}
		if len(mockRepo.knowledge) != before+1 {
			t.Fatalf("Expected %d knowledge records after copy, got %d", before+1, len(mockRepo.knowledge))
		}
		if entry.Sequence != 3 {
			t.Errorf("Expected the copy appended at position 3, got %d", entry.Sequence)
		}

		clone := mockRepo.knowledge[entry.KnowledgeID]
		if clone.Name != "Topic" {
			t.Errorf("Expected copied name %q, got %q", "Topic", clone.Name)
		}
		if clone.Content == nil || *clone.Content != content {
			t.Errorf("Expected copied content %q, got %v", content, clone.Content)
		}

		// Editing the copy must not reach the source
		*clone.Content = "rewritten"
		if source := mockRepo.knowledge[1]; *source.Content != content {
			t.Error("Expected the copy's content to be independent of the source")
		}

		assertSequence(t, mockRepo, 2, []uint{2, 5, entry.KnowledgeID})
		// Source course untouched
		assertSequence(t, mockRepo, 1, []uint{1})
	})

	t.Run("RepeatedCopiesMakeDistinctRecords", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		first, err := service.CopyInto(ctx, 2, 1)
		if err != nil {
			t.Fatalf("First copy failed: %v", err)
		}
		second, err := service.CopyInto(ctx, 2, 1)
		if err != nil {
			t.Fatalf("Second copy failed: %v", err)
		}
		if first.KnowledgeID == second.KnowledgeID {
			t.Error("Expected each copy to create its own record")
		}
		assertSequence(t, mockRepo, 2, []uint{first.KnowledgeID, second.KnowledgeID})
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		if _, err := service.CopyInto(ctx, 999, 1); !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("UnknownSourceKnowledge", func(t *testing.T) {
		service, mockRepo, _ := newSequenceFixture()
		seedSequenceData(mockRepo)

		if _, err := service.CopyInto(ctx, 1, 999); !errors.Is(err, ErrKnowledgeNotFound) {
			t.Errorf("Expected ErrKnowledgeNotFound, got %v", err)
		}
	})
}

func TestSequenceService_List(t *testing.T) {
	ctx := context.Background()
	service, mockRepo, _ := newSequenceFixture()
	seedSequenceData(mockRepo)
	appendAll(t, service, 1, 2, 1)

	entries, err := service.List(ctx, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].KnowledgeID != 2 || entries[0].Sequence != 1 {
		t.Errorf("Unexpected first entry %+v", entries[0])
	}
	if entries[0].Name != "Topic" {
		t.Errorf("Expected knowledge name on entries, got %q", entries[0].Name)
	}

	if _, err := service.List(ctx, 999); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("Expected ErrCourseNotFound, got %v", err)
	}
}
