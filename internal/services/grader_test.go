package services

import (
	"errors"
	"testing"

	"github.com/brightclass/mastery-service/internal/models"
)

func TestAutoGrader_Grade(t *testing.T) {
	grader := NewAutoGrader()

	t.Run("SingleChoice_CaseInsensitive", func(t *testing.T) {
		correct, err := grader.Grade(models.SingleChoice, "A", "a")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if !correct {
			t.Error("Expected 'a' to match 'A' for single choice")
		}

		correct, err = grader.Grade(models.SingleChoice, "A", "B")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if correct {
			t.Error("Expected 'B' not to match 'A'")
		}
	})

	t.Run("TrueFalse_CaseInsensitive", func(t *testing.T) {
		correct, err := grader.Grade(models.TrueFalse, "TRUE", "true")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if !correct {
			t.Error("Expected 'true' to match 'TRUE'")
		}
	})

	t.Run("MultiChoice_OrderAndCaseIgnored", func(t *testing.T) {
		correct, err := grader.Grade(models.MultiChoice, "A C", "c a")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if !correct {
			t.Error("Expected 'c a' to match 'A C' as a set")
		}
	})

	t.Run("MultiChoice_DifferentSelection", func(t *testing.T) {
		correct, err := grader.Grade(models.MultiChoice, "A C", "A B")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if correct {
			t.Error("Expected 'A B' not to match 'A C'")
		}
	})

	t.Run("MultiChoice_SubsetIsIncorrect", func(t *testing.T) {
		correct, err := grader.Grade(models.MultiChoice, "A B C", "A B")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if correct {
			t.Error("Expected partial selection to be incorrect")
		}
	})

	t.Run("FillBlank_CaseSensitive", func(t *testing.T) {
		correct, err := grader.Grade(models.FillBlank, "Paris", "Paris")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if !correct {
			t.Error("Expected exact match to be correct")
		}

		correct, err = grader.Grade(models.FillBlank, "Paris", "paris")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if correct {
			t.Error("Expected 'paris' not to match 'Paris' for fill-in answers")
		}
	})

	t.Run("FillBlank_TrimsWhitespace", func(t *testing.T) {
		correct, err := grader.Grade(models.FillBlank, "Paris", "  Paris  ")
		if err != nil {
			t.Fatalf("Grade failed: %v", err)
		}
		if !correct {
			t.Error("Expected surrounding whitespace to be ignored")
		}
	})

	t.Run("Essay_NotAutoGradable", func(t *testing.T) {
		_, err := grader.Grade(models.Essay, "anything", "anything")
		if !errors.Is(err, ErrNotAutoGradable) {
			t.Errorf("Expected ErrNotAutoGradable, got %v", err)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := grader.Grade(models.ProblemType("SHORT_ANSWER"), "a", "a")
		if err == nil {
			t.Error("Expected error for unknown problem type")
		}
	})
}

func TestAutoGrader_Score(t *testing.T) {
	grader := NewAutoGrader()

	if got := grader.Score(true, 5); got != 5 {
		t.Errorf("Expected full marks 5, got %g", got)
	}
	if got := grader.Score(false, 5); got != 0 {
		t.Errorf("Expected 0 for incorrect answer, got %g", got)
	}
}
