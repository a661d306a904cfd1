package services

import (
	"fmt"
	"strings"

	"github.com/brightclass/mastery-service/internal/models"
)

// AutoGrader decides correctness for objective problem types. It is pure:
// no storage, no clock, just the expected answer and the student's answer.
type AutoGrader struct{}

func NewAutoGrader() *AutoGrader {
	return &AutoGrader{}
}

// Grade returns whether the student's answer matches the expected answer for
// the given problem type. Essays always return ErrNotAutoGradable.
func (g *AutoGrader) Grade(problemType models.ProblemType, expected, actual string) (bool, error) {
	switch problemType {
	case models.SingleChoice, models.TrueFalse:
		return compareStrings(expected, actual, false), nil
	case models.MultiChoice:
		return compareOptionSets(expected, actual), nil
	case models.FillBlank:
		// Fill-in answers are case sensitive
		return compareStrings(expected, actual, true), nil
	case models.Essay:
		return false, ErrNotAutoGradable
	default:
		return false, fmt.Errorf("unsupported problem type: %s", problemType)
	}
}

// Score converts a verdict into points: full marks when correct, zero when not.
func (g *AutoGrader) Score(correct bool, points float64) float64 {
	if correct {
		return points
	}
	return 0
}

func compareStrings(expected, actual string, caseSensitive bool) bool {
	expected = strings.TrimSpace(expected)
	actual = strings.TrimSpace(actual)

	if !caseSensitive {
		return strings.EqualFold(expected, actual)
	}
	return expected == actual
}

// compareOptionSets treats both answers as whitespace-separated option lists
// and compares them as sets, so "A C" and "c a" are the same selection.
func compareOptionSets(expected, actual string) bool {
	expectedSet := optionSet(expected)
	actualSet := optionSet(actual)

	if len(expectedSet) != len(actualSet) {
		return false
	}
	for option := range expectedSet {
		if !actualSet[option] {
			return false
		}
	}
	return true
}

func optionSet(answer string) map[string]bool {
	set := make(map[string]bool)
	for _, option := range strings.Fields(answer) {
		set[strings.ToUpper(option)] = true
	}
	return set
}
