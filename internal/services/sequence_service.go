package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/events"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

// sequenceService keeps each course's knowledge list densely numbered 1..N.
// Every mutation loads the full list under a row lock, rewrites it in memory,
// and persists only the rows whose sequence changed.
type sequenceService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	eventPublisher events.EventPublisher
}

func NewSequenceService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.EventPublisher) SequenceService {
	return &sequenceService{
		repo:           repo,
		db:             db,
		logger:         logger,
		eventPublisher: publisher,
	}
}

func (s *sequenceService) Append(ctx context.Context, courseID, knowledgeID uint) (*SequenceEntry, error) {
	var entry *SequenceEntry
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := s.checkCourseAndKnowledge(ctx, repo, courseID, knowledgeID); err != nil {
			return err
		}

		links, err := repo.CourseKnowledge().GetByCourseOrdered(ctx, nil, courseID, true)
		if err != nil {
			return fmt.Errorf("failed to load course sequence: %w", err)
		}

		for _, link := range links {
			if link.KnowledgeID == knowledgeID {
				return ErrDuplicateKnowledge
			}
		}

		link := &models.CourseKnowledge{
			CourseID:    courseID,
			KnowledgeID: knowledgeID,
			Sequence:    len(links) + 1,
		}
		if err := repo.CourseKnowledge().Create(ctx, nil, link); err != nil {
			return fmt.Errorf("failed to append knowledge: %w", err)
		}

		entry = &SequenceEntry{KnowledgeID: knowledgeID, Sequence: link.Sequence}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, courseID, "append", 1)
	return entry, nil
}

func (s *sequenceService) MoveTo(ctx context.Context, courseID, knowledgeID uint, newPosition int) error {
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		links, err := repo.CourseKnowledge().GetByCourseOrdered(ctx, nil, courseID, true)
		if err != nil {
			return fmt.Errorf("failed to load course sequence: %w", err)
		}

		if newPosition < 1 || newPosition > len(links) {
			return ErrSequenceOutOfRange
		}

		from := -1
		for i, link := range links {
			if link.KnowledgeID == knowledgeID {
				from = i
				break
			}
		}
		if from == -1 {
			return ErrKnowledgeNotFound
		}

		moved := links[from]
		links = append(links[:from], links[from+1:]...)
		to := newPosition - 1
		links = append(links[:to], append([]*models.CourseKnowledge{moved}, links[to:]...)...)

		return s.renumber(ctx, repo, links)
	})
	if err != nil {
		return err
	}

	s.publishChange(ctx, courseID, "move", 1)
	return nil
}

func (s *sequenceService) Remove(ctx context.Context, courseID, knowledgeID uint) error {
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		links, err := repo.CourseKnowledge().GetByCourseOrdered(ctx, nil, courseID, true)
		if err != nil {
			return fmt.Errorf("failed to load course sequence: %w", err)
		}

		remaining := make([]*models.CourseKnowledge, 0, len(links))
		var removed *models.CourseKnowledge
		for _, link := range links {
			if link.KnowledgeID == knowledgeID {
				removed = link
				continue
			}
			remaining = append(remaining, link)
		}
		if removed == nil {
			return ErrKnowledgeNotFound
		}

		if err := repo.CourseKnowledge().Delete(ctx, nil, removed.ID); err != nil {
			return fmt.Errorf("failed to remove knowledge: %w", err)
		}

		return s.renumber(ctx, repo, remaining)
	})
	if err != nil {
		return err
	}

	s.publishChange(ctx, courseID, "remove", 1)
	return nil
}

func (s *sequenceService) RemoveMany(ctx context.Context, courseID uint, knowledgeIDs []uint) (int, error) {
	if len(knowledgeIDs) == 0 {
		return 0, nil
	}

	targets := make(map[uint]bool, len(knowledgeIDs))
	for _, id := range knowledgeIDs {
		targets[id] = true
	}

	var removed int
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		links, err := repo.CourseKnowledge().GetByCourseOrdered(ctx, nil, courseID, true)
		if err != nil {
			return fmt.Errorf("failed to load course sequence: %w", err)
		}

		remaining := make([]*models.CourseKnowledge, 0, len(links))
		for _, link := range links {
			if targets[link.KnowledgeID] {
				removed++
				continue
			}
			remaining = append(remaining, link)
		}

		if removed == 0 {
			return nil
		}

		if _, err := repo.CourseKnowledge().DeleteByCourseAndKnowledge(ctx, nil, courseID, knowledgeIDs); err != nil {
			return fmt.Errorf("failed to remove knowledge batch: %w", err)
		}

		return s.renumber(ctx, repo, remaining)
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.publishChange(ctx, courseID, "remove_many", removed)
	}
	return removed, nil
}

// CopyInto clones the source knowledge point into a brand-new record and
// appends the clone to the course. Editing the copy later must never leak
// into the source, so the content fields are duplicated, not shared.
func (s *sequenceService) CopyInto(ctx context.Context, courseID, sourceKnowledgeID uint) (*SequenceEntry, error) {
	var entry *SequenceEntry
	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if _, err := repo.Course().GetByID(ctx, nil, courseID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to get course: %w", err)
		}

		source, err := repo.Knowledge().GetByID(ctx, nil, sourceKnowledgeID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrKnowledgeNotFound
			}
			return fmt.Errorf("failed to get source knowledge point: %w", err)
		}

		clone := &models.KnowledgePoint{
			Name:        source.Name,
			Description: copyStringPtr(source.Description),
			Content:     copyStringPtr(source.Content),
			CreatedBy:   source.CreatedBy,
		}
		if err := repo.Knowledge().Create(ctx, nil, clone); err != nil {
			return fmt.Errorf("failed to create knowledge copy: %w", err)
		}

		links, err := repo.CourseKnowledge().GetByCourseOrdered(ctx, nil, courseID, true)
		if err != nil {
			return fmt.Errorf("failed to load course sequence: %w", err)
		}

		link := &models.CourseKnowledge{
			CourseID:    courseID,
			KnowledgeID: clone.ID,
			Sequence:    len(links) + 1,
		}
		if err := repo.CourseKnowledge().Create(ctx, nil, link); err != nil {
			return fmt.Errorf("failed to append knowledge copy: %w", err)
		}

		entry = &SequenceEntry{KnowledgeID: clone.ID, Sequence: link.Sequence, Name: clone.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, courseID, "copy_into", 1)
	return entry, nil
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

func (s *sequenceService) List(ctx context.Context, courseID uint) ([]*SequenceEntry, error) {
	if _, err := s.repo.Course().GetByID(ctx, s.db, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	links, err := s.repo.CourseKnowledge().GetByCourseOrdered(ctx, s.db, courseID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load course sequence: %w", err)
	}

	entries := make([]*SequenceEntry, 0, len(links))
	for _, link := range links {
		entry := &SequenceEntry{KnowledgeID: link.KnowledgeID, Sequence: link.Sequence}
		if knowledge, err := s.repo.Knowledge().GetByID(ctx, s.db, link.KnowledgeID); err == nil {
			entry.Name = knowledge.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// renumber rewrites sequences to a dense 1..N, touching only rows that moved.
// Renumbering an already dense list is a no-op.
func (s *sequenceService) renumber(ctx context.Context, repo repositories.Repository, links []*models.CourseKnowledge) error {
	for i, link := range links {
		want := i + 1
		if link.Sequence == want {
			continue
		}
		if err := repo.CourseKnowledge().UpdateSequence(ctx, nil, link.ID, want); err != nil {
			return fmt.Errorf("failed to renumber entry %d: %w", link.ID, err)
		}
		link.Sequence = want
	}
	return nil
}

func (s *sequenceService) checkCourseAndKnowledge(ctx context.Context, repo repositories.Repository, courseID, knowledgeID uint) error {
	if _, err := repo.Course().GetByID(ctx, nil, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}
	if _, err := repo.Knowledge().GetByID(ctx, nil, knowledgeID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrKnowledgeNotFound
		}
		return fmt.Errorf("failed to get knowledge point: %w", err)
	}
	return nil
}

func (s *sequenceService) publishChange(ctx context.Context, courseID uint, operation string, count int) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventSequenceChanged, events.SequenceChangedEvent{
		CourseID:  courseID,
		Operation: operation,
		Count:     count,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
