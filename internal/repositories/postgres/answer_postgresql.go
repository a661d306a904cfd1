package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightclass/mastery-service/internal/cache"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(answer).Error; err != nil {
		return err
	}

	a.invalidateAnswerCaches(ctx, answer)
	return nil
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answer models.StudentAnswer
	if err := db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answer models.StudentAnswer
	if err := db.WithContext(ctx).
		Preload("Problem").
		Preload("Assignment").
		First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

// GetByStudentAndProblem reads the pair's single row. With forUpdate set,
// FOR UPDATE locks it so two resubmissions cannot both read the same attempt
// number and increment past the limit.
func (a *AnswerPostgreSQL) GetByStudentAndProblem(ctx context.Context, tx *gorm.DB, studentID string, problemID uint, forUpdate bool) (*models.StudentAnswer, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).
		Where("student_id = ? AND problem_id = ?", studentID, problemID)

	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var answer models.StudentAnswer
	if err := query.First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) GetByStudentAndAssignment(ctx context.Context, tx *gorm.DB, studentID string, assignmentID uint) ([]*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.StudentAnswer
	if err := db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		Order("problem_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) GetByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint, filters repositories.AnswerFilters) ([]*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.StudentAnswer

	query := db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Where("assignment_id = ?", assignmentID)
	query = a.applyFilters(query, filters)

	if err := query.Order("student_id ASC, problem_id ASC").Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) GetByProblem(ctx context.Context, tx *gorm.DB, problemID uint) ([]*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.StudentAnswer
	if err := db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) Update(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(answer).Error; err != nil {
		return err
	}

	a.invalidateAnswerCaches(ctx, answer)
	return nil
}

func (a *AnswerPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)
	var answer models.StudentAnswer
	if err := db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.StudentAnswer{}, id).Error; err != nil {
		return err
	}

	a.invalidateAnswerCaches(ctx, &answer)
	return nil
}

// GetGradingStats aggregates grading progress for an assignment in one query.
// COALESCE keeps AVG null-safe when nothing is graded yet.
func (a *AnswerPostgreSQL) GetGradingStats(ctx context.Context, tx *gorm.DB, assignmentID uint) (*repositories.GradingStats, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("assignment:%d:grading", assignmentID)
	var stats repositories.GradingStats

	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var dbStats repositories.GradingStats
		err := db.WithContext(ctx).
			Model(&models.StudentAnswer{}).
			Select(`
				COUNT(*) as total_answers,
				COUNT(*) FILTER (WHERE grading_status IN ?) as graded_answers,
				COUNT(*) FILTER (WHERE grading_status = ?) as pending_answers,
				COUNT(*) FILTER (WHERE auto_graded = true) as auto_graded,
				COUNT(*) FILTER (WHERE manual_score IS NOT NULL) as manual_graded,
				COALESCE(AVG(COALESCE(manual_score, automatic_score)), 0) as average_score`,
				[]models.GradingStatus{models.GradingSuccess, models.GradingReviewed},
				models.GradingPending).
			Where("assignment_id = ?", assignmentID).
			Scan(&dbStats).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get grading stats: %w", err)
		}
		return &dbStats, nil
	})

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (a *AnswerPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AnswerFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.GradingStatus != nil {
		query = query.Where("grading_status = ?", *filters.GradingStatus)
	}
	if filters.AutoGraded != nil {
		query = query.Where("auto_graded = ?", *filters.AutoGraded)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

func (a *AnswerPostgreSQL) invalidateAnswerCaches(ctx context.Context, answer *models.StudentAnswer) {
	a.cacheManager.Stats.Delete(ctx, fmt.Sprintf("assignment:%d:grading", answer.AssignmentID))
	a.cacheManager.InvalidateAssignment(ctx, answer.AssignmentID)
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
