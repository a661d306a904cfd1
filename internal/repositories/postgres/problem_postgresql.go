package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/cache"
	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

type ProblemPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProblemPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProblemRepository {
	return &ProblemPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *ProblemPostgreSQL) Create(ctx context.Context, tx *gorm.DB, problem *models.Problem) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(problem).Error; err != nil {
		return err
	}

	p.cacheManager.InvalidateAssignment(ctx, problem.AssignmentID)
	return nil
}

func (p *ProblemPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Problem, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("problem:%d", id)
	var problem models.Problem

	err := p.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &problem, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbProblem models.Problem
		if err := db.WithContext(ctx).First(&dbProblem, id).Error; err != nil {
			return nil, err
		}
		return &dbProblem, nil
	})

	if err != nil {
		return nil, err
	}
	return &problem, nil
}

func (p *ProblemPostgreSQL) GetByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.Problem, error) {
	db := p.getDB(tx)
	var problems []*models.Problem
	if err := db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("sequence ASC, id ASC").
		Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (p *ProblemPostgreSQL) Update(ctx context.Context, tx *gorm.DB, problem *models.Problem) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Save(problem).Error; err != nil {
		return err
	}

	p.cacheManager.Fast.Delete(ctx, fmt.Sprintf("problem:%d", problem.ID))
	p.cacheManager.InvalidateAssignment(ctx, problem.AssignmentID)
	return nil
}

func (p *ProblemPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Problem{}, id).Error; err != nil {
		return err
	}

	p.cacheManager.Fast.Delete(ctx, fmt.Sprintf("problem:%d", id))
	return nil
}

func (p *ProblemPostgreSQL) CountByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) (int64, error) {
	db := p.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Problem{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error
	return count, err
}

func (p *ProblemPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// ===== ASSIGNMENT =====

type AssignmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssignmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(assignment).Error
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var assignment models.Assignment

	err := a.cacheManager.Assignment.CacheOrExecute(ctx, cacheKey, &assignment, cache.AssignmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssignment models.Assignment
		if err := db.WithContext(ctx).First(&dbAssignment, id).Error; err != nil {
			return nil, err
		}
		return &dbAssignment, nil
	})

	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) GetByIDWithProblems(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	db := a.getDB(tx)
	var assignment models.Assignment
	if err := db.WithContext(ctx).
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC, id ASC")
		}).
		First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(assignment).Error; err != nil {
		return err
	}

	a.cacheManager.InvalidateAssignment(ctx, assignment.ID)
	return nil
}

func (a *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
