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

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.LearningProgress) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(progress).Error; err != nil {
		return err
	}

	p.cacheManager.InvalidateStudentProgress(ctx, progress.StudentID)
	return nil
}

func (p *ProgressPostgreSQL) GetByStudentAndKnowledge(ctx context.Context, tx *gorm.DB, studentID string, knowledgeID uint) (*models.LearningProgress, error) {
	db := p.getDB(tx)
	var progress models.LearningProgress
	if err := db.WithContext(ctx).
		Where("student_id = ? AND knowledge_id = ?", studentID, knowledgeID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ProgressFilters) ([]*models.LearningProgress, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("student:%s:list:%s:%d:%d", studentID, filterStatusKey(filters.Status), filters.Limit, filters.Offset)
	var progresses []*models.LearningProgress

	err := p.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &progresses, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		var dbProgresses []*models.LearningProgress
		query := db.WithContext(ctx).
			Model(&models.LearningProgress{}).
			Where("student_id = ?", studentID)

		if filters.Status != nil {
			query = query.Where("learning_status = ?", *filters.Status)
		}
		if filters.Limit > 0 {
			query = query.Limit(filters.Limit)
		}
		if filters.Offset > 0 {
			query = query.Offset(filters.Offset)
		}

		if err := query.Order("knowledge_id ASC").Find(&dbProgresses).Error; err != nil {
			return nil, err
		}
		return dbProgresses, nil
	})

	if err != nil {
		return nil, err
	}
	return progresses, nil
}

func (p *ProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.LearningProgress) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Save(progress).Error; err != nil {
		return err
	}

	p.cacheManager.InvalidateStudentProgress(ctx, progress.StudentID)
	return nil
}

func filterStatusKey(status *models.LearningStatus) string {
	if status == nil {
		return "all"
	}
	return string(*status)
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
