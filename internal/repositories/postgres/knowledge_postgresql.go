package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := c.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// ===== KNOWLEDGE POINT =====

type KnowledgePostgreSQL struct {
	db *gorm.DB
}

func NewKnowledgePostgreSQL(db *gorm.DB) repositories.KnowledgeRepository {
	return &KnowledgePostgreSQL{db: db}
}

func (k *KnowledgePostgreSQL) Create(ctx context.Context, tx *gorm.DB, knowledge *models.KnowledgePoint) error {
	db := k.getDB(tx)
	return db.WithContext(ctx).Create(knowledge).Error
}

func (k *KnowledgePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.KnowledgePoint, error) {
	db := k.getDB(tx)
	var knowledge models.KnowledgePoint
	if err := db.WithContext(ctx).First(&knowledge, id).Error; err != nil {
		return nil, err
	}
	return &knowledge, nil
}

func (k *KnowledgePostgreSQL) Update(ctx context.Context, tx *gorm.DB, knowledge *models.KnowledgePoint) error {
	db := k.getDB(tx)
	return db.WithContext(ctx).Save(knowledge).Error
}

func (k *KnowledgePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := k.getDB(tx)
	return db.WithContext(ctx).Delete(&models.KnowledgePoint{}, id).Error
}

func (k *KnowledgePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return k.db
}

// ===== COURSE KNOWLEDGE ORDERING =====

type CourseKnowledgePostgreSQL struct {
	db *gorm.DB
}

func NewCourseKnowledgePostgreSQL(db *gorm.DB) repositories.CourseKnowledgeRepository {
	return &CourseKnowledgePostgreSQL{db: db}
}

func (ck *CourseKnowledgePostgreSQL) Create(ctx context.Context, tx *gorm.DB, link *models.CourseKnowledge) error {
	db := ck.getDB(tx)
	return db.WithContext(ctx).Create(link).Error
}

// GetByCourseOrdered loads the course's entries sorted by sequence. With
// forUpdate set, FOR UPDATE locks the rows so two reorders of the same
// course cannot interleave and corrupt the numbering.
func (ck *CourseKnowledgePostgreSQL) GetByCourseOrdered(ctx context.Context, tx *gorm.DB, courseID uint, forUpdate bool) ([]*models.CourseKnowledge, error) {
	db := ck.getDB(tx)
	query := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sequence ASC, id ASC")

	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var links []*models.CourseKnowledge
	if err := query.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (ck *CourseKnowledgePostgreSQL) GetByCourseAndKnowledge(ctx context.Context, tx *gorm.DB, courseID, knowledgeID uint) (*models.CourseKnowledge, error) {
	db := ck.getDB(tx)
	var link models.CourseKnowledge
	if err := db.WithContext(ctx).
		Where("course_id = ? AND knowledge_id = ?", courseID, knowledgeID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (ck *CourseKnowledgePostgreSQL) UpdateSequence(ctx context.Context, tx *gorm.DB, id uint, sequence int) error {
	db := ck.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.CourseKnowledge{}).
		Where("id = ?", id).
		Update("sequence", sequence).Error
}

func (ck *CourseKnowledgePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := ck.getDB(tx)
	return db.WithContext(ctx).Delete(&models.CourseKnowledge{}, id).Error
}

func (ck *CourseKnowledgePostgreSQL) DeleteByCourseAndKnowledge(ctx context.Context, tx *gorm.DB, courseID uint, knowledgeIDs []uint) (int64, error) {
	db := ck.getDB(tx)
	result := db.WithContext(ctx).
		Where("course_id = ? AND knowledge_id IN ?", courseID, knowledgeIDs).
		Delete(&models.CourseKnowledge{})
	return result.RowsAffected, result.Error
}

func (ck *CourseKnowledgePostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	db := ck.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.CourseKnowledge{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (ck *CourseKnowledgePostgreSQL) CountByKnowledge(ctx context.Context, tx *gorm.DB, knowledgeID uint) (int64, error) {
	db := ck.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.CourseKnowledge{}).
		Where("knowledge_id = ?", knowledgeID).
		Count(&count).Error
	return count, err
}

func (ck *CourseKnowledgePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ck.db
}
