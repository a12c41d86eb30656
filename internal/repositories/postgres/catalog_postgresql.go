package postgres

import (
	"context"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type CatalogPostgreSQL struct {
	db *gorm.DB
}

func NewCatalogPostgreSQL(db *gorm.DB) repositories.CatalogRepository {
	return &CatalogPostgreSQL{db: db}
}

func (c *CatalogPostgreSQL) ListActiveModules(ctx context.Context) ([]*models.AssessmentModule, error) {
	var modules []*models.AssessmentModule
	if err := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("order_index ASC, id ASC").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		Find(&modules).Error; err != nil {
		return nil, err
	}

	return modules, nil
}

func (c *CatalogPostgreSQL) GetQuestion(ctx context.Context, id uint) (*models.AssessmentQuestion, error) {
	var question models.AssessmentQuestion
	if err := c.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		First(&question, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &question, nil
}
