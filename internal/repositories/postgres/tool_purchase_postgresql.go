package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type ToolPurchasePostgreSQL struct {
	db *gorm.DB
}

func NewToolPurchasePostgreSQL(db *gorm.DB) repositories.ToolPurchaseRepository {
	return &ToolPurchasePostgreSQL{db: db}
}

func (t *ToolPurchasePostgreSQL) Create(ctx context.Context, purchase *models.ToolPurchase) error {
	purchase.Email = strings.ToLower(strings.TrimSpace(purchase.Email))
	return t.db.WithContext(ctx).Create(purchase).Error
}

func (t *ToolPurchasePostgreSQL) GetByAccessToken(ctx context.Context, token string, toolType models.ToolType) (*models.ToolPurchase, error) {
	var purchase models.ToolPurchase
	if err := t.db.WithContext(ctx).
		Where("access_token = ? AND tool_type = ?", token, toolType).
		First(&purchase).Error; err != nil {
		return nil, notFound(err)
	}

	return &purchase, nil
}

func (t *ToolPurchasePostgreSQL) FindActiveByToken(ctx context.Context, token string, toolType models.ToolType) (*models.ToolPurchase, error) {
	var purchase models.ToolPurchase
	if err := t.db.WithContext(ctx).
		Where("access_token = ? AND tool_type = ? AND status = ?", token, toolType, models.PurchaseActive).
		First(&purchase).Error; err != nil {
		return nil, notFound(err)
	}

	return &purchase, nil
}

func (t *ToolPurchasePostgreSQL) FindLatestActiveByEmail(ctx context.Context, email string, toolType models.ToolType, now time.Time) (*models.ToolPurchase, error) {
	var purchase models.ToolPurchase
	if err := t.db.WithContext(ctx).
		Where("LOWER(email) = ? AND tool_type = ? AND status = ? AND expires_at > ?",
			strings.ToLower(strings.TrimSpace(email)), toolType, models.PurchaseActive, now).
		Order("expires_at DESC").
		First(&purchase).Error; err != nil {
		return nil, notFound(err)
	}

	return &purchase, nil
}

func (t *ToolPurchasePostgreSQL) RecordUsage(ctx context.Context, id uint, usedAt time.Time) error {
	result := t.db.WithContext(ctx).
		Model(&models.ToolPurchase{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + ?", 1),
			"last_used_at": usedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (t *ToolPurchasePostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.PurchaseStatus) error {
	result := t.db.WithContext(ctx).Model(&models.ToolPurchase{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
