package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, session *models.AssessmentSession) error {
	// two first visits racing on the same token must both end up with the one row
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_token"}}, DoNothing: true}).
		Create(session).Error
}

func (s *SessionPostgreSQL) GetByToken(ctx context.Context, token string) (*models.AssessmentSession, error) {
	var session models.AssessmentSession
	if err := s.db.WithContext(ctx).Where("session_token = ?", token).First(&session).Error; err != nil {
		return nil, notFound(err)
	}

	return &session, nil
}

func (s *SessionPostgreSQL) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.AssessmentSession{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *SessionPostgreSQL) UpdateOpenFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateOpenSession(s.db.WithContext(ctx), id, fields)
}

// updateOpenSession is a compare-and-set on status: the WHERE clause re-checks it at write
// time, so a concurrent submit wins at most once.
func updateOpenSession(db *gorm.DB, id uint, fields map[string]interface{}) error {
	values := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = time.Now().UTC()

	result := db.Model(&models.AssessmentSession{}).
		Where("id = ? AND status <> ?", id, models.SessionSubmitted).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.AssessmentSession{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return repositories.ErrSessionClosed
}

func (s *SessionPostgreSQL) ListLeads(ctx context.Context, filters repositories.LeadFilters) ([]*models.AssessmentSession, error) {
	var sessions []*models.AssessmentSession

	query := s.db.WithContext(ctx).Model(&models.AssessmentSession{}).
		Where("email IS NOT NULL AND email <> ''")
	if filters.Since != nil {
		query = query.Where("updated_at >= ?", *filters.Since)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}
