package postgres

import (
	"context"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

// Upsert replaces any earlier answer for the same (session, question). All three value
// columns are overwritten so a changed answer type leaves no stale value behind.
func (r *ResponsePostgreSQL) Upsert(ctx context.Context, response *models.AssessmentResponse) error {
	return upsertResponse(r.db.WithContext(ctx), response)
}

// UpsertForOpenSession updates the session row first so its row lock is held until the
// answer commits; a submit that lands in between waits and then sees the answer.
func (r *ResponsePostgreSQL) UpsertForOpenSession(ctx context.Context, response *models.AssessmentResponse, sessionFields map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOpenSession(tx, response.SessionID, sessionFields); err != nil {
			return err
		}
		return upsertResponse(tx, response)
	})
}

func upsertResponse(db *gorm.DB, response *models.AssessmentResponse) error {
	return db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_option_id",
				"numeric_value",
				"text_value",
				"updated_at",
			}),
		}).
		Create(response).Error
}

func (r *ResponsePostgreSQL) ListBySession(ctx context.Context, sessionID uint) ([]*models.AssessmentResponse, error) {
	var responses []*models.AssessmentResponse
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *ResponsePostgreSQL) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AssessmentResponse{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
