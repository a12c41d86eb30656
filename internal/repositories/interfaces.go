package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrSessionClosed is returned when a guarded write finds the session already submitted
	ErrSessionClosed = errors.New("session is submitted")
)

// IsNotFoundError reports whether err means no row matched
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type LeadFilters struct {
	Since  *time.Time `json:"since"`
	Status *models.SessionStatus
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ===== REPOSITORIES =====

// CatalogRepository reads the authored assessment catalog
type CatalogRepository interface {
	// ListActiveModules returns active modules ordered by order_index, with questions and
	// options preloaded in their own order
	ListActiveModules(ctx context.Context) ([]*models.AssessmentModule, error)
	GetQuestion(ctx context.Context, id uint) (*models.AssessmentQuestion, error)
}

// SessionRepository persists assessment sessions keyed by device token
type SessionRepository interface {
	Create(ctx context.Context, session *models.AssessmentSession) error
	GetByToken(ctx context.Context, token string) (*models.AssessmentSession, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error

	// UpdateOpenFields writes only while the session is not submitted; a submitted row
	// yields ErrSessionClosed
	UpdateOpenFields(ctx context.Context, id uint, fields map[string]interface{}) error
	ListLeads(ctx context.Context, filters LeadFilters) ([]*models.AssessmentSession, error)
}

// ResponseRepository persists answers; one row per (session, question)
type ResponseRepository interface {
	Upsert(ctx context.Context, response *models.AssessmentResponse) error

	// UpsertForOpenSession saves the answer and applies sessionFields in one transaction,
	// failing with ErrSessionClosed once the session is submitted
	UpsertForOpenSession(ctx context.Context, response *models.AssessmentResponse, sessionFields map[string]interface{}) error
	ListBySession(ctx context.Context, sessionID uint) ([]*models.AssessmentResponse, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
}

// ToolPurchaseRepository reads and mutates tool entitlements
type ToolPurchaseRepository interface {
	Create(ctx context.Context, purchase *models.ToolPurchase) error
	GetByAccessToken(ctx context.Context, token string, toolType models.ToolType) (*models.ToolPurchase, error)

	// FindActiveByToken matches (access_token, tool_type, status=active) regardless of expiry
	FindActiveByToken(ctx context.Context, token string, toolType models.ToolType) (*models.ToolPurchase, error)

	// FindLatestActiveByEmail returns the active, unexpired row with the latest expires_at.
	// Email comparison is case-insensitive.
	FindLatestActiveByEmail(ctx context.Context, email string, toolType models.ToolType, now time.Time) (*models.ToolPurchase, error)

	// RecordUsage atomically increments usage_count and stamps last_used_at
	RecordUsage(ctx context.Context, id uint, usedAt time.Time) error
	UpdateStatus(ctx context.Context, id uint, status models.PurchaseStatus) error
}

// Repositories bundles every repository the services need
type Repositories struct {
	Catalog      CatalogRepository
	Sessions     SessionRepository
	Responses    ResponseRepository
	ToolPurchase ToolPurchaseRepository
}
