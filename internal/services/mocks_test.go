package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ===== Repositories =====

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListActiveModules(ctx context.Context) ([]*models.AssessmentModule, error) {
	args := m.Called(ctx)
	modules, _ := args.Get(0).([]*models.AssessmentModule)
	return modules, args.Error(1)
}

func (m *MockCatalogRepository) GetQuestion(ctx context.Context, id uint) (*models.AssessmentQuestion, error) {
	args := m.Called(ctx, id)
	question, _ := args.Get(0).(*models.AssessmentQuestion)
	return question, args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.AssessmentSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*models.AssessmentSession, error) {
	args := m.Called(ctx, token)
	session, _ := args.Get(0).(*models.AssessmentSession)
	return session, args.Error(1)
}

func (m *MockSessionRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockSessionRepository) UpdateOpenFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockSessionRepository) ListLeads(ctx context.Context, filters repositories.LeadFilters) ([]*models.AssessmentSession, error) {
	args := m.Called(ctx, filters)
	sessions, _ := args.Get(0).([]*models.AssessmentSession)
	return sessions, args.Error(1)
}

type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Upsert(ctx context.Context, response *models.AssessmentResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) UpsertForOpenSession(ctx context.Context, response *models.AssessmentResponse, sessionFields map[string]interface{}) error {
	args := m.Called(ctx, response, sessionFields)
	return args.Error(0)
}

func (m *MockResponseRepository) ListBySession(ctx context.Context, sessionID uint) ([]*models.AssessmentResponse, error) {
	args := m.Called(ctx, sessionID)
	responses, _ := args.Get(0).([]*models.AssessmentResponse)
	return responses, args.Error(1)
}

func (m *MockResponseRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

type MockToolPurchaseRepository struct {
	mock.Mock
}

func (m *MockToolPurchaseRepository) Create(ctx context.Context, purchase *models.ToolPurchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockToolPurchaseRepository) GetByAccessToken(ctx context.Context, token string, toolType models.ToolType) (*models.ToolPurchase, error) {
	args := m.Called(ctx, token, toolType)
	purchase, _ := args.Get(0).(*models.ToolPurchase)
	return purchase, args.Error(1)
}

func (m *MockToolPurchaseRepository) FindActiveByToken(ctx context.Context, token string, toolType models.ToolType) (*models.ToolPurchase, error) {
	args := m.Called(ctx, token, toolType)
	purchase, _ := args.Get(0).(*models.ToolPurchase)
	return purchase, args.Error(1)
}

func (m *MockToolPurchaseRepository) FindLatestActiveByEmail(ctx context.Context, email string, toolType models.ToolType, now time.Time) (*models.ToolPurchase, error) {
	args := m.Called(ctx, email, toolType, now)
	purchase, _ := args.Get(0).(*models.ToolPurchase)
	return purchase, args.Error(1)
}

func (m *MockToolPurchaseRepository) RecordUsage(ctx context.Context, id uint, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

func (m *MockToolPurchaseRepository) UpdateStatus(ctx context.Context, id uint, status models.PurchaseStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// ===== Infrastructure =====

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

type MockLLMGateway struct {
	mock.Mock
}

func (m *MockLLMGateway) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	args := m.Called(ctx, req)
	completion, _ := args.Get(0).(*Completion)
	return completion, args.Error(1)
}

func (m *MockLLMGateway) SupportsDocument(mimeType string) bool {
	return m.Called(mimeType).Bool(0)
}

func (m *MockLLMGateway) Close() error {
	return m.Called().Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) EnsureBucket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockObjectStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectKey, reader, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) Delete(ctx context.Context, objectKey string) error {
	return m.Called(ctx, objectKey).Error(0)
}

// stubCatalogService serves a fixed catalog
type stubCatalogService struct {
	catalog *Catalog
	err     error
}

func (s *stubCatalogService) GetCatalog(ctx context.Context) (*Catalog, error) {
	return s.catalog, s.err
}

func (s *stubCatalogService) InvalidateCache(ctx context.Context) error {
	return nil
}
