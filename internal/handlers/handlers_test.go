package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// ===== Service mocks =====

type MockSessionService struct{ mock.Mock }

func (m *MockSessionService) Bootstrap(ctx context.Context, deviceToken string) (*services.AssessmentState, error) {
	args := m.Called(ctx, deviceToken)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

func (m *MockSessionService) GetState(ctx context.Context, token string, moduleID *uint) (*services.AssessmentState, error) {
	args := m.Called(ctx, token, moduleID)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

func (m *MockSessionService) SaveResponse(ctx context.Context, token string, req *dto.SaveResponseRequest) (*services.AssessmentState, error) {
	args := m.Called(ctx, token, req)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

func (m *MockSessionService) UpdatePosition(ctx context.Context, token string, req *dto.UpdatePositionRequest) (*services.AssessmentState, error) {
	args := m.Called(ctx, token, req)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

func (m *MockSessionService) SaveEmail(ctx context.Context, token string, req *dto.SaveEmailRequest) (*services.AssessmentState, error) {
	args := m.Called(ctx, token, req)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

func (m *MockSessionService) SetInferredLevel(ctx context.Context, token string, req *dto.SetLevelRequest) (*services.AssessmentState, error) {
	args := m.Called(ctx, token, req)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

func (m *MockSessionService) Submit(ctx context.Context, token string) (*services.AssessmentState, error) {
	args := m.Called(ctx, token)
	state, _ := args.Get(0).(*services.AssessmentState)
	return state, args.Error(1)
}

type MockToolAccessService struct{ mock.Mock }

func (m *MockToolAccessService) Verify(ctx context.Context, req *dto.VerifyAccessRequest) (*services.AccessGrant, error) {
	args := m.Called(ctx, req)
	grant, _ := args.Get(0).(*services.AccessGrant)
	return grant, args.Error(1)
}

func (m *MockToolAccessService) Claim(ctx context.Context, req *dto.ClaimAccessRequest) (*models.ToolPurchase, error) {
	args := m.Called(ctx, req)
	purchase, _ := args.Get(0).(*models.ToolPurchase)
	return purchase, args.Error(1)
}

func (m *MockToolAccessService) Grant(ctx context.Context, req *dto.GrantPurchaseRequest) (*models.ToolPurchase, error) {
	args := m.Called(ctx, req)
	purchase, _ := args.Get(0).(*models.ToolPurchase)
	return purchase, args.Error(1)
}

type MockToolService struct{ mock.Mock }

func (m *MockToolService) Run(ctx context.Context, operation models.ToolOperation, req *dto.RunToolRequest) (*dto.RunToolResponse, error) {
	args := m.Called(ctx, operation, req)
	resp, _ := args.Get(0).(*dto.RunToolResponse)
	return resp, args.Error(1)
}

func (m *MockToolService) ParseResume(ctx context.Context, req *dto.ParseResumeRequest, file io.Reader) (*dto.RunToolResponse, error) {
	args := m.Called(ctx, req, file)
	resp, _ := args.Get(0).(*dto.RunToolResponse)
	return resp, args.Error(1)
}

type MockCatalogService struct{ mock.Mock }

func (m *MockCatalogService) GetCatalog(ctx context.Context) (*services.Catalog, error) {
	args := m.Called(ctx)
	catalog, _ := args.Get(0).(*services.Catalog)
	return catalog, args.Error(1)
}

func (m *MockCatalogService) InvalidateCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockReportService struct{ mock.Mock }

func (m *MockReportService) ExportSessionReport(ctx context.Context, token string) ([]byte, error) {
	args := m.Called(ctx, token)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockReportService) ExportLeads(ctx context.Context, since *time.Time) ([]byte, error) {
	args := m.Called(ctx, since)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// ===== Fixture =====

type handlerFixture struct {
	router   *gin.Engine
	sessions *MockSessionService
	access   *MockToolAccessService
	tools    *MockToolService
	catalog  *MockCatalogService
	reports  *MockReportService
}

func newHandlerFixture(t *testing.T, admin gin.HandlerFunc) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		sessions: &MockSessionService{},
		access:   &MockToolAccessService{},
		tools:    &MockToolService{},
		catalog:  &MockCatalogService{},
		reports:  &MockReportService{},
	}

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	manager := NewHandlerManager(Services{
		Catalog:    f.catalog,
		Sessions:   f.sessions,
		ToolAccess: f.access,
		Tools:      f.tools,
		Reports:    f.reports,
	}, RouteMiddleware{Admin: admin}, logger)

	f.router = gin.New()
	manager.SetupRoutes(f.router)
	return f
}

func (f *handlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleState() *services.AssessmentState {
	catalog := services.NewCatalog([]*models.AssessmentModule{{
		ID: 1, Name: "Foundations", OrderIndex: 1, IsActive: true,
		Questions: []models.AssessmentQuestion{{
			ID: 10, ModuleID: 1, QuestionType: models.QuestionScenario, Prompt: "Pick one", OrderIndex: 1,
			SkillDimensions: datatypes.JSON(`["strategy"]`),
			Options: []models.QuestionOption{
				{ID: 100, QuestionID: 10, Label: "A", OptionText: "Ship it", ScoreMap: datatypes.JSON(`{"strategy":3}`)},
			},
		}},
	}}, nil)

	return &services.AssessmentState{
		Session:   &models.AssessmentSession{ID: 1, SessionToken: "device-1", Status: models.SessionInProgress},
		Questions: catalog.Questions(),
		Scores:    services.DimensionScores{"strategy": 3},
		Progress:  100,
	}
}

// ===== Tests =====

func TestHealthCheck(t *testing.T) {
	f := newHandlerFixture(t, nil)
	w := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandler_Bootstrap(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.sessions.On("Bootstrap", mock.Anything, "").Return(sampleState(), nil)

	w := f.do(http.MethodPost, "/api/v1/sessions", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "device-1", body["session"].(map[string]interface{})["session_token"])
	assert.Equal(t, float64(100), body["progress"])

	question := body["questions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, []interface{}{"strategy"}, question["skill_dimensions"])
	option := question["options"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Ship it", option["option_text"])
	assert.NotContains(t, option, "score_map")
}

func TestSessionHandler_SaveResponse_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"submitted", services.ErrSessionSubmitted, http.StatusConflict, "Assessment has already been submitted"},
		{"persistence", fmt.Errorf("save response: %w: %w", services.ErrPersistenceFailed, io.ErrUnexpectedEOF),
			http.StatusInternalServerError, "Failed to save, please try again"},
		{"not in catalog", fmt.Errorf("question 9: %w", services.ErrQuestionNotInCatalog), http.StatusBadRequest,
			"Question is not part of the assessment"},
		{"validation", services.ValidationErrors{{Field: "numeric_value", Message: "must be between 1 and 5"}},
			http.StatusBadRequest, "Validation failed"},
		{"missing session", services.ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t, nil)
			f.sessions.On("SaveResponse", mock.Anything, "device-1", mock.Anything).Return(nil, tt.err)

			w := f.do(http.MethodPut, "/api/v1/sessions/device-1/responses", map[string]interface{}{
				"question_id": 9, "numeric_value": 3,
			})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["message"])
		})
	}
}

func TestSessionHandler_GetState_ModuleFilter(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.sessions.On("GetState", mock.Anything, "device-1", mock.MatchedBy(func(id *uint) bool {
		return id != nil && *id == 2
	})).Return(sampleState(), nil)

	w := f.do(http.MethodGet, "/api/v1/sessions/device-1?module_id=2", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/sessions/device-1?module_id=two", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToolHandler_VerifyAccess(t *testing.T) {
	expiresAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		grant  *services.AccessGrant
		err    error
		status int
		check  func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "accepted",
			grant: &services.AccessGrant{Purchase: &models.ToolPurchase{
				ID: 7, ToolType: models.ToolResumeSuite, ExpiresAt: expiresAt, UsageCount: 5,
			}},
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["valid"])
				assert.Equal(t, float64(5), body["usage_count"])
			},
		},
		{
			name:   "expired",
			err:    &services.AccessError{Reason: services.ReasonExpired, Err: services.ErrAccessExpired},
			status: http.StatusForbidden,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, false, body["valid"])
				assert.Equal(t, "Access has expired", body["error"])
				assert.Equal(t, CodeAccessExpired, body["code"])
			},
		},
		{
			name:   "invalid token",
			err:    &services.AccessError{Reason: services.ReasonInvalidToken, Err: services.ErrAccessDenied},
			status: http.StatusForbidden,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, CodeInvalidToken, body["code"])
			},
		},
		{
			name:   "no credentials",
			err:    &services.AccessError{Reason: services.ReasonCredentialsRequired, Err: services.ErrCredentialsRequired},
			status: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Email or access token required", body["error"])
				assert.Equal(t, CodeCredentialsRequired, body["code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t, nil)
			f.access.On("Verify", mock.Anything, mock.Anything).Return(tt.grant, tt.err)

			w := f.do(http.MethodPost, "/api/v1/tools/access/verify", map[string]interface{}{
				"access_token": "abc", "tool_type": "resume_suite",
			})

			assert.Equal(t, tt.status, w.Code)
			tt.check(t, decode(t, w))
		})
	}
}

func TestToolHandler_RunTool(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.tools.On("Run", mock.Anything, models.OperationCoverLetter, mock.MatchedBy(func(req *dto.RunToolRequest) bool {
		return req.AccessToken != nil && *req.AccessToken == "abc" && req.Input.JobDescription == "PM role"
	})).Return(&dto.RunToolResponse{Operation: models.OperationCoverLetter, Result: "Dear team"}, nil)
	f.tools.On("Run", mock.Anything, models.ToolOperation("horoscope"), mock.Anything).
		Return(nil, fmt.Errorf("horoscope: %w", services.ErrUnknownOperation))
	f.tools.On("Run", mock.Anything, models.OperationInterviewPrep, mock.Anything).
		Return(nil, fmt.Errorf("%w: status 500", services.ErrGatewayFailed))

	w := f.do(http.MethodPost, "/api/v1/tools/cover_letter", map[string]interface{}{
		"access_token": "abc",
		"input":        map[string]string{"resume_text": "cv", "job_description": "PM role"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dear team", decode(t, w)["result"])

	w = f.do(http.MethodPost, "/api/v1/tools/horoscope", map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/api/v1/tools/interview_prep", map[string]interface{}{})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestToolHandler_UploadResume(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.tools.On("ParseResume", mock.Anything, mock.MatchedBy(func(req *dto.ParseResumeRequest) bool {
		return req.FileName == "cv.txt" && req.ContentType == "text/plain" && req.Size == 9 &&
			req.Email != nil && *req.Email == "pm@example.com" && req.AccessToken == nil
	}), mock.Anything).Return(&dto.RunToolResponse{Operation: models.OperationResumeParse, Result: "{}"}, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("email", "pm@example.com"))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="cv.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, _ = part.Write([]byte("Jane Doe\n"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/resume_parse/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	f.tools.AssertExpectations(t)
}

func TestAdminRoutes_RequireAuth(t *testing.T) {
	f := newHandlerFixture(t, nil)
	w := f.do(http.MethodPost, "/api/v1/admin/catalog/invalidate", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.catalog.AssertNotCalled(t, "InvalidateCache", mock.Anything)
}

func TestAdminHandler(t *testing.T) {
	allow := func(c *gin.Context) { c.Next() }

	t.Run("grant purchase", func(t *testing.T) {
		f := newHandlerFixture(t, allow)
		f.access.On("Grant", mock.Anything, mock.Anything).Return(&models.ToolPurchase{
			ID: 3, Email: "pm@example.com", ToolType: models.ToolLinkedInSuite,
			Status: models.PurchaseActive, AccessToken: "tok",
		}, nil)

		w := f.do(http.MethodPost, "/api/v1/admin/tool-purchases", map[string]interface{}{
			"email": "pm@example.com", "tool_type": "linkedin_suite", "duration_days": 30,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "tok", decode(t, w)["access_token"])
	})

	t.Run("invalidate catalog", func(t *testing.T) {
		f := newHandlerFixture(t, allow)
		f.catalog.On("InvalidateCache", mock.Anything).Return(nil)

		w := f.do(http.MethodPost, "/api/v1/admin/catalog/invalidate", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("export leads", func(t *testing.T) {
		f := newHandlerFixture(t, allow)
		f.reports.On("ExportLeads", mock.Anything, mock.MatchedBy(func(since *time.Time) bool {
			return since != nil && since.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		})).Return([]byte("xlsx"), nil)

		w := f.do(http.MethodGet, "/api/v1/admin/leads/export?since=2026-01-01", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, "xlsx", w.Body.String())

		w = f.do(http.MethodGet, "/api/v1/admin/leads/export?since=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("session report", func(t *testing.T) {
		f := newHandlerFixture(t, allow)
		f.reports.On("ExportSessionReport", mock.Anything, "ghost").Return(nil, services.ErrSessionNotFound)

		w := f.do(http.MethodGet, "/api/v1/admin/sessions/ghost/report", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCatalogHandler_ListModules(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.catalog.On("GetCatalog", mock.Anything).Return(services.NewCatalog([]*models.AssessmentModule{
		{ID: 2, Name: "Execution", OrderIndex: 2, IsActive: true},
		{ID: 1, Name: "Foundations", OrderIndex: 1, IsActive: true, Questions: []models.AssessmentQuestion{
			{ID: 10, ModuleID: 1, QuestionType: models.QuestionScale, Prompt: "Rate yourself", OrderIndex: 1},
		}},
	}, nil), nil)

	w := f.do(http.MethodGet, "/api/v1/catalog/modules", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var modules []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &modules))
	require.Len(t, modules, 2)
	assert.Equal(t, "Foundations", modules[0]["name"])
	assert.Equal(t, float64(1), modules[0]["question_count"])
	assert.Equal(t, "Execution", modules[1]["name"])
}
