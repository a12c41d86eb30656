package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/events"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockToolAccessService struct {
	mock.Mock
}

func (m *MockToolAccessService) Verify(ctx context.Context, req *dto.VerifyAccessRequest) (*AccessGrant, error) {
	args := m.Called(ctx, req)
	grant, _ := args.Get(0).(*AccessGrant)
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

type toolFixture struct {
	service   ToolService
	access    *MockToolAccessService
	gateway   *MockLLMGateway
	store     *MockObjectStore
	publisher *events.MockEventPublisher
}

func newToolFixture(t *testing.T) *toolFixture {
	t.Helper()

	f := &toolFixture{
		access:    &MockToolAccessService{},
		gateway:   &MockLLMGateway{},
		store:     &MockObjectStore{},
		publisher: events.NewMockEventPublisher(nil),
	}
	f.service = NewToolService(f.access, f.gateway, f.store, f.publisher, validator.New(), nil, discardLogger())

	t.Cleanup(func() {
		f.access.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
		f.store.AssertExpectations(t)
	})
	return f
}

func resumeGrant() *AccessGrant {
	return &AccessGrant{
		Purchase: &models.ToolPurchase{ID: 5, ToolType: models.ToolResumeSuite, Status: models.PurchaseActive},
		Method:   accessMethodToken,
	}
}

func forTool(toolType models.ToolType) interface{} {
	return mock.MatchedBy(func(req *dto.VerifyAccessRequest) bool { return req.ToolType == toolType })
}

func TestToolService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("verified request reaches the gateway", func(t *testing.T) {
		f := newToolFixture(t)
		f.access.On("Verify", ctx, forTool(models.ToolResumeSuite)).Return(resumeGrant(), nil)
		f.gateway.On("Complete", ctx, mock.MatchedBy(func(req CompletionRequest) bool {
			return req.System == coverLetterSystemPrompt &&
				strings.Contains(req.Prompt, "## Job description\nShip things") &&
				strings.Contains(req.Prompt, "## Resume\nShipped things")
		})).Return(&Completion{Text: " Dear team ", Model: "gpt-4o-mini"}, nil)

		resp, err := f.service.Run(ctx, models.OperationCoverLetter, &dto.RunToolRequest{
			ToolCredentials: dto.ToolCredentials{AccessToken: strPtr("abc")},
			Input:           dto.ToolInput{ResumeText: "Shipped things", JobDescription: "Ship things"},
		})

		require.NoError(t, err)
		assert.Equal(t, "Dear team", resp.Result)
		assert.Equal(t, "gpt-4o-mini", resp.Model)

		invoked := f.publisher.EventsOfType(events.EventToolInvoked)
		require.Len(t, invoked, 1)
		assert.True(t, invoked[0].Data.(events.ToolInvokedEvent).Succeeded)
	})

	t.Run("rejected access never calls the gateway", func(t *testing.T) {
		f := newToolFixture(t)
		f.access.On("Verify", ctx, forTool(models.ToolInterviewPrep)).
			Return(nil, newAccessError(ReasonExpired, ErrAccessExpired))

		_, err := f.service.Run(ctx, models.OperationInterviewPrep, &dto.RunToolRequest{
			ToolCredentials: dto.ToolCredentials{Email: strPtr("pm@example.com")},
			Input:           dto.ToolInput{TargetRole: "Senior PM"},
		})

		assert.True(t, IsAccessExpired(err))
		f.gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.EventsOfType(events.EventToolInvoked))
	})

	t.Run("missing inputs are rejected before verification", func(t *testing.T) {
		f := newToolFixture(t)

		_, err := f.service.Run(ctx, models.OperationResumeEnhance, &dto.RunToolRequest{
			ToolCredentials: dto.ToolCredentials{AccessToken: strPtr("abc")},
		})

		assert.True(t, IsValidation(err))
		f.access.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("unknown operation", func(t *testing.T) {
		f := newToolFixture(t)
		_, err := f.service.Run(ctx, models.ToolOperation("horoscope"), &dto.RunToolRequest{})
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})

	t.Run("resume parsing needs the upload endpoint", func(t *testing.T) {
		f := newToolFixture(t)
		_, err := f.service.Run(ctx, models.OperationResumeParse, &dto.RunToolRequest{})
		assert.True(t, IsValidation(err))

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "operation", ve.Field)
		assert.Equal(t, "required_with", ve.Rule)
	})

	t.Run("gateway failure is surfaced and recorded", func(t *testing.T) {
		f := newToolFixture(t)
		linkedIn := &AccessGrant{Purchase: &models.ToolPurchase{ID: 8, ToolType: models.ToolLinkedInSuite}}
		f.access.On("Verify", ctx, forTool(models.ToolLinkedInSuite)).Return(linkedIn, nil)
		f.gateway.On("Complete", ctx, mock.Anything).Return(nil, ErrGatewayFailed)

		_, err := f.service.Run(ctx, models.OperationLinkedInAnalysis, &dto.RunToolRequest{
			ToolCredentials: dto.ToolCredentials{AccessToken: strPtr("abc")},
			Input:           dto.ToolInput{ProfileURL: "https://linkedin.com/in/pm"},
		})

		assert.ErrorIs(t, err, ErrGatewayFailed)
		invoked := f.publisher.EventsOfType(events.EventToolInvoked)
		require.Len(t, invoked, 1)
		assert.False(t, invoked[0].Data.(events.ToolInvokedEvent).Succeeded)
	})
}

func TestToolService_ParseResume(t *testing.T) {
	ctx := context.Background()
	req := &dto.ParseResumeRequest{
		ToolCredentials: dto.ToolCredentials{AccessToken: strPtr("abc")},
		FileName:        "cv.pdf",
		ContentType:     "application/pdf",
		Size:            11,
	}

	t.Run("stores the file then prompts with it", func(t *testing.T) {
		f := newToolFixture(t)
		f.gateway.On("SupportsDocument", "application/pdf").Return(true)
		f.access.On("Verify", ctx, forTool(models.ToolResumeSuite)).Return(resumeGrant(), nil)
		f.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "resumes/5/") && strings.HasSuffix(key, ".pdf")
		}), mock.Anything, int64(11), "application/pdf").Return(nil)
		f.gateway.On("Complete", ctx, mock.MatchedBy(func(req CompletionRequest) bool {
			return req.JSON && req.Document != nil && string(req.Document.Data) == "%PDF-1.7 cv"
		})).Return(&Completion{Text: `{"name":"Ada"}`, Model: "gemini-1.5-flash"}, nil)

		resp, err := f.service.ParseResume(ctx, req, bytes.NewReader([]byte("%PDF-1.7 cv")))

		require.NoError(t, err)
		assert.Equal(t, models.OperationResumeParse, resp.Operation)
		assert.Equal(t, `{"name":"Ada"}`, resp.Result)
		assert.True(t, strings.HasPrefix(resp.ObjectKey, "resumes/5/"))
	})

	t.Run("unsupported type is rejected before verification", func(t *testing.T) {
		f := newToolFixture(t)
		f.gateway.On("SupportsDocument", "application/pdf").Return(false)

		_, err := f.service.ParseResume(ctx, req, bytes.NewReader([]byte("%PDF-1.7 cv")))

		assert.ErrorIs(t, err, ErrUnsupportedDocument)
		f.access.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("storage failure stops the request", func(t *testing.T) {
		f := newToolFixture(t)
		f.gateway.On("SupportsDocument", "application/pdf").Return(true)
		f.access.On("Verify", ctx, mock.Anything).Return(resumeGrant(), nil)
		f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

		_, err := f.service.ParseResume(ctx, req, bytes.NewReader([]byte("%PDF-1.7 cv")))

		assert.ErrorIs(t, err, ErrStorageFailed)
		f.gateway.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("oversized upload is rejected with the max rule", func(t *testing.T) {
		f := newToolFixture(t)
		f.gateway.On("SupportsDocument", "application/pdf").Return(true)
		f.access.On("Verify", ctx, mock.Anything).Return(resumeGrant(), nil)

		_, err := f.service.ParseResume(ctx, req, bytes.NewReader(make([]byte, MaxResumeSize+1)))

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "file", ve.Field)
		assert.Equal(t, "max", ve.Rule)
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
