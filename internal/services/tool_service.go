package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/events"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/monitoring"
	"github.com/SAP-F-2025/career-assessment-service/internal/storage"
	"github.com/SAP-F-2025/career-assessment-service/internal/validator"
)

// MaxResumeSize caps resume uploads
const MaxResumeSize = 10 << 20

// ToolService runs the paid tools. Access is always verified before the gateway is called.
type ToolService interface {
	Run(ctx context.Context, operation models.ToolOperation, req *dto.RunToolRequest) (*dto.RunToolResponse, error)
	ParseResume(ctx context.Context, req *dto.ParseResumeRequest, file io.Reader) (*dto.RunToolResponse, error)
}

type toolService struct {
	access    ToolAccessService
	gateway   LLMGateway
	store     storage.ObjectStore
	validator *validator.Validator
	events    *eventEmitter
	metrics   *monitoring.Metrics
	logger    *ServiceLogger
}

func NewToolService(
	access ToolAccessService,
	gateway LLMGateway,
	store storage.ObjectStore,
	publisher events.EventPublisher,
	validator *validator.Validator,
	metrics *monitoring.Metrics,
	logger *slog.Logger,
) ToolService {
	return &toolService{
		access:    access,
		gateway:   gateway,
		store:     store,
		validator: validator,
		events:    newEventEmitter(publisher, logger),
		metrics:   metrics,
		logger:    NewServiceLogger(logger, LogConfig{Service: "career-assessment", Component: "tools"}),
	}
}

func (s *toolService) Run(ctx context.Context, operation models.ToolOperation, req *dto.RunToolRequest) (resp *dto.RunToolResponse, err error) {
	op := s.logger.WithOperation(ctx, "run_tool", string(operation))
	defer func() { op.LogResult(err) }()

	toolType, ok := operation.RequiredToolType()
	if !ok {
		return nil, fmt.Errorf("%s: %w", operation, ErrUnknownOperation)
	}
	if operation == models.OperationResumeParse {
		return nil, NewValidationError("operation", "resume_parse requires a file upload", "required_with", operation)
	}

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	completion, err := buildToolPrompt(operation, req.Input)
	if err != nil {
		return nil, err
	}

	grant, err := s.verify(ctx, req.ToolCredentials, toolType)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Complete(ctx, completion)
	s.recordInvocation(ctx, grant, operation, err)
	if err != nil {
		return nil, err
	}

	return &dto.RunToolResponse{
		Operation: operation,
		Result:    strings.TrimSpace(result.Text),
		Model:     result.Model,
	}, nil
}

func (s *toolService) ParseResume(ctx context.Context, req *dto.ParseResumeRequest, file io.Reader) (resp *dto.RunToolResponse, err error) {
	op := s.logger.WithOperation(ctx, "parse_resume", req.FileName)
	defer func() { op.LogResult(err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	contentType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil || !s.gateway.SupportsDocument(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, req.ContentType)
	}

	grant, err := s.verify(ctx, req.ToolCredentials, models.ToolResumeSuite)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxResumeSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxResumeSize {
		return nil, NewValidationError("file", "must not exceed 10MB", "max", len(data))
	}

	objectKey := storage.ResumeObjectKey(grant.Purchase.ID, req.FileName)
	if s.store != nil {
		if err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
	}

	result, err := s.gateway.Complete(ctx, CompletionRequest{
		System:      resumeParseSystemPrompt,
		Prompt:      "Extract the structured profile from the attached resume.",
		Temperature: 0.1,
		JSON:        true,
		Document:    &Document{MIMEType: contentType, Data: data},
	})
	s.recordInvocation(ctx, grant, models.OperationResumeParse, err)
	if err != nil {
		return nil, err
	}

	return &dto.RunToolResponse{
		Operation: models.OperationResumeParse,
		Result:    strings.TrimSpace(result.Text),
		Model:     result.Model,
		ObjectKey: objectKey,
	}, nil
}

func (s *toolService) verify(ctx context.Context, creds dto.ToolCredentials, toolType models.ToolType) (*AccessGrant, error) {
	return s.access.Verify(ctx, &dto.VerifyAccessRequest{
		Email:       creds.Email,
		AccessToken: creds.AccessToken,
		ToolType:    toolType,
	})
}

func (s *toolService) recordInvocation(ctx context.Context, grant *AccessGrant, operation models.ToolOperation, err error) {
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	s.metrics.RecordToolInvocation(string(operation), outcome)
	s.events.emit(ctx, events.EventToolInvoked, events.ToolInvokedEvent{
		PurchaseID: grant.Purchase.ID,
		ToolType:   string(grant.Purchase.ToolType),
		Operation:  string(operation),
		Succeeded:  err == nil,
	})
}
