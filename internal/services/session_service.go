package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/dto"
	"github.com/SAP-F-2025/career-assessment-service/internal/events"
	"github.com/SAP-F-2025/career-assessment-service/internal/models"
	"github.com/SAP-F-2025/career-assessment-service/internal/monitoring"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/career-assessment-service/internal/validator"
	"github.com/google/uuid"
)

// SessionService drives one visitor's assessment. Every call names the device token
// explicitly and returns state recomputed from persisted rows.
type SessionService interface {
	Bootstrap(ctx context.Context, deviceToken string) (*AssessmentState, error)
	GetState(ctx context.Context, token string, moduleID *uint) (*AssessmentState, error)
	SaveResponse(ctx context.Context, token string, req *dto.SaveResponseRequest) (*AssessmentState, error)
	UpdatePosition(ctx context.Context, token string, req *dto.UpdatePositionRequest) (*AssessmentState, error)
	SaveEmail(ctx context.Context, token string, req *dto.SaveEmailRequest) (*AssessmentState, error)
	SetInferredLevel(ctx context.Context, token string, req *dto.SetLevelRequest) (*AssessmentState, error)
	Submit(ctx context.Context, token string) (*AssessmentState, error)
}

type sessionService struct {
	sessions  repositories.SessionRepository
	responses repositories.ResponseRepository
	catalog   CatalogService
	validator *validator.Validator
	events    *eventEmitter
	metrics   *monitoring.Metrics
	logger    *ServiceLogger
	now       func() time.Time
}

func NewSessionService(
	repos *repositories.Repositories,
	catalog CatalogService,
	publisher events.EventPublisher,
	validator *validator.Validator,
	metrics *monitoring.Metrics,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		sessions:  repos.Sessions,
		responses: repos.Responses,
		catalog:   catalog,
		validator: validator,
		events:    newEventEmitter(publisher, logger),
		metrics:   metrics,
		logger:    NewServiceLogger(logger, LogConfig{Service: "career-assessment", Component: "session"}),
		now:       time.Now,
	}
}

func (s *sessionService) Bootstrap(ctx context.Context, deviceToken string) (state *AssessmentState, err error) {
	deviceToken = strings.TrimSpace(deviceToken)
	if deviceToken == "" {
		deviceToken = uuid.NewString()
	}
	op := s.logger.WithOperation(ctx, "bootstrap_session", tokenKey(deviceToken))
	defer func() { op.LogResult(err) }()

	if err := s.validator.Var("device_token", deviceToken, "max=64"); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByToken(ctx, deviceToken)
	if err == nil {
		return s.loadState(ctx, session, nil)
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.sessions.Create(ctx, &models.AssessmentSession{
		SessionToken: deviceToken,
		Status:       models.SessionInProgress,
	}); err != nil {
		return nil, persistenceError("create session", err)
	}

	// re-read: a concurrent first visit with the same token may have won the insert
	session, err = s.sessions.GetByToken(ctx, deviceToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load created session: %w", err)
	}

	s.metrics.RecordSessionEvent("started")
	s.events.emit(ctx, events.EventSessionStarted, events.SessionStartedEvent{
		SessionID:    session.ID,
		SessionToken: session.SessionToken,
	})

	return s.loadState(ctx, session, nil)
}

func (s *sessionService) GetState(ctx context.Context, token string, moduleID *uint) (*AssessmentState, error) {
	session, err := s.getSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.loadState(ctx, session, moduleID)
}

func (s *sessionService) SaveResponse(ctx context.Context, token string, req *dto.SaveResponseRequest) (state *AssessmentState, err error) {
	op := s.logger.WithOperation(ctx, "save_response", tokenKey(token))
	defer func() { op.LogResult(err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	session, err := s.getOpenSession(ctx, token)
	if err != nil {
		return nil, err
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	question, ok := catalog.Question(req.QuestionID)
	if !ok {
		return nil, fmt.Errorf("question %d: %w", req.QuestionID, ErrQuestionNotInCatalog)
	}

	answer := req.Answer()
	if errs := s.validator.Answer().Validate(question.AssessmentQuestion, answer); len(errs) > 0 {
		return nil, errs
	}

	fields := map[string]interface{}{}
	if req.CurrentModuleIndex != nil {
		fields["current_module_index"] = *req.CurrentModuleIndex
		session.CurrentModuleIndex = *req.CurrentModuleIndex
	}
	if req.CurrentQuestionIndex != nil {
		fields["current_question_index"] = *req.CurrentQuestionIndex
		session.CurrentQuestionIndex = *req.CurrentQuestionIndex
	}
	if err := s.responses.UpsertForOpenSession(ctx, answer.ToResponse(session.ID), fields); err != nil {
		return nil, sessionWriteError("save response", err)
	}

	return s.stateWithCatalog(ctx, catalog, session, nil)
}

func (s *sessionService) UpdatePosition(ctx context.Context, token string, req *dto.UpdatePositionRequest) (*AssessmentState, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	session, err := s.getOpenSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateOpenFields(ctx, session.ID, map[string]interface{}{
		"current_module_index":   req.CurrentModuleIndex,
		"current_question_index": req.CurrentQuestionIndex,
	}); err != nil {
		return nil, sessionWriteError("update position", err)
	}

	session.CurrentModuleIndex = req.CurrentModuleIndex
	session.CurrentQuestionIndex = req.CurrentQuestionIndex
	return s.loadState(ctx, session, nil)
}

// SaveEmail is accepted on submitted sessions too; only the assessment itself is frozen.
func (s *sessionService) SaveEmail(ctx context.Context, token string, req *dto.SaveEmailRequest) (state *AssessmentState, err error) {
	op := s.logger.WithOperation(ctx, "save_email", tokenKey(token))
	defer func() { op.LogResult(err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	session, err := s.getSession(ctx, token)
	if err != nil {
		return nil, err
	}

	email := NormalizeEmail(req.Email)
	if err := s.sessions.UpdateFields(ctx, session.ID, map[string]interface{}{"email": email}); err != nil {
		return nil, persistenceError("save email", err)
	}
	session.Email = &email

	state, err = s.loadState(ctx, session, nil)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSessionEvent("lead_captured")
	s.events.emit(ctx, events.EventLeadCaptured, events.LeadCapturedEvent{
		SessionID:     session.ID,
		Email:         email,
		AnsweredCount: state.AnsweredCount,
		InferredLevel: session.InferredLevel,
	})

	return state, nil
}

func (s *sessionService) SetInferredLevel(ctx context.Context, token string, req *dto.SetLevelRequest) (*AssessmentState, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	session, err := s.getOpenSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateOpenFields(ctx, session.ID, map[string]interface{}{"inferred_level": req.InferredLevel}); err != nil {
		return nil, sessionWriteError("set inferred level", err)
	}

	level := req.InferredLevel
	session.InferredLevel = &level
	return s.loadState(ctx, session, nil)
}

func (s *sessionService) Submit(ctx context.Context, token string) (state *AssessmentState, err error) {
	op := s.logger.WithOperation(ctx, "submit_session", tokenKey(token))
	defer func() { op.LogResult(err) }()

	session, err := s.getOpenSession(ctx, token)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now().UTC()
	// only one of several concurrent submits gets past the guarded write
	if err := s.sessions.UpdateOpenFields(ctx, session.ID, map[string]interface{}{
		"status":       models.SessionSubmitted,
		"submitted_at": submittedAt,
	}); err != nil {
		return nil, sessionWriteError("submit session", err)
	}
	session.Status = models.SessionSubmitted
	session.SubmittedAt = &submittedAt

	state, err = s.loadState(ctx, session, nil)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSessionEvent("submitted")
	s.events.emit(ctx, events.EventSessionSubmitted, events.SessionSubmittedEvent{
		SessionID:       session.ID,
		Email:           session.Email,
		InferredLevel:   session.InferredLevel,
		SubmittedAt:     submittedAt,
		AnsweredCount:   state.AnsweredCount,
		DimensionScores: state.Scores,
	})

	return state, nil
}

func (s *sessionService) getSession(ctx context.Context, token string) (*models.AssessmentSession, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewValidationError("session_token", "is required", "required", token)
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// getOpenSession loads a session that may still change its assessment state
func (s *sessionService) getOpenSession(ctx context.Context, token string) (*models.AssessmentSession, error) {
	session, err := s.getSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, ErrSessionSubmitted
	}
	return session, nil
}

// sessionWriteError maps a failed guarded write; the status check before it may be stale
func sessionWriteError(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrSessionClosed):
		return ErrSessionSubmitted
	case repositories.IsNotFoundError(err):
		return ErrSessionNotFound
	default:
		return persistenceError(op, err)
	}
}

func (s *sessionService) loadState(ctx context.Context, session *models.AssessmentSession, moduleID *uint) (*AssessmentState, error) {
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return s.stateWithCatalog(ctx, catalog, session, moduleID)
}

func (s *sessionService) stateWithCatalog(ctx context.Context, catalog *Catalog, session *models.AssessmentSession, moduleID *uint) (*AssessmentState, error) {
	responses, err := s.responses.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	if levelSet(session.InferredLevel) && !models.IsKnownLevel(*session.InferredLevel) {
		s.logger.Logger().WarnContext(ctx, "Session has unknown inferred level; level-gated questions hidden",
			"session_id", session.ID,
			"inferred_level", *session.InferredLevel)
	}

	return ComputeState(catalog, session, NewResponseSet(responses), moduleID), nil
}

// NormalizeEmail is the single email policy: trimmed and lower-cased on every write and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
