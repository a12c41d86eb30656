package services

import (
	"context"
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

const (
	accessMethodToken = "token"
	accessMethodEmail = "email"
	accessMethodNone  = "none"
)

// AccessGrant is a successful verification; Purchase reflects the recorded usage
type AccessGrant struct {
	Purchase *models.ToolPurchase
	Method   string
}

// ToolAccessService is the single entitlement check shared by every paid tool
type ToolAccessService interface {
	// Verify checks entitlement and records one use. Rejections are *AccessError values;
	// expiry additionally matches ErrAccessExpired and missing credentials ErrCredentialsRequired.
	Verify(ctx context.Context, req *dto.VerifyAccessRequest) (*AccessGrant, error)
	Claim(ctx context.Context, req *dto.ClaimAccessRequest) (*models.ToolPurchase, error)
	Grant(ctx context.Context, req *dto.GrantPurchaseRequest) (*models.ToolPurchase, error)
}

type toolAccessService struct {
	purchases repositories.ToolPurchaseRepository
	validator *validator.Validator
	events    *eventEmitter
	metrics   *monitoring.Metrics
	logger    *ServiceLogger
	now       func() time.Time
}

func NewToolAccessService(
	purchases repositories.ToolPurchaseRepository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	metrics *monitoring.Metrics,
	logger *slog.Logger,
) ToolAccessService {
	return &toolAccessService{
		purchases: purchases,
		validator: validator,
		events:    newEventEmitter(publisher, logger),
		metrics:   metrics,
		logger:    NewServiceLogger(logger, LogConfig{Service: "career-assessment", Component: "tool_access"}),
		now:       time.Now,
	}
}

func (s *toolAccessService) Verify(ctx context.Context, req *dto.VerifyAccessRequest) (grant *AccessGrant, err error) {
	op := s.logger.WithOperation(ctx, "verify_tool_access", string(req.ToolType))
	defer func() { op.LogResult(err) }()

	token := trimmed(req.AccessToken)
	email := ""
	if req.Email != nil {
		email = NormalizeEmail(*req.Email)
	}

	if token == "" && email == "" {
		s.reject(ctx, req.ToolType, accessMethodNone, "", ReasonCredentialsRequired)
		return nil, newAccessError(ReasonCredentialsRequired, ErrCredentialsRequired)
	}

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	if token != "" {
		return s.verifyToken(ctx, token, req.ToolType)
	}
	return s.verifyEmail(ctx, email, req.ToolType)
}

func (s *toolAccessService) verifyToken(ctx context.Context, token string, toolType models.ToolType) (*AccessGrant, error) {
	purchase, err := s.purchases.FindActiveByToken(ctx, token, toolType)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.reject(ctx, toolType, accessMethodToken, "", ReasonInvalidToken)
			return nil, newAccessError(ReasonInvalidToken, ErrAccessDenied)
		}
		return nil, fmt.Errorf("failed to look up access token: %w", err)
	}

	// expiry is a read-time check; the row keeps its active status
	if purchase.IsExpiredAt(s.now()) {
		s.metrics.RecordToolAccess(string(toolType), accessMethodToken, "expired")
		s.events.emit(ctx, events.EventToolAccessDenied, events.ToolAccessEvent{
			PurchaseID: purchase.ID,
			Email:      purchase.Email,
			ToolType:   string(toolType),
			Method:     accessMethodToken,
			Reason:     ReasonExpired,
			ExpiresAt:  purchase.ExpiresAt,
		})
		return nil, newAccessError(ReasonExpired, ErrAccessExpired)
	}

	return s.accept(ctx, purchase, accessMethodToken)
}

func (s *toolAccessService) verifyEmail(ctx context.Context, email string, toolType models.ToolType) (*AccessGrant, error) {
	purchase, err := s.purchases.FindLatestActiveByEmail(ctx, email, toolType, s.now())
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.reject(ctx, toolType, accessMethodEmail, email, ReasonNoActiveAccess)
			return nil, newAccessError(ReasonNoActiveAccess, ErrAccessDenied)
		}
		return nil, fmt.Errorf("failed to look up access by email: %w", err)
	}

	return s.accept(ctx, purchase, accessMethodEmail)
}

func (s *toolAccessService) accept(ctx context.Context, purchase *models.ToolPurchase, method string) (*AccessGrant, error) {
	usedAt := s.now().UTC()
	if err := s.purchases.RecordUsage(ctx, purchase.ID, usedAt); err != nil {
		return nil, persistenceError("record tool usage", err)
	}
	purchase.UsageCount++
	purchase.LastUsedAt = &usedAt

	s.metrics.RecordToolAccess(string(purchase.ToolType), method, "allowed")
	s.events.emit(ctx, events.EventToolAccessAllowed, events.ToolAccessEvent{
		PurchaseID: purchase.ID,
		Email:      purchase.Email,
		ToolType:   string(purchase.ToolType),
		Method:     method,
		ExpiresAt:  purchase.ExpiresAt,
	})

	return &AccessGrant{Purchase: purchase, Method: method}, nil
}

func (s *toolAccessService) reject(ctx context.Context, toolType models.ToolType, method, email, reason string) {
	s.metrics.RecordToolAccess(string(toolType), method, "denied")
	s.events.emit(ctx, events.EventToolAccessDenied, events.ToolAccessEvent{
		Email:    email,
		ToolType: string(toolType),
		Method:   method,
		Reason:   reason,
	})
}

// Claim activates a pending purchase. Claiming an active purchase again is a no-op.
func (s *toolAccessService) Claim(ctx context.Context, req *dto.ClaimAccessRequest) (purchase *models.ToolPurchase, err error) {
	op := s.logger.WithOperation(ctx, "claim_tool_access", string(req.ToolType))
	defer func() { op.LogResult(err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	purchase, err = s.purchases.GetByAccessToken(ctx, strings.TrimSpace(req.AccessToken), req.ToolType)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newAccessError(ReasonInvalidToken, ErrAccessDenied)
		}
		return nil, fmt.Errorf("failed to look up access token: %w", err)
	}

	switch purchase.Status {
	case models.PurchaseActive:
		return purchase, nil
	case models.PurchasePending:
	default:
		return nil, newAccessError(ReasonInvalidToken, ErrAccessDenied)
	}

	if purchase.IsExpiredAt(s.now()) {
		return nil, newAccessError(ReasonExpired, ErrAccessExpired)
	}

	if err := s.purchases.UpdateStatus(ctx, purchase.ID, models.PurchaseActive); err != nil {
		return nil, persistenceError("claim tool access", err)
	}
	purchase.Status = models.PurchaseActive

	s.metrics.RecordToolAccess(string(purchase.ToolType), accessMethodToken, "claimed")
	s.events.emit(ctx, events.EventToolAccessClaimed, events.ToolAccessEvent{
		PurchaseID: purchase.ID,
		Email:      purchase.Email,
		ToolType:   string(purchase.ToolType),
		Method:     accessMethodToken,
		ExpiresAt:  purchase.ExpiresAt,
	})

	return purchase, nil
}

// Grant records a purchase made outside the service, e.g. a confirmed checkout
func (s *toolAccessService) Grant(ctx context.Context, req *dto.GrantPurchaseRequest) (purchase *models.ToolPurchase, err error) {
	op := s.logger.WithOperation(ctx, "grant_tool_access", string(req.ToolType))
	defer func() { op.LogResult(err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := models.PurchasePending
	if req.Activate {
		status = models.PurchaseActive
	}

	purchase = &models.ToolPurchase{
		Email:       NormalizeEmail(req.Email),
		ToolType:    req.ToolType,
		Status:      status,
		AccessToken: newAccessToken(),
		PurchasedAt: now,
		ExpiresAt:   now.AddDate(0, 0, req.DurationDays),
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, persistenceError("grant tool access", err)
	}

	s.metrics.RecordToolAccess(string(purchase.ToolType), accessMethodEmail, "granted")
	s.events.emit(ctx, events.EventToolAccessGranted, events.ToolAccessEvent{
		PurchaseID: purchase.ID,
		Email:      purchase.Email,
		ToolType:   string(purchase.ToolType),
		Method:     accessMethodEmail,
		ExpiresAt:  purchase.ExpiresAt,
	})

	return purchase, nil
}

// newAccessToken returns an opaque random token
func newAccessToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
