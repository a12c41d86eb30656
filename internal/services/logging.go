package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// Logger exposes the component-scoped slog logger
func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation, resourceKey string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		// Adjust log level based on error type
		switch {
		case IsValidation(err), IsCredentialsMissing(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsAccessDenied(err):
			level = slog.LevelWarn
			status = "access_denied"
		case IsConflict(err):
			level = slog.LevelWarn
			status = "conflict"
		case IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("resource", resourceKey),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		if validationErr, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		}
		if reason, ok := AccessReason(err); ok {
			attrs = append(attrs, slog.String("reason", reason))
		}
	}

	if level == slog.LevelDebug && !l.config.EnableDebug {
		return
	}
	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// ===== MIDDLEWARE AND HELPERS =====

// ContextualLogger wraps operations with automatic logging
type ContextualLogger struct {
	logger      *ServiceLogger
	operation   string
	resourceKey string
	startTime   time.Time
	ctx         context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, resourceKey string) *ContextualLogger {
	return &ContextualLogger{
		logger:      l,
		operation:   operation,
		resourceKey: resourceKey,
		startTime:   time.Now(),
		ctx:         ctx,
	}
}

// LogResult logs the outcome; meant to be deferred with a pointer to the named error
func (cl *ContextualLogger) LogResult(err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.resourceKey, time.Since(cl.startTime), err)
}

// tokenKey shortens a device or access token for logs
func tokenKey(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}
