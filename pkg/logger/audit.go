package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security or enforcement audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	TargetUserID  string
	IPAddress     string
	Success       bool
	FailureReason string
}

// AuditLogger provides audit logging for auth and enforcement actions
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogEnforcementAction logs moderation decisions taken against an account
// (warnings issued, restrictions applied or lifted, reports resolved)
func (al *AuditLogger) LogEnforcementAction(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "enforcement"),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("actor_id", event.UserID))
	}
	if event.TargetUserID != "" {
		attrs = append(attrs, slog.String("target_user_id", event.TargetUserID))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
