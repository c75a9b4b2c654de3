// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventInjectionAttempt is logged when libinjection flags a request field.
	EventInjectionAttempt SecurityEventType = "injection_attempt"
	// EventInputValidation is logged when a tool request fails validation.
	EventInputValidation SecurityEventType = "input_validation_failure"
	// EventQuotaExceeded is logged when a workspace hits its per-tool analysis limit.
	EventQuotaExceeded SecurityEventType = "quota_exceeded"
)

// maxLoggedValueLength bounds user text copied into audit events.
const maxLoggedValueLength = 200

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp   time.Time         `json:"timestamp"`
	EventType   SecurityEventType `json:"event_type"`
	WorkspaceID uuid.UUID         `json:"workspace_id"`
	Tool        string            `json:"tool"`
	UserID      string            `json:"user_id,omitempty"`
	ClientIP    string            `json:"client_ip,omitempty"`
	Details     any               `json:"details"`
	Severity    string            `json:"severity"` // info, warning, critical
}

// InjectionDetails contains specifics of a flagged request field.
type InjectionDetails struct {
	Field       string `json:"field"`
	Value       string `json:"value"`
	Kind        string `json:"kind"`                  // xss or sqli
	Fingerprint string `json:"fingerprint,omitempty"` // libinjection fingerprint for pattern analysis
	Blocked     bool   `json:"blocked"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated
// "security_audit" logger namespace for filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

func (a *SecurityAuditor) event(ctx context.Context, t SecurityEventType, workspaceID uuid.UUID, tool string, details any, severity string) (SecurityEvent, string) {
	event := SecurityEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   t,
		WorkspaceID: workspaceID,
		Tool:        tool,
		UserID:      auth.GetUserIDFromContext(ctx),
		ClientIP:    ClientIPFromContext(ctx),
		Details:     details,
		Severity:    severity,
	}
	// Marshaling known types does not fail.
	eventJSON, _ := json.Marshal(event)
	return event, string(eventJSON)
}

// LogInjectionAttempt records a field flagged by libinjection. Blocked
// attempts are logged at ERROR with "critical" severity; audited-only hits
// at WARN.
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, workspaceID uuid.UUID, tool string, details InjectionDetails) {
	details.Value = logging.TruncateString(details.Value, maxLoggedValueLength)

	severity := "warning"
	log := a.logger.Warn
	if details.Blocked {
		severity = "critical"
		log = a.logger.Error
	}

	event, eventJSON := a.event(ctx, EventInjectionAttempt, workspaceID, tool, details, severity)

	log("Injection attempt detected",
		zap.String("event_json", eventJSON),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("tool", tool),
		zap.String("field", details.Field),
		zap.String("kind", details.Kind),
		zap.String("fingerprint", details.Fingerprint),
		zap.Bool("blocked", details.Blocked),
		zap.String("client_ip", event.ClientIP),
		zap.String("user_id", event.UserID),
		zap.String("severity", severity),
	)
}

// LogInputValidation records a request that failed validation.
// This is logged at WARN level as these are typically user errors, not attacks.
func (a *SecurityAuditor) LogInputValidation(ctx context.Context, workspaceID uuid.UUID, tool string, fields []string) {
	event, eventJSON := a.event(ctx, EventInputValidation, workspaceID, tool,
		map[string][]string{"fields": fields}, "warning")

	a.logger.Warn("Input validation failed",
		zap.String("event_json", eventJSON),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("tool", tool),
		zap.Strings("fields", fields),
		zap.String("client_ip", event.ClientIP),
		zap.String("user_id", event.UserID),
		zap.String("severity", "warning"),
	)
}

// LogQuotaExceeded records a rejected request from a workspace at its limit.
func (a *SecurityAuditor) LogQuotaExceeded(ctx context.Context, workspaceID uuid.UUID, tool string, limit int) {
	event, eventJSON := a.event(ctx, EventQuotaExceeded, workspaceID, tool,
		map[string]int{"limit": limit}, "info")

	a.logger.Info("Workspace analysis limit reached",
		zap.String("event_json", eventJSON),
		zap.String("workspace_id", workspaceID.String()),
		zap.String("tool", tool),
		zap.Int("limit", limit),
		zap.String("client_ip", event.ClientIP),
		zap.String("user_id", event.UserID),
		zap.String("severity", "info"),
	)
}
