package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gipoly/gipoly-engine/pkg/auth"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func userContext(userID string) context.Context {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
	ctx := auth.WithClaims(context.Background(), claims, "token")
	return WithClientIP(ctx, "192.168.1.100")
}

func decodeEvent(t *testing.T, entry observer.LoggedEntry) SecurityEvent {
	t.Helper()
	eventJSON, ok := entry.ContextMap()["event_json"].(string)
	require.True(t, ok, "event_json should be a string")

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(eventJSON), &event))
	return event
}

func TestLogInjectionAttempt(t *testing.T) {
	workspaceID := uuid.New()

	tests := []struct {
		name         string
		blocked      bool
		wantLevel    zapcore.Level
		wantSeverity string
	}{
		{name: "blocked", blocked: true, wantLevel: zapcore.ErrorLevel, wantSeverity: "critical"},
		{name: "audited only", blocked: false, wantLevel: zapcore.WarnLevel, wantSeverity: "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, recorded := setupTestLogger(t)
			auditor := NewSecurityAuditor(logger)

			auditor.LogInjectionAttempt(userContext("user-123"), workspaceID, "seo_strategist", InjectionDetails{
				Field:   "product_name",
				Value:   "<script>alert(1)</script>",
				Kind:    "xss",
				Blocked: tt.blocked,
			})

			logs := recorded.All()
			require.Len(t, logs, 1)
			entry := logs[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "Injection attempt detected", entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, workspaceID.String(), fields["workspace_id"])
			assert.Equal(t, "product_name", fields["field"])
			assert.Equal(t, "192.168.1.100", fields["client_ip"])
			assert.Equal(t, "user-123", fields["user_id"])
			assert.Equal(t, tt.wantSeverity, fields["severity"])

			event := decodeEvent(t, entry)
			assert.Equal(t, EventInjectionAttempt, event.EventType)
			assert.Equal(t, workspaceID, event.WorkspaceID)
			assert.Equal(t, "seo_strategist", event.Tool)

			details, ok := event.Details.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "<script>alert(1)</script>", details["value"])
			assert.Equal(t, tt.blocked, details["blocked"])
		})
	}
}

func TestLogInjectionAttempt_TruncatesValue(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogInjectionAttempt(context.Background(), uuid.New(), "trend_agent", InjectionDetails{
		Field: "additional_notes",
		Value: strings.Repeat("a", 5000),
		Kind:  "sqli",
	})

	event := decodeEvent(t, recorded.All()[0])
	details := event.Details.(map[string]any)
	assert.Less(t, len(details["value"].(string)), 300)
	assert.Empty(t, event.UserID)
	assert.Empty(t, event.ClientIP)
}

func TestLogInputValidation(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	workspaceID := uuid.New()

	auditor.LogInputValidation(userContext("user-9"), workspaceID, "ad_creative", []string{"platform", "audience.age"})

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)

	event := decodeEvent(t, logs[0])
	assert.Equal(t, EventInputValidation, event.EventType)
	assert.Equal(t, "warning", event.Severity)
	assert.Equal(t, map[string]any{"fields": []any{"platform", "audience.age"}}, event.Details)
}

func TestLogQuotaExceeded(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogQuotaExceeded(userContext("user-9"), uuid.New(), "trend_agent", 3)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Equal(t, int64(3), logs[0].ContextMap()["limit"])
	assert.Equal(t, EventQuotaExceeded, decodeEvent(t, logs[0]).EventType)
}

func TestLoggerNamespace(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogQuotaExceeded(context.Background(), uuid.New(), "trend_agent", 3)

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "security_audit", recorded.All()[0].LoggerName)
}
