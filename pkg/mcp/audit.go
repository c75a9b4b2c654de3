package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/logging"
)

// maxParamLength bounds logged string arguments.
const maxParamLength = 200

// Tool call outcomes reported to the observer.
const (
	OutcomeSuccess     = "success"
	OutcomeToolError   = "tool_error"
	OutcomeServerError = "server_error"
)

// ToolCallObserver receives one notification per MCP tool call. Used for metrics.
type ToolCallObserver interface {
	ObserveToolCall(tool, outcome string, seconds float64)
}

// AuditLogger logs every MCP tool call with its caller, sanitized arguments
// and duration.
type AuditLogger struct {
	observer ToolCallObserver
	logger   *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger. observer may be nil.
func NewAuditLogger(observer ToolCallObserver, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		observer: observer,
		logger:   logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	duration := a.elapsed(id)

	outcome := OutcomeSuccess
	if result != nil && result.IsError {
		outcome = OutcomeToolError
	}

	fields := append(a.callerFields(ctx, req),
		zap.String("outcome", outcome),
		zap.Duration("duration", duration))
	if preview := resultPreview(result); preview != "" && outcome == OutcomeToolError {
		fields = append(fields, zap.String("result_preview", preview))
	}
	a.logger.Info("MCP tool call", fields...)
	a.observe(req.Params.Name, outcome, duration)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}

	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	duration := a.elapsed(id)
	fields := append(a.callerFields(ctx, req),
		zap.String("outcome", OutcomeServerError),
		zap.Duration("duration", duration),
		zap.String("error", logging.SanitizeError(err)))
	a.logger.Warn("MCP tool call failed", fields...)
	a.observe(req.Params.Name, OutcomeServerError, duration)
}

func (a *AuditLogger) elapsed(id any) time.Duration {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return time.Since(v.(time.Time))
	}
	return 0
}

func (a *AuditLogger) observe(tool, outcome string, d time.Duration) {
	if a.observer != nil {
		a.observer.ObserveToolCall(tool, outcome, d.Seconds())
	}
}

func (a *AuditLogger) callerFields(ctx context.Context, req *mcplib.CallToolRequest) []zap.Field {
	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Any("arguments", sanitizeParams(req.Params.Arguments)),
	}
	if claims, ok := auth.GetClaims(ctx); ok {
		fields = append(fields, zap.String("user_id", claims.Subject))
	}
	if ws, ok := auth.GetWorkspace(ctx); ok {
		fields = append(fields, zap.String("workspace_id", ws.ID.String()))
	}
	return fields
}

// sensitiveKeywords mark argument names whose values are hashed, never logged.
var sensitiveKeywords = []string{"password", "secret", "token", "key", "credential"}

// sanitizeParams hashes sensitive values and truncates long strings.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveKey(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		return logging.TruncateString(val, maxParamLength)
	case map[string]any:
		return sanitizeParams(val)
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 hash prefix so repeated values can be
// correlated without being stored.
func hashSensitiveValue(value any) string {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		str = fmt.Sprintf("%v", v)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// resultPreview returns the start of the first text content.
func resultPreview(result *mcplib.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return logging.TruncateString(tc.Text, maxParamLength)
		}
	}
	return ""
}
