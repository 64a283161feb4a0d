// Package observability bridges the shared structured logger into the
// orchestration layer's logging port.
package observability

import (
	"context"

	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
	"github.com/movesec/auditor/internal/usecase/audit"
)

// AuditLogger adapts llmhttp.Logger to the audit.Logger interface so the
// orchestrator and the provider clients share one logging sink.
type AuditLogger struct {
	logger llmhttp.Logger
}

// NewAuditLogger creates the adapter.
func NewAuditLogger(logger llmhttp.Logger) audit.Logger {
	return &AuditLogger{logger: logger}
}

// LogWarning logs a warning message with structured fields.
func (l *AuditLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *AuditLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}
