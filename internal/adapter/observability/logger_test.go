package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
)

type recordingLogger struct {
	llmhttp.Logger
	infos    []string
	warnings []string
}

func (r *recordingLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	r.infos = append(r.infos, message)
}

func (r *recordingLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	r.warnings = append(r.warnings, message)
}

func TestAuditLoggerDelegates(t *testing.T) {
	sink := &recordingLogger{}
	logger := NewAuditLogger(sink)

	logger.LogInfo(context.Background(), "analysis started", map[string]interface{}{"packageID": "0xabc"})
	logger.LogWarning(context.Background(), "provider degraded", nil)

	assert.Equal(t, []string{"analysis started"}, sink.infos)
	assert.Equal(t, []string{"provider degraded"}, sink.warnings)
}
