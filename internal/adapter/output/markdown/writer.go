// Package markdown renders assessment reports into Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/movesec/auditor/internal/domain"
	"github.com/movesec/auditor/internal/usecase/audit"
)

type clock func() string

// Writer renders assessment reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown report to disk.
func (w *Writer) Write(ctx context.Context, artifact audit.ReportArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.md", sanitise(artifact.Report.PackageID), w.now())
	path := filepath.Join(artifact.OutputDir, filename)

	if err := os.WriteFile(path, []byte(buildContent(artifact.Report)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return path, nil
}

func buildContent(report domain.AssessmentReport) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Security Assessment Report\n\n")
	builder.WriteString(fmt.Sprintf("- Package: `%s`\n", report.PackageID))
	builder.WriteString(fmt.Sprintf("- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	builder.WriteString(fmt.Sprintf("- Risk Score: %.1f/100\n", report.RiskScore))
	builder.WriteString(fmt.Sprintf("- Confidence: %s [%d, %d]\n",
		caser.String(string(report.Confidence.ConfidenceLevel)),
		report.Confidence.ConfidenceInterval.Lower,
		report.Confidence.ConfidenceInterval.Upper))
	if report.Provenance != "" {
		builder.WriteString(fmt.Sprintf("- Source: %s\n", report.Provenance))
	}
	builder.WriteString("\n")

	writeStaticSection(&builder, caser, report.Static)
	writeCrossModuleSection(&builder, caser, report.CrossModule)
	writeValidationSection(&builder, caser, report.Validation)
	writeConfidenceSection(&builder, report.Confidence)

	return builder.String()
}

func writeStaticSection(builder *strings.Builder, caser cases.Caser, static domain.StaticAnalysisResult) {
	builder.WriteString("## Static Findings\n\n")
	if len(static.Findings) == 0 {
		builder.WriteString("No static findings.\n\n")
		return
	}
	for _, finding := range static.Findings {
		builder.WriteString(fmt.Sprintf("### %s (%s)\n", finding.PatternID, caser.String(string(finding.Severity))))
		builder.WriteString(fmt.Sprintf("- Location: `%s::%s`\n", finding.ModuleName, finding.FunctionName))
		builder.WriteString(fmt.Sprintf("- Confidence: %s\n", finding.Confidence))
		builder.WriteString(fmt.Sprintf("- %s\n", finding.Description))
		if finding.Evidence != "" {
			builder.WriteString(fmt.Sprintf("\n```\n%s\n```\n", finding.Evidence))
		}
		builder.WriteString("\n")
	}
}

func writeCrossModuleSection(builder *strings.Builder, caser cases.Caser, cross domain.CrossModuleAnalysisResult) {
	builder.WriteString("## Cross-Module Risks\n\n")
	if len(cross.Risks) == 0 {
		builder.WriteString("No cross-module risks.\n\n")
		return
	}
	for _, risk := range cross.Risks {
		builder.WriteString(fmt.Sprintf("### %s (%s)\n", risk.PatternID, caser.String(string(risk.Severity))))
		builder.WriteString(fmt.Sprintf("- Source: `%s::%s`\n", risk.SourceModule, risk.SourceFunction))
		builder.WriteString(fmt.Sprintf("- Affected modules: %s\n", strings.Join(risk.AffectedModules, ", ")))
		builder.WriteString(fmt.Sprintf("- %s\n\n", risk.Description))
	}
}

func writeValidationSection(builder *strings.Builder, caser cases.Caser, validation domain.ValidationResult) {
	builder.WriteString("## Model Review\n\n")
	summary := validation.Summary
	builder.WriteString(fmt.Sprintf("%d proposed, %d validated, %d unvalidated, %d rejected (average score %.0f).\n\n",
		summary.Total, summary.Validated, summary.Unvalidated, summary.Invalid, summary.AverageScore))

	for _, finding := range validation.ValidatedFindings {
		builder.WriteString(fmt.Sprintf("### %s (%s, score %d)\n",
			finding.FunctionName, caser.String(string(finding.ValidationStatus)), finding.ValidationScore))
		builder.WriteString(fmt.Sprintf("- Pattern: %s, severity %s\n", finding.MatchedPatternID, finding.Severity))
		builder.WriteString(fmt.Sprintf("- %s\n", finding.TechnicalReason))
		if len(finding.ValidationNotes) > 0 {
			builder.WriteString(fmt.Sprintf("- Notes: %s\n", strings.Join(finding.ValidationNotes, "; ")))
		}
		builder.WriteString("\n")
	}
}

func writeConfidenceSection(builder *strings.Builder, metrics domain.ConfidenceMetrics) {
	builder.WriteString("## Analysis Limitations\n\n")
	if len(metrics.Limitations) == 0 {
		builder.WriteString("None identified.\n")
	}
	for _, limitation := range metrics.Limitations {
		builder.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", limitation.Type, limitation.Severity, limitation.Description))
	}
	if len(metrics.Recommendations) > 0 {
		builder.WriteString("\n## Recommendations\n\n")
		for _, rec := range metrics.Recommendations {
			builder.WriteString(fmt.Sprintf("- %s\n", rec))
		}
	}
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
