// Package sarif renders an assessment as a SARIF 2.1.0 log so findings can
// feed code-scanning UIs and CI gates.
package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/movesec/auditor/internal/domain"
	"github.com/movesec/auditor/internal/usecase/audit"
)

// Writer implements the audit ReportWriter port for SARIF output.
type Writer struct {
	now func() string
}

// NewWriter creates a new SARIF writer.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists the assessment to disk as a SARIF file.
func (w *Writer) Write(ctx context.Context, artifact audit.ReportArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(artifact.OutputDir,
		fmt.Sprintf("%s_%s.sarif", sanitise(artifact.Report.PackageID), w.now()))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(convertToSARIF(artifact.Report)); err != nil {
		return "", fmt.Errorf("failed to encode assessment to sarif: %w", err)
	}

	return filePath, nil
}

// convertToSARIF maps one assessment report to SARIF format. Every static
// finding, cross-module risk, and kept model finding becomes a result; the
// rule table is the set of pattern IDs those results reference.
func convertToSARIF(report domain.AssessmentReport) map[string]interface{} {
	var results []map[string]interface{}
	ruleIDs := map[string]bool{}

	for _, finding := range report.Static.Findings {
		ruleIDs[finding.PatternID] = true
		results = append(results, result(
			finding.PatternID,
			finding.Severity,
			finding.Description,
			finding.ModuleName,
			map[string]interface{}{
				"function":   finding.FunctionName,
				"confidence": string(finding.Confidence),
				"evidence":   finding.Evidence,
				"stage":      "static",
			},
		))
	}

	for _, risk := range report.CrossModule.Risks {
		ruleIDs[risk.PatternID] = true
		results = append(results, result(
			risk.PatternID,
			risk.Severity,
			risk.Description,
			risk.SourceModule,
			map[string]interface{}{
				"function":        risk.SourceFunction,
				"affectedModules": strings.Join(risk.AffectedModules, ","),
				"evidence":        risk.Evidence,
				"stage":           "cross-module",
			},
		))
	}

	for _, finding := range report.Validation.ValidatedFindings {
		ruleIDs[finding.MatchedPatternID] = true
		results = append(results, result(
			finding.MatchedPatternID,
			finding.Severity,
			finding.TechnicalReason,
			finding.MatchedModule,
			map[string]interface{}{
				"function":         finding.FunctionName,
				"validationStatus": string(finding.ValidationStatus),
				"validationScore":  finding.ValidationScore,
				"stage":            "model-review",
			},
		))
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":           "auditor",
						"informationUri": "https://github.com/movesec/auditor",
						"rules":          rules(ruleIDs),
					},
				},
				"results": results,
				"properties": map[string]interface{}{
					"packageId":       report.PackageID,
					"riskScore":       report.RiskScore,
					"confidenceLevel": string(report.Confidence.ConfidenceLevel),
				},
			},
		},
	}
}

func result(ruleID string, severity domain.Severity, message, module string, properties map[string]interface{}) map[string]interface{} {
	// SARIF requires non-empty message text
	if message == "" {
		message = "No description provided"
	}
	if ruleID == "" {
		ruleID = "unclassified"
	}

	res := map[string]interface{}{
		"ruleId":     ruleID,
		"level":      convertSeverity(severity),
		"message":    map[string]interface{}{"text": message},
		"properties": properties,
	}

	// Locations point at the disassembled module; bytecode offsets carry no
	// stable line numbers, so no region is emitted.
	if module != "" {
		res["locations"] = []map[string]interface{}{
			{
				"physicalLocation": map[string]interface{}{
					"artifactLocation": map[string]interface{}{
						"uri": "modules/" + module + ".disasm",
					},
				},
			},
		}
	}

	return res
}

func rules(ruleIDs map[string]bool) []map[string]interface{} {
	ids := make([]string, 0, len(ruleIDs))
	for id := range ruleIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]interface{}{
			"id":               id,
			"shortDescription": map[string]interface{}{"text": id},
		})
	}
	return out
}

// convertSeverity maps finding severities to SARIF levels.
func convertSeverity(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	case domain.SeverityLow:
		return "note"
	default:
		return "warning"
	}
}

func sanitise(value string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(value)
}
