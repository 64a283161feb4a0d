package http

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// jsonBlockRegex matches from the first opening fence to the LAST closing
// fence, so evidence snippets containing their own fenced code do not cut
// the extraction short.
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")

// ExtractJSONFromMarkdown extracts JSON from a markdown code block, or
// returns the trimmed input when no fence is present.
func ExtractJSONFromMarkdown(text string) string {
	matches := jsonBlockRegex.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(text)
}

// ParseFindingsResponse parses a model reply into findings. Models are
// instructed to return a bare JSON array, but replies wrapped in a markdown
// fence or in a {"findings": [...]} envelope are tolerated. Severity strings
// are normalized through domain.ParseSeverity so casing variants survive.
func ParseFindingsResponse(text string) ([]domain.ModelFinding, error) {
	jsonText := ExtractJSONFromMarkdown(text)
	if jsonText == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var findings []domain.ModelFinding
	if err := json.Unmarshal([]byte(jsonText), &findings); err == nil {
		return normalizeFindings(findings), nil
	}

	var envelope struct {
		Findings []domain.ModelFinding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(jsonText), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse findings JSON: %w", err)
	}
	return normalizeFindings(envelope.Findings), nil
}

func normalizeFindings(findings []domain.ModelFinding) []domain.ModelFinding {
	for i := range findings {
		findings[i].Severity = domain.ParseSeverity(string(findings[i].Severity))
	}
	return findings
}
