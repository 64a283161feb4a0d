package confidence

import (
	"fmt"
	"math"

	"github.com/movesec/auditor/internal/domain"
)

const (
	baseWidth = 20
	minWidth  = 10
	maxWidth  = 50

	// largePackageBytes is the disassembly size past which sheer volume
	// becomes a (minor) limitation.
	largePackageBytes = 1 << 20
)

// Calculate derives the confidence metrics for one run from the collector's
// counters and the overall risk score. The collector must have been
// populated by some run, even a degenerate empty one, so every ratio
// defaults to 0 rather than NaN.
func Calculate(collector *MetricsCollector, riskScore float64) domain.ConfidenceMetrics {
	quality := qualityMetrics(collector)
	limitations := enumerateLimitations(collector, quality)
	interval := confidenceInterval(collector, quality, limitations, riskScore)
	level := confidenceLevel(interval.Width, quality.ValidationRate)

	return domain.ConfidenceMetrics{
		ConfidenceInterval: interval,
		ConfidenceLevel:    level,
		AnalysisQuality:    quality,
		Limitations:        limitations,
		Recommendations:    recommendations(level, limitations),
	}
}

func qualityMetrics(c *MetricsCollector) domain.AnalysisQuality {
	quality := domain.AnalysisQuality{
		ValidationRate:   c.ValidationRate(),
		LLMAgreementRate: 50, // neutral default when either count is zero
	}

	if c.TotalFunctions > 0 {
		coverage := float64(c.StaticFindings) / float64(c.TotalFunctions) * 100
		quality.StaticAnalysisCoverage = math.Min(100, coverage)
	}

	if c.CrossModuleRan {
		if c.CapabilitiesFound > 0 {
			quality.CrossModuleCoverage = 100
		} else {
			quality.CrossModuleCoverage = 50
		}
	}

	if c.StaticFindings > 0 && c.LLMFindings > 0 {
		lo := math.Min(float64(c.StaticFindings), float64(c.LLMFindings))
		hi := math.Max(float64(c.StaticFindings), float64(c.LLMFindings))
		quality.LLMAgreementRate = math.Min(100, lo/hi*100)
	}

	return quality
}

// enumerateLimitations lists every known weakness of the run. The checks
// are independent; any subset may co-occur.
func enumerateLimitations(c *MetricsCollector, quality domain.AnalysisQuality) []domain.AnalysisLimitation {
	var limitations []domain.AnalysisLimitation

	if n := len(c.TruncatedModules); n > 0 {
		severity := domain.LimitationModerate
		if n > 2 {
			severity = domain.LimitationSignificant
		}
		limitations = append(limitations, domain.AnalysisLimitation{
			Type:        domain.LimitationTruncation,
			Severity:    severity,
			Description: fmt.Sprintf("%d module(s) truncated before model review", n),
		})
	}

	if quality.ValidationRate < 50 {
		severity := domain.LimitationModerate
		if quality.ValidationRate < 30 {
			severity = domain.LimitationSignificant
		}
		limitations = append(limitations, domain.AnalysisLimitation{
			Type:        domain.LimitationValidation,
			Severity:    severity,
			Description: fmt.Sprintf("only %.0f%% of model findings survived validation", quality.ValidationRate),
		})
	}

	if c.AnalyzedModules < c.TotalModules {
		limitations = append(limitations, domain.AnalysisLimitation{
			Type:        domain.LimitationCoverage,
			Severity:    domain.LimitationModerate,
			Description: fmt.Sprintf("analyzed %d of %d modules", c.AnalyzedModules, c.TotalModules),
		})
	}

	if c.TotalBytecodeBytes > largePackageBytes {
		limitations = append(limitations, domain.AnalysisLimitation{
			Type:        domain.LimitationPackageSize,
			Severity:    domain.LimitationMinor,
			Description: fmt.Sprintf("package disassembly is large (%d bytes)", c.TotalBytecodeBytes),
		})
	}

	if c.LLMErrors > 0 {
		limitations = append(limitations, domain.AnalysisLimitation{
			Type:        domain.LimitationLLMErrors,
			Severity:    domain.LimitationModerate,
			Description: fmt.Sprintf("%d model call(s) failed during review", c.LLMErrors),
		})
	}

	if quality.StaticAnalysisCoverage < 20 && c.TotalFunctions > 5 {
		limitations = append(limitations, domain.AnalysisLimitation{
			Type:        domain.LimitationStaticLight,
			Severity:    domain.LimitationMinor,
			Description: "static patterns covered under 20% of public functions",
		})
	}

	return limitations
}

// confidenceInterval computes the bounded interval. All width adjustments
// are additive, so application order does not matter; the truncation
// limitation is priced by the per-module term rather than the generic
// per-limitation term.
func confidenceInterval(
	c *MetricsCollector,
	quality domain.AnalysisQuality,
	limitations []domain.AnalysisLimitation,
	riskScore float64,
) domain.ConfidenceInterval {
	width := float64(baseWidth)

	switch rate := quality.ValidationRate; {
	case rate >= 80:
		width -= 8
	case rate >= 50:
		width -= 4
	case rate < 30:
		width += 10
	}

	width += 5 * float64(len(c.TruncatedModules))

	for _, l := range limitations {
		if l.Type == domain.LimitationTruncation {
			continue
		}
		switch l.Severity {
		case domain.LimitationSignificant:
			width += 8
		case domain.LimitationModerate:
			width += 4
		case domain.LimitationMinor:
			width += 2
		}
	}

	switch agreement := quality.LLMAgreementRate; {
	case agreement >= 70:
		width -= 5
	case agreement < 40:
		width += 5
	}

	if width < minWidth {
		width = minWidth
	}
	if width > maxWidth {
		width = maxWidth
	}

	lower := int(math.Round(riskScore - width/2))
	upper := int(math.Round(riskScore + width/2))
	if lower < 0 {
		lower = 0
	}
	if upper > 100 {
		upper = 100
	}
	if upper < lower {
		upper = lower
	}

	// The reported width may be narrower than the pre-clamp width when
	// the interval hits the 0 or 100 boundary; that is expected.
	return domain.ConfidenceInterval{
		Lower: lower,
		Upper: upper,
		Width: upper - lower,
	}
}

func confidenceLevel(width int, validationRate float64) domain.ConfidenceLevel {
	switch {
	case width <= 15 && validationRate >= 70:
		return domain.ConfidenceLevelHigh
	case width >= 30 || validationRate < 40:
		return domain.ConfidenceLevelLow
	default:
		return domain.ConfidenceLevelMedium
	}
}

func recommendations(level domain.ConfidenceLevel, limitations []domain.AnalysisLimitation) []string {
	var recs []string

	switch level {
	case domain.ConfidenceLevelLow:
		recs = append(recs, "Analysis confidence is low; a full manual security review is strongly recommended before relying on this assessment.")
	case domain.ConfidenceLevelMedium:
		recs = append(recs, "Review the flagged functions manually; confidence in the automated assessment is moderate.")
	}

	for _, l := range limitations {
		switch {
		case l.Type == domain.LimitationTruncation && l.Severity == domain.LimitationSignificant:
			recs = append(recs, "Several modules were truncated before model review; re-run the analysis per module for full coverage.")
		case l.Type == domain.LimitationValidation:
			recs = append(recs, "A notable share of model findings failed validation; treat unvalidated findings with skepticism.")
		}
	}

	if level == domain.ConfidenceLevelHigh && len(recs) == 0 {
		recs = append(recs, "Analysis completed with high confidence; no additional review is required.")
	}

	return recs
}
