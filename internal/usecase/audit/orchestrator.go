// Package audit orchestrates one security assessment run: static pattern
// matching, capability-flow analysis, model review, evidence validation,
// and confidence scoring, in that order. The analysis stages themselves are
// pure; this package owns the run-scoped MetricsCollector and all I/O
// collaborators.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/movesec/auditor/internal/analysis/capflow"
	"github.com/movesec/auditor/internal/analysis/confidence"
	"github.com/movesec/auditor/internal/analysis/patterns"
	"github.com/movesec/auditor/internal/analysis/validation"
	"github.com/movesec/auditor/internal/domain"
)

// PackageSource fetches a package's disassembled modules and normalized
// public functions.
type PackageSource interface {
	FetchPackage(ctx context.Context, packageID string) (domain.ContractPackage, error)
}

// Provider defines the outbound port for model review.
type Provider interface {
	// ProposeFindings submits the rendered prompt and returns the model's
	// proposed findings.
	ProposeFindings(ctx context.Context, req ProviderRequest) (ProviderResponse, error)
}

// ProviderRequest is the payload submitted to a model provider.
type ProviderRequest struct {
	Prompt    string
	MaxTokens int
}

// ProviderResponse is the standardized reply from any model provider.
type ProviderResponse struct {
	Model     string
	Findings  []domain.ModelFinding
	TokensIn  int
	TokensOut int
}

// ReportWriter persists an assessment report to disk.
type ReportWriter interface {
	Write(ctx context.Context, artifact ReportArtifact) (string, error)
}

// ReportArtifact encapsulates report generation inputs.
type ReportArtifact struct {
	OutputDir string
	Report    domain.AssessmentReport
}

// Store defines the outbound port for persisting assessment history.
type Store interface {
	CreateRun(ctx context.Context, run StoreRun) error
	SaveFindings(ctx context.Context, runID string, findings []domain.ValidatedFinding) error
	SaveRisks(ctx context.Context, runID string, risks []domain.CrossModuleRisk) error
	FinishRun(ctx context.Context, runID string, riskScore float64, level domain.ConfidenceLevel) error
	Close() error
}

// StoreRun captures run metadata for persistence.
type StoreRun struct {
	RunID     string
	PackageID string
	Timestamp time.Time
}

// Logger defines structured logging for orchestration events.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// TokenEstimator estimates the token cost of a prompt fragment.
type TokenEstimator func(text string) int

// Dependencies captures the collaborators for the orchestrator. Source is
// required; everything else is optional and skipped when nil.
type Dependencies struct {
	Source         PackageSource
	Providers      map[string]Provider
	JSONWriter     ReportWriter
	MarkdownWriter ReportWriter
	SARIFWriter    ReportWriter
	Store          Store
	Logger         Logger
	EstimateTokens TokenEstimator
	Now            func() time.Time
}

// Request describes one assessment run.
type Request struct {
	PackageID string
	OutputDir string
	SkipLLM   bool
	// Providers optionally restricts the run to the named providers. Empty
	// means every configured provider.
	Providers []string
	// Provenance is optional source metadata recorded on the report.
	Provenance string
}

// Result is the outcome of one assessment run.
type Result struct {
	Report       domain.AssessmentReport
	JSONPath     string
	MarkdownPath string
	SARIFPath    string
}

// Orchestrator sequences the assessment pipeline.
type Orchestrator struct {
	deps Dependencies
}

// NewOrchestrator constructs an orchestrator from its dependencies.
func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("audit: package source is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}, nil
}

// Run executes the full pipeline for one package and returns the report.
// Analysis stages never fail; only fetch, write, and store errors surface.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	pkg, err := o.deps.Source.FetchPackage(ctx, req.PackageID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch package %s: %w", req.PackageID, err)
	}

	collector := confidence.NewCollector()
	collector.RecordModules(len(pkg.ModuleCode), len(pkg.ModuleCode))
	collector.RecordFunctions(len(pkg.Functions))
	for _, text := range pkg.ModuleCode {
		collector.RecordBytecodeSize(len(text))
	}

	static := runStaticParallel(pkg.ModuleCode, pkg.Functions)
	collector.RecordStaticAnalysis(static)

	cross := capflow.Run(pkg.ModuleCode, pkg.Functions)
	collector.RecordCrossModule(cross)

	var modelFindings []domain.ModelFinding
	providers := o.selectProviders(req.Providers)
	if !req.SkipLLM && len(providers) > 0 {
		modelFindings = o.collectModelFindings(ctx, providers, pkg, static, cross, collector)
	}

	validated := validation.ValidateFindings(modelFindings, validation.Context{
		ModuleCode:      pkg.ModuleCode,
		Functions:       pkg.Functions,
		KnownPatternIDs: patterns.KnownPatternIDs(),
	})
	collector.RecordValidation(validated.Summary)

	riskScore := RiskScore(static, cross, validated)
	metrics := confidence.Calculate(collector, riskScore)

	report := domain.AssessmentReport{
		PackageID:   pkg.PackageID,
		Static:      static,
		CrossModule: cross,
		Validation:  validated,
		RiskScore:   riskScore,
		Confidence:  metrics,
		GeneratedAt: o.deps.Now().UTC(),
		Provenance:  req.Provenance,
	}

	result := Result{Report: report}
	if o.deps.JSONWriter != nil {
		result.JSONPath, err = o.deps.JSONWriter.Write(ctx, ReportArtifact{OutputDir: req.OutputDir, Report: report})
		if err != nil {
			return Result{}, fmt.Errorf("write json report: %w", err)
		}
	}
	if o.deps.MarkdownWriter != nil {
		result.MarkdownPath, err = o.deps.MarkdownWriter.Write(ctx, ReportArtifact{OutputDir: req.OutputDir, Report: report})
		if err != nil {
			return Result{}, fmt.Errorf("write markdown report: %w", err)
		}
	}
	if o.deps.SARIFWriter != nil {
		result.SARIFPath, err = o.deps.SARIFWriter.Write(ctx, ReportArtifact{OutputDir: req.OutputDir, Report: report})
		if err != nil {
			return Result{}, fmt.Errorf("write sarif report: %w", err)
		}
	}

	if o.deps.Store != nil {
		if err := o.persist(ctx, report); err != nil {
			// Store failures should not invalidate a completed analysis.
			o.logWarning(ctx, "failed to persist assessment", map[string]interface{}{
				"packageID": req.PackageID,
				"error":     err.Error(),
			})
		}
	}

	return result, nil
}

// selectProviders filters the configured providers to the requested names.
func (o *Orchestrator) selectProviders(names []string) map[string]Provider {
	if len(names) == 0 {
		return o.deps.Providers
	}
	selected := make(map[string]Provider, len(names))
	for _, name := range names {
		if provider, ok := o.deps.Providers[name]; ok {
			selected[name] = provider
		}
	}
	return selected
}

// collectModelFindings fans the rendered prompt out to the selected
// providers and concatenates their proposals. Provider failures degrade to
// fewer findings, recorded on the collector, never to a run failure.
func (o *Orchestrator) collectModelFindings(
	ctx context.Context,
	providers map[string]Provider,
	pkg domain.ContractPackage,
	static domain.StaticAnalysisResult,
	cross domain.CrossModuleAnalysisResult,
	collector *confidence.MetricsCollector,
) []domain.ModelFinding {
	prompt, truncated := BuildReviewPrompt(pkg, static, cross, o.deps.EstimateTokens)
	for _, module := range truncated {
		collector.RecordTruncation(module)
	}

	type outcome struct {
		provider string
		findings []domain.ModelFinding
		err      error
	}

	results := make(chan outcome, len(providers))
	var wg sync.WaitGroup
	for name, provider := range providers {
		wg.Add(1)
		go func(name string, provider Provider) {
			defer func() {
				if r := recover(); r != nil {
					results <- outcome{provider: name, err: fmt.Errorf("provider %s panicked: %v", name, r)}
				}
				wg.Done()
			}()
			resp, err := provider.ProposeFindings(ctx, ProviderRequest{Prompt: prompt, MaxTokens: defaultMaxTokens})
			results <- outcome{provider: name, findings: resp.Findings, err: err}
		}(name, provider)
	}
	wg.Wait()
	close(results)

	var findings []domain.ModelFinding
	for out := range results {
		if out.err != nil {
			collector.RecordLLMError()
			o.logWarning(ctx, "model review failed", map[string]interface{}{
				"provider": out.provider,
				"error":    out.err.Error(),
			})
			continue
		}
		findings = append(findings, out.findings...)
		o.logInfo(ctx, "model review completed", map[string]interface{}{
			"provider": out.provider,
			"findings": len(out.findings),
		})
	}
	collector.RecordLLMFindings(len(findings))
	return findings
}

func (o *Orchestrator) persist(ctx context.Context, report domain.AssessmentReport) error {
	runID := fmt.Sprintf("%s-%s", report.PackageID, report.GeneratedAt.Format("20060102T150405Z"))
	run := StoreRun{
		RunID:     runID,
		PackageID: report.PackageID,
		Timestamp: report.GeneratedAt,
	}
	if err := o.deps.Store.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	if err := o.deps.Store.SaveFindings(ctx, runID, report.Validation.ValidatedFindings); err != nil {
		return fmt.Errorf("save findings: %w", err)
	}
	if err := o.deps.Store.SaveRisks(ctx, runID, report.CrossModule.Risks); err != nil {
		return fmt.Errorf("save risks: %w", err)
	}
	if err := o.deps.Store.FinishRun(ctx, runID, report.RiskScore, report.Confidence.ConfidenceLevel); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (o *Orchestrator) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
	}
}
