package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movesec/auditor/internal/domain"
)

type stubSource struct {
	pkg domain.ContractPackage
	err error
}

func (s *stubSource) FetchPackage(ctx context.Context, packageID string) (domain.ContractPackage, error) {
	return s.pkg, s.err
}

type stubProvider struct {
	findings []domain.ModelFinding
	err      error
	called   bool
}

func (p *stubProvider) ProposeFindings(ctx context.Context, req ProviderRequest) (ProviderResponse, error) {
	p.called = true
	if p.err != nil {
		return ProviderResponse{}, p.err
	}
	return ProviderResponse{Model: "stub", Findings: p.findings}, nil
}

type stubWriter struct {
	path   string
	err    error
	called bool
}

func (w *stubWriter) Write(ctx context.Context, artifact ReportArtifact) (string, error) {
	w.called = true
	return w.path, w.err
}

type stubStore struct {
	runs      []StoreRun
	findings  []domain.ValidatedFinding
	finishErr error
	finished  bool
	closed    bool
}

func (s *stubStore) CreateRun(ctx context.Context, run StoreRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *stubStore) SaveFindings(ctx context.Context, runID string, findings []domain.ValidatedFinding) error {
	s.findings = append(s.findings, findings...)
	return nil
}

func (s *stubStore) SaveRisks(ctx context.Context, runID string, risks []domain.CrossModuleRisk) error {
	return nil
}

func (s *stubStore) FinishRun(ctx context.Context, runID string, riskScore float64, level domain.ConfidenceLevel) error {
	s.finished = true
	return s.finishErr
}

func (s *stubStore) Close() error {
	s.closed = true
	return nil
}

type captureLogger struct {
	warnings []string
}

func (l *captureLogger) LogInfo(ctx context.Context, msg string, fields map[string]interface{}) {}

func (l *captureLogger) LogWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	l.warnings = append(l.warnings, msg)
}

func vaultPackage() domain.ContractPackage {
	return domain.ContractPackage{
		PackageID: "0xabc",
		ModuleCode: map[string]string{
			"vault": "module vault { struct AdminCap has key, store { id: UID } " +
				"fun withdraw_all { MutBorrowField coin::take transfer::public_transfer } }",
		},
		Functions: []domain.PublicFunction{
			{
				Module: "vault",
				Name:   "withdraw_all",
				Params: []domain.Param{
					{Kind: domain.ParamReference, Type: "0x2::coin::Coin<0x2::sui::SUI>", Mutable: true},
					{Kind: domain.ParamPrimitive, Primitive: "u64"},
				},
			},
		},
	}
}

func TestNewOrchestratorRequiresSource(t *testing.T) {
	_, err := NewOrchestrator(Dependencies{})
	require.Error(t, err)

	_, err = NewOrchestrator(Dependencies{Source: &stubSource{}})
	require.NoError(t, err)
}

func TestRunFetchFailureSurfaces(t *testing.T) {
	orch, err := NewOrchestrator(Dependencies{
		Source: &stubSource{err: errors.New("rpc unavailable")},
	})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), Request{PackageID: "0xabc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0xabc")
}

func TestRunProducesReportWithoutProviders(t *testing.T) {
	orch, err := NewOrchestrator(Dependencies{
		Source: &stubSource{pkg: vaultPackage()},
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), Request{PackageID: "0xabc"})
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, "0xabc", report.PackageID)
	assert.NotEmpty(t, report.Static.Findings, "withdraw signature should trigger static findings")
	assert.Greater(t, report.RiskScore, 0.0)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), report.GeneratedAt)
	assert.NotEmpty(t, report.Confidence.ConfidenceLevel)
	assert.Empty(t, report.Validation.ValidatedFindings)
}

func TestRunCollectsAndValidatesProviderFindings(t *testing.T) {
	pkg := vaultPackage()
	provider := &stubProvider{findings: []domain.ModelFinding{
		{
			FunctionName:        "withdraw_all",
			TechnicalReason:     "unrestricted withdrawal drains pooled funds via coin::take without a capability check",
			MatchedPatternID:    "STATIC-GENERIC-WITHDRAW",
			Severity:            domain.SeverityHigh,
			EvidenceCodeSnippet: "coin::take transfer::public_transfer",
		},
	}}

	orch, err := NewOrchestrator(Dependencies{
		Source:    &stubSource{pkg: pkg},
		Providers: map[string]Provider{"primary": provider},
	})
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), Request{PackageID: "0xabc"})
	require.NoError(t, err)

	assert.True(t, provider.called)
	require.Len(t, result.Report.Validation.ValidatedFindings, 1)
	kept := result.Report.Validation.ValidatedFindings[0]
	assert.Equal(t, domain.StatusValidated, kept.ValidationStatus)
	assert.Equal(t, "vault", kept.MatchedModule)
}

func TestRunProviderFailureDegradesToEmptyFindings(t *testing.T) {
	logger := &captureLogger{}
	orch, err := NewOrchestrator(Dependencies{
		Source:    &stubSource{pkg: vaultPackage()},
		Providers: map[string]Provider{"primary": &stubProvider{err: errors.New("timeout")}},
		Logger:    logger,
	})
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), Request{PackageID: "0xabc"})
	require.NoError(t, err, "provider failure must not fail the run")
	assert.Empty(t, result.Report.Validation.ValidatedFindings)
	assert.Contains(t, logger.warnings, "model review failed")
	assert.NotEmpty(t, result.Report.Confidence.Limitations)
}

func TestRunSkipLLMBypassesProviders(t *testing.T) {
	provider := &stubProvider{}
	orch, err := NewOrchestrator(Dependencies{
		Source:    &stubSource{pkg: vaultPackage()},
		Providers: map[string]Provider{"primary": provider},
	})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), Request{PackageID: "0xabc", SkipLLM: true})
	require.NoError(t, err)
	assert.False(t, provider.called)
}

func TestRunWritesReports(t *testing.T) {
	jsonWriter := &stubWriter{path: "out/report.json"}
	mdWriter := &stubWriter{path: "out/report.md"}
	sarifWriter := &stubWriter{path: "out/report.sarif"}
	orch, err := NewOrchestrator(Dependencies{
		Source:         &stubSource{pkg: vaultPackage()},
		JSONWriter:     jsonWriter,
		MarkdownWriter: mdWriter,
		SARIFWriter:    sarifWriter,
	})
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), Request{PackageID: "0xabc", OutputDir: "out"})
	require.NoError(t, err)
	assert.Equal(t, "out/report.json", result.JSONPath)
	assert.Equal(t, "out/report.md", result.MarkdownPath)
	assert.Equal(t, "out/report.sarif", result.SARIFPath)
	assert.True(t, jsonWriter.called)
	assert.True(t, mdWriter.called)
	assert.True(t, sarifWriter.called)
}

func TestRunStoreFailureIsNonFatal(t *testing.T) {
	logger := &captureLogger{}
	store := &stubStore{finishErr: errors.New("disk full")}
	orch, err := NewOrchestrator(Dependencies{
		Source: &stubSource{pkg: vaultPackage()},
		Store:  store,
		Logger: logger,
	})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), Request{PackageID: "0xabc"})
	require.NoError(t, err)
	assert.True(t, store.finished)
	assert.Contains(t, logger.warnings, "failed to persist assessment")
}

func TestRunPersistsFindings(t *testing.T) {
	store := &stubStore{}
	orch, err := NewOrchestrator(Dependencies{
		Source: &stubSource{pkg: vaultPackage()},
		Store:  store,
	})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), Request{PackageID: "0xabc"})
	require.NoError(t, err)
	require.Len(t, store.runs, 1)
	assert.Equal(t, "0xabc", store.runs[0].PackageID)
	assert.True(t, store.finished)
}

func TestRunProviderSelection(t *testing.T) {
	chosen := &stubProvider{}
	ignored := &stubProvider{}
	orch, err := NewOrchestrator(Dependencies{
		Source: &stubSource{pkg: vaultPackage()},
		Providers: map[string]Provider{
			"anthropic": chosen,
			"openai":    ignored,
		},
	})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), Request{
		PackageID: "0xabc",
		Providers: []string{"anthropic"},
	})
	require.NoError(t, err)
	assert.True(t, chosen.called)
	assert.False(t, ignored.called)
}

func TestRunProviderSelectionUnknownNameMeansNoReview(t *testing.T) {
	provider := &stubProvider{}
	orch, err := NewOrchestrator(Dependencies{
		Source:    &stubSource{pkg: vaultPackage()},
		Providers: map[string]Provider{"anthropic": provider},
	})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), Request{
		PackageID: "0xabc",
		Providers: []string{"nonexistent"},
	})
	require.NoError(t, err)
	assert.False(t, provider.called)
}
