package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/movesec/auditor/internal/adapter/cli"
	"github.com/movesec/auditor/internal/adapter/llm"
	"github.com/movesec/auditor/internal/adapter/llm/anthropic"
	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
	"github.com/movesec/auditor/internal/adapter/llm/openai"
	llmstatic "github.com/movesec/auditor/internal/adapter/llm/static"
	"github.com/movesec/auditor/internal/adapter/observability"
	"github.com/movesec/auditor/internal/adapter/output/json"
	"github.com/movesec/auditor/internal/adapter/output/markdown"
	"github.com/movesec/auditor/internal/adapter/output/sarif"
	"github.com/movesec/auditor/internal/adapter/repository"
	"github.com/movesec/auditor/internal/adapter/store/sqlite"
	"github.com/movesec/auditor/internal/adapter/sui"
	"github.com/movesec/auditor/internal/config"
	"github.com/movesec/auditor/internal/usecase/audit"
	"github.com/movesec/auditor/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "auditor",
		EnvPrefix:   "AUDITOR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	markdownWriter := markdown.NewWriter(nowFunc)
	jsonWriter := json.NewWriter(nowFunc)
	sarifWriter := sarif.NewWriter(nowFunc)

	logger := buildLogger(cfg.Observability)
	var auditLogger audit.Logger
	if logger != nil {
		auditLogger = observability.NewAuditLogger(logger)
	}

	providers := buildProviders(cfg.Providers, cfg.HTTP)

	source, localDir, err := buildSource(cfg)
	if err != nil {
		return err
	}

	var auditStore audit.Store
	var history cli.HistoryLister
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				auditStore = sqliteStore
				history = &historyAdapter{store: sqliteStore}
				defer auditStore.Close()
			}
		}
	}

	orchestrator, err := audit.NewOrchestrator(audit.Dependencies{
		Source:         source,
		Providers:      providers,
		JSONWriter:     jsonWriter,
		MarkdownWriter: markdownWriter,
		SARIFWriter:    sarifWriter,
		Store:          auditStore,
		Logger:         auditLogger,
		EstimateTokens: llm.EstimateTokens,
	})
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	var auditor cli.Auditor = orchestrator
	if localDir != "" {
		// Local audits record the work tree commit unless told otherwise.
		auditor = &provenanceAuditor{next: orchestrator, dir: localDir}
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Auditor:       auditor,
		History:       history,
		DefaultOutput: cfg.Output.Directory,
		DefaultSkip:   cfg.Audit.SkipLLM,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "auditor"))
	}
	return paths
}

// buildSource picks the package source from configuration. The second
// return is the local package directory when local mode is active.
func buildSource(cfg config.Config) (audit.PackageSource, string, error) {
	switch cfg.Source.Mode {
	case "", "rpc":
		return sui.NewClient(cfg.Sui.Endpoint), "", nil
	case "local":
		if cfg.Source.LocalDir == "" {
			return nil, "", fmt.Errorf("source.localDir is required when source.mode is local")
		}
		return repository.NewLocalPackageSource(cfg.Source.LocalDir), cfg.Source.LocalDir, nil
	default:
		return nil, "", fmt.Errorf("unknown source mode %q (expected rpc or local)", cfg.Source.Mode)
	}
}

// buildLogger creates the shared structured logger based on configuration.
func buildLogger(cfg config.ObservabilityConfig) llmhttp.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	logLevel := llmhttp.LogLevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = llmhttp.LogLevelDebug
	case "error":
		logLevel = llmhttp.LogLevelError
	}

	logFormat := llmhttp.LogFormatHuman
	if cfg.Logging.Format == "json" || !cli.IsOutputTerminal() {
		logFormat = llmhttp.LogFormatJSON
	}

	return llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
}

func buildProviders(providersConfig map[string]config.ProviderConfig, httpConfig config.HTTPConfig) map[string]audit.Provider {
	providers := make(map[string]audit.Provider)

	if cfg, ok := providersConfig["anthropic"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			log.Println("Anthropic: no API key provided (set ANTHROPIC_API_KEY or providers.anthropic.apiKey), skipping provider")
		} else {
			client := anthropic.NewHTTPClient(apiKey, model)
			configureClient(client, cfg, httpConfig)
			providers["anthropic"] = anthropic.NewProvider(model, client)
		}
	}

	if cfg, ok := providersConfig["openai"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "gpt-5.2"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			log.Println("OpenAI: no API key provided (set OPENAI_API_KEY or providers.openai.apiKey), skipping provider")
		} else {
			client := openai.NewHTTPClient(apiKey, model)
			configureClient(client, cfg, httpConfig)
			providers["openai"] = openai.NewProvider(model, client)
		}
	}

	if cfg, ok := providersConfig["static"]; ok && cfg.Enabled {
		model := cfg.Model
		if model == "" {
			model = "static-v1"
		}
		if cfg.FindingsFile != "" {
			provider, err := llmstatic.NewProviderFromFile(model, cfg.FindingsFile)
			if err != nil {
				log.Printf("warning: failed to load static findings from %s: %v", cfg.FindingsFile, err)
			} else {
				providers["static"] = provider
			}
		} else {
			providers["static"] = llmstatic.NewProvider(model, nil)
		}
	}

	return providers
}

// retryable is the configuration surface both HTTP clients share.
type retryable interface {
	SetTimeout(timeout time.Duration)
	SetRetryConfig(config llmhttp.RetryConfig)
}

func configureClient(client retryable, providerCfg config.ProviderConfig, httpConfig config.HTTPConfig) {
	if timeout := resolveDuration(providerCfg.Timeout, httpConfig.Timeout); timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.SetRetryConfig(retryConfigFrom(providerCfg, httpConfig))
}

func retryConfigFrom(providerCfg config.ProviderConfig, httpConfig config.HTTPConfig) llmhttp.RetryConfig {
	retry := llmhttp.DefaultRetryConfig()

	if providerCfg.MaxRetries != nil {
		retry.MaxRetries = *providerCfg.MaxRetries
	} else if httpConfig.MaxRetries > 0 {
		retry.MaxRetries = httpConfig.MaxRetries
	}
	if backoff := resolveDuration(providerCfg.InitialBackoff, httpConfig.InitialBackoff); backoff > 0 {
		retry.InitialBackoff = backoff
	}
	if backoff := resolveDuration(providerCfg.MaxBackoff, httpConfig.MaxBackoff); backoff > 0 {
		retry.MaxBackoff = backoff
	}
	if httpConfig.BackoffMultiplier > 0 {
		retry.Multiplier = httpConfig.BackoffMultiplier
	}

	return retry
}

// resolveDuration parses the provider override when set, falling back to
// the global value. Unparseable values are ignored.
func resolveDuration(override *string, global string) time.Duration {
	if override != nil && *override != "" {
		if parsed, err := time.ParseDuration(*override); err == nil {
			return parsed
		}
	}
	if global != "" {
		if parsed, err := time.ParseDuration(global); err == nil {
			return parsed
		}
	}
	return 0
}

// provenanceAuditor stamps local-mode requests with the work tree's git
// state when the caller does not supply provenance explicitly.
type provenanceAuditor struct {
	next *audit.Orchestrator
	dir  string
}

func (a *provenanceAuditor) Run(ctx context.Context, req audit.Request) (audit.Result, error) {
	if req.Provenance == "" {
		if described, err := repository.DescribeWorkTree(a.dir); err == nil {
			req.Provenance = described
		}
	}
	return a.next.Run(ctx, req)
}

// historyAdapter exposes stored runs to the CLI.
type historyAdapter struct {
	store *sqlite.Store
}

func (h *historyAdapter) ListRuns(ctx context.Context, packageID string, limit int) ([]cli.RunSummary, error) {
	records, err := h.store.ListRuns(ctx, packageID, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]cli.RunSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, cli.RunSummary{
			RunID:           rec.RunID,
			PackageID:       rec.PackageID,
			Timestamp:       rec.Timestamp,
			RiskScore:       rec.RiskScore,
			ConfidenceLevel: rec.ConfidenceLevel,
			Finished:        rec.Finished,
		})
	}
	return summaries, nil
}

// Compile-time interface compliance checks
var _ audit.PackageSource = (*sui.Client)(nil)
var _ audit.PackageSource = (*repository.LocalPackageSource)(nil)
var _ audit.Provider = (*anthropic.Provider)(nil)
var _ audit.Provider = (*openai.Provider)(nil)
var _ audit.Provider = (*llmstatic.Provider)(nil)
var _ audit.ReportWriter = (*markdown.Writer)(nil)
var _ audit.ReportWriter = (*json.Writer)(nil)
var _ audit.ReportWriter = (*sarif.Writer)(nil)
var _ audit.Store = (*sqlite.Store)(nil)
var _ cli.Auditor = (*audit.Orchestrator)(nil)
