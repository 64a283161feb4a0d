package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/movesec/auditor/internal/usecase/audit"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Auditor defines the dependency required to run the audit command.
type Auditor interface {
	Run(ctx context.Context, req audit.Request) (audit.Result, error)
}

// RunSummary is one row of stored audit history.
type RunSummary struct {
	RunID           string
	PackageID       string
	Timestamp       time.Time
	RiskScore       float64
	ConfidenceLevel string
	Finished        bool
}

// HistoryLister lists previously persisted audit runs.
type HistoryLister interface {
	ListRuns(ctx context.Context, packageID string, limit int) ([]RunSummary, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Auditor       Auditor
	History       HistoryLister
	Args          Arguments
	DefaultOutput string
	DefaultSkip   bool
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "auditor",
		Short: "Deterministic security analysis for Sui Move packages",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(auditCommand(deps.Auditor, deps.DefaultOutput, deps.DefaultSkip))
	root.AddCommand(historyCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func auditCommand(auditor Auditor, defaultOutput string, defaultSkip bool) *cobra.Command {
	var outputDir string
	var skipLLM bool
	var provenance string
	var providers []string

	cmd := &cobra.Command{
		Use:   "audit <package-id>",
		Short: "Audit an on-chain package and write an assessment report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if auditor == nil {
				return fmt.Errorf("auditor not configured")
			}

			result, err := auditor.Run(cmd.Context(), audit.Request{
				PackageID:  args[0],
				OutputDir:  outputDir,
				SkipLLM:    resolveSkip(cmd, skipLLM, defaultSkip),
				Providers:  providers,
				Provenance: provenance,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	if defaultOutput == "" {
		defaultOutput = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", defaultOutput, "Directory to write assessment artifacts")
	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip model review and report static analysis only")
	cmd.Flags().StringSliceVar(&providers, "providers", nil, "Restrict model review to the named providers (default: all configured)")
	cmd.Flags().StringVar(&provenance, "provenance", "", "Source metadata to record on the report (e.g. a commit hash)")

	return cmd
}

// resolveSkip prefers the flag when explicitly set, otherwise the config default.
func resolveSkip(cmd *cobra.Command, flagValue, configDefault bool) bool {
	if cmd.Flags().Changed("skip-llm") {
		return flagValue
	}
	return configDefault
}

func printResult(w io.Writer, result audit.Result) {
	report := result.Report
	interval := report.Confidence.ConfidenceInterval

	_, _ = fmt.Fprintf(w, "Package: %s\n", report.PackageID)
	_, _ = fmt.Fprintf(w, "Risk score: %.1f/100\n", report.RiskScore)
	_, _ = fmt.Fprintf(w, "Confidence: %s [%d, %d]\n",
		report.Confidence.ConfidenceLevel, interval.Lower, interval.Upper)
	_, _ = fmt.Fprintf(w, "Findings: %d static, %d cross-module, %d validated\n",
		len(report.Static.Findings),
		len(report.CrossModule.Risks),
		len(report.Validation.ValidatedFindings))
	_, _ = fmt.Fprintf(w, "Markdown: %s\n", result.MarkdownPath)
	_, _ = fmt.Fprintf(w, "JSON: %s\n", result.JSONPath)
	if result.SARIFPath != "" {
		_, _ = fmt.Fprintf(w, "SARIF: %s\n", result.SARIFPath)
	}
}

func historyCommand(history HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [package-id]",
		Short: "List stored assessment runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return fmt.Errorf("persistence is disabled; enable store in configuration to record history")
			}

			packageID := ""
			if len(args) > 0 {
				packageID = args[0]
			}

			runs, err := history.ListRuns(cmd.Context(), packageID, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no stored runs")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TIMESTAMP\tPACKAGE\tRISK\tCONFIDENCE\tSTATUS")
			for _, run := range runs {
				status := "incomplete"
				if run.Finished {
					status = "finished"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\n",
					run.Timestamp.UTC().Format(time.RFC3339),
					run.PackageID, run.RiskScore, run.ConfidenceLevel, status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

// IsOutputTerminal reports whether stdout is attached to a terminal. Hosts
// use this to decide between human-readable and machine-parsable output.
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
