// cmd/tools/health-report/cmd_analyze.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/genai"
	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/logger"
	analyzesurvey "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/analyze-survey"
)

var analyzeFlags struct {
	input        string
	output       string
	format       string
	configPath   string
	extractorURL string
	parallelism  int
	verbose      bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a feedback batch file",
	Long: `Analyze reads a batch of labeled feedback records and session profiles
(JSON, the same shape the analyze-survey worker accepts inline) and writes
the full analysis.

Usage:
  health-report analyze --input batch.json
  health-report analyze --input batch.json --extractor-url http://localhost:8000
  health-report analyze --input batch.json --format summary

Without an extractor every theme is analysed with fallback insights.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.input, "input", "i", "", "Path to the batch JSON file (- for stdin)")
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "Output path (default: stdout)")
	f.StringVar(&analyzeFlags.format, "format", "json", "Output format: json or summary")
	f.StringVar(&analyzeFlags.configPath, "config", "", "Optional config.yaml with an analysis section")
	f.StringVar(&analyzeFlags.extractorURL, "extractor-url", "", "GenAI service base URL for signal extraction")
	f.IntVar(&analyzeFlags.parallelism, "parallelism", 0, "Themes analysed concurrently (default from config)")
	f.BoolVarP(&analyzeFlags.verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	_ = analyzeCmd.MarkFlagRequired("input")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFlags.format != "json" && analyzeFlags.format != "summary" {
		return fmt.Errorf("unknown format %q (want json or summary)", analyzeFlags.format)
	}

	data, err := readInput(cmd.InOrStdin(), analyzeFlags.input)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(analyzeFlags.configPath)
	if err != nil {
		return err
	}
	if analyzeFlags.extractorURL != "" {
		cfg.Analysis.Extractor = "http"
		cfg.APIs.GenAI.BaseURL = analyzeFlags.extractorURL
	}
	if analyzeFlags.parallelism > 0 {
		cfg.Analysis.Parallelism = analyzeFlags.parallelism
	}

	log := logger.NewNoOpLogger()
	if analyzeFlags.verbose {
		log = logger.NewZapAdapter(logger.New("debug", "console"))
	}

	opts := analyzesurvey.HandlerOptions{Logger: log}
	opts.Config, err = analyzesurvey.ConfigFromAnalysis(cfg.Analysis, 0)
	if err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}
	if extractorConfigured(cfg) {
		extractor, err := genai.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}
		opts.Extractor = extractor
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no extractor configured, using fallback insights")
	}

	handler, err := analyzesurvey.NewHandler(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Config.Timeout)
	defer cancel()

	out, err := handler.Execute(ctx, &analyzesurvey.Input{Batch: data})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if analyzeFlags.output != "" {
		f, err := os.Create(analyzeFlags.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if analyzeFlags.format == "summary" {
		return writeSummary(w, out)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{Analysis: config.DefaultAnalysis()}, nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func extractorConfigured(cfg *config.Config) bool {
	switch cfg.Analysis.Extractor {
	case "llm":
		return cfg.APIs.LLM.Provider != ""
	default:
		return cfg.APIs.GenAI.BaseURL != ""
	}
}

func writeSummary(w io.Writer, out *analyzesurvey.Output) error {
	a := out.Analysis
	fmt.Fprintf(w, "Survey %s  confidence %s (%.1f)\n\n", a.SurveyID, a.Confidence.Tier, a.Confidence.AverageConfidenceScore)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "THEME\tHEALTH\tSTATUS\tRESPONSES\tINSIGHTS\tDEGRADED")
	for _, t := range a.Themes {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%v\n",
			t.Stats.ThemeID, t.Stats.HealthIndex, t.Stats.HealthStatus, t.Stats.ResponseCount, len(t.Insights), t.Degraded)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(a.Interventions) > 0 {
		fmt.Fprintln(w, "\nInterventions:")
		for _, iv := range a.Interventions {
			marker := ""
			if iv.QuickWin {
				marker = " (quick win)"
			}
			fmt.Fprintf(w, "  [%s] %s: %s, impact %.1f%s\n", iv.Priority, iv.ThemeID, iv.Title, iv.EstimatedImpact, marker)
		}
	}
	if a.RejectedRecords > 0 {
		fmt.Fprintf(w, "\n%d malformed records dropped\n", a.RejectedRecords)
	}
	return nil
}
