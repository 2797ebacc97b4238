package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/analysis"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Long: `Analyze reads a resume (PDF, DOCX or text) and a job description (text file or URL), then prints
the similarity score, matched and missing keywords and improvement suggestions as JSON.`,
	RunE: runAnalyze,
}

var (
	analyzeResume  string
	analyzeJob     string
	analyzeJobURL  string
	analyzeOut     string
	analyzeVerbose bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to resume file (.pdf, .docx, .txt, .md)")
	analyzeCmd.Flags().StringVarP(&analyzeJob, "job", "j", "", "Path to job description text file (mutually exclusive with --job-url)")
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL to fetch the job posting from (mutually exclusive with --job)")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the JSON result to this file instead of stdout")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print keywords and the score breakdown to stderr")

	_ = analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	analyzeCmd.MarkFlagsOneRequired("job", "job-url")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := newLogger(cfg, cmd.ErrOrStderr())

	resumeText, _, err := ingestion.LoadText(analyzeResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	jobText, err := loadJob(cmd, cfg, analyzeJob, analyzeJobURL)
	if err != nil {
		return err
	}

	c, err := buildAnalyzer(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close() //nolint:errcheck

	var onProgress analysis.ProgressCallback
	if analyzeVerbose {
		onProgress = func(event analysis.ProgressEvent) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
		}
	}

	report, err := c.analyzer.Run(ctx, types.AnalysisRequest{ResumeText: resumeText, JobDescription: jobText}, onProgress)
	if err != nil {
		var ae *analysis.Error
		if errors.As(err, &ae) {
			return fmt.Errorf("analysis failed (%s): %s", ae.Kind, ae.Message)
		}
		return err
	}

	if analyzeVerbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintKeywords(report.Keywords, string(report.KeywordSource))
		printer.PrintBreakdown(report.Breakdown)
		printer.PrintResult(report.Result)
	}

	return writeJSON(cmd, analyzeOut, report.Result)
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty.
func writeJSON(cmd *cobra.Command, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Result written to %s\n", path)
	return nil
}
