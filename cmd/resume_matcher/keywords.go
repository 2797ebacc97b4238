package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/observability"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Extract the critical keywords of a job description",
	RunE:  runKeywords,
}

var (
	keywordsJob    string
	keywordsJobURL string
	keywordsJSON   bool
)

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsJob, "job", "j", "", "Path to job description text file (mutually exclusive with --job-url)")
	keywordsCmd.Flags().StringVar(&keywordsJobURL, "job-url", "", "URL to fetch the job posting from (mutually exclusive with --job)")
	keywordsCmd.Flags().BoolVar(&keywordsJSON, "json", false, "Print keywords as JSON")

	keywordsCmd.MarkFlagsMutuallyExclusive("job", "job-url")
	keywordsCmd.MarkFlagsOneRequired("job", "job-url")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	jobText, err := loadJob(cmd, cfg, keywordsJob, keywordsJobURL)
	if err != nil {
		return err
	}

	c, err := buildAnalyzer(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close() //nolint:errcheck

	set, source := c.analyzer.Keywords(cmd.Context(), jobText)
	if keywordsJSON {
		return writeJSON(cmd, "", map[string]any{"keywords": set, "source": source})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintKeywords(set, string(source))
	return nil
}

// loadJob reads the job description from --job or fetches it from --job-url.
func loadJob(cmd *cobra.Command, cfg *config.Config, path, url string) (string, error) {
	if url != "" {
		text, meta, err := ingestion.FromURL(cmd.Context(), url, postingOptions(cfg, newLogger(cfg, cmd.ErrOrStderr())))
		if err != nil {
			return "", err
		}
		if meta.Rendered {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Fetched %s (%s, rendered in browser)\n", url, meta.Platform)
		}
		return text, nil
	}

	text, _, err := ingestion.LoadText(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return text, nil
}
