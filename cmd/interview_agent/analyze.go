package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/llm"
	"github.com/jonathan/interview-insights/internal/logger"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/transcript"
)

var (
	analyzeInput     string
	analyzeNoCache   bool
	analyzeSkipInput bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a transcript file and print the report",
	Long: `Run the analysis pipeline once for a transcript stored in a JSON file.
The file may contain either a flat field-to-utterance mapping or a request
object with the transcript nested under a "transcript" key.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "Path to the transcript JSON file (required)")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "Disable the result cache for this run")
	analyzeCmd.Flags().BoolVar(&analyzeSkipInput, "skip-validation", false, "Skip transcript structural validation")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse input JSON: %w", err)
	}

	log := logger.New()

	client, err := llm.NewGeminiClient(cmd.Context(), cfg.APIKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	pipe, err := newPipeline(cfg, client, cache.New(cfg.CacheEnabled && !analyzeNoCache), log)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultOptions()
	opts.ValidateInput = !analyzeSkipInput
	opts.UseCache = !analyzeNoCache
	report, err := pipe.Analyze(cmd.Context(), transcript.Entries(raw), opts)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
