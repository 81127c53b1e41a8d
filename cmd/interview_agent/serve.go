package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/llm"
	"github.com/jonathan/interview-insights/internal/logger"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the interview analysis pipeline.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	log := logger.New()

	client, err := llm.NewGeminiClient(cmd.Context(), cfg.APIKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resultCache := cache.New(cfg.CacheEnabled)

	pipe, err := newPipeline(cfg, client, resultCache, log)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:     cfg.Port,
		Analyzer: pipe,
		Cache:    resultCache,
		JWT:      jwtCfg,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// newPipeline wires the analysis pipeline from loaded configuration.
func newPipeline(cfg *config.Config, client llm.Client, resultCache *cache.Cache, log *logrus.Entry) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(pipeline.Config{
		Client:                client,
		Cache:                 resultCache,
		MaxAttempts:           cfg.MaxAttempts,
		StageTimeout:          cfg.StageTimeout,
		RetryBackoff:          cfg.RetryBackoff,
		ExtractionTemperature: cfg.ExtractionTemperature,
		SynthesisTemperature:  cfg.SynthesisTemperature,
		Logger:                log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return pipe, nil
}
