// Package pipeline provides the high-level orchestration for interview
// analysis: validate, normalize, cache lookup, two generation stages,
// quality check, cache store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/llm"
	"github.com/jonathan/interview-insights/internal/quality"
	"github.com/jonathan/interview-insights/internal/schemas"
	"github.com/jonathan/interview-insights/internal/stage"
	"github.com/jonathan/interview-insights/internal/transcript"
	"github.com/jonathan/interview-insights/internal/types"
)

// State names a phase of a single pipeline run.
type State string

// Run states. Failed is terminal and reachable from either generation state.
const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Stage names used in logs and stage errors.
const (
	StageExtraction = "extraction"
	StageSynthesis  = "synthesis"
)

// Options are the per-invocation switches of the facade.
type Options struct {
	// ValidateInput runs structural transcript validation before anything
	// else; a failure is the only user-facing hard failure path for input
	// shape problems.
	ValidateInput bool
	// ValidateOutput runs the advisory quality check on the final report.
	ValidateOutput bool
	// UseCache enables cache lookup and store for this invocation.
	UseCache bool
}

// DefaultOptions returns the facade defaults: everything on.
func DefaultOptions() Options {
	return Options{ValidateInput: true, ValidateOutput: true, UseCache: true}
}

// Config holds the pipeline construction parameters. Everything is supplied
// once here, not re-read per call.
type Config struct {
	Client                llm.Client
	Cache                 *cache.Cache
	MaxAttempts           int
	StageTimeout          time.Duration
	RetryBackoff          time.Duration
	ExtractionTemperature float32
	SynthesisTemperature  float32
	Logger                *logrus.Entry
}

// Pipeline is the single entry point for turning a transcript into a final
// report. It is safe for concurrent use; the cache is the only shared
// mutable state between invocations.
type Pipeline struct {
	cache      *cache.Cache
	extraction *stage.Runner
	synthesis  *stage.Runner
	flight     singleflight.Group
	log        *logrus.Entry
}

// New builds a Pipeline from its configuration, constructing both stage
// runners from the embedded prompt templates and schemas.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("pipeline: client is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("pipeline: cache is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	extraction, err := stage.NewRunner(cfg.Client, stage.Config{
		Name:           StageExtraction,
		SystemKey:      "extraction-system",
		UserKey:        "extraction-user",
		SchemaName:     schemas.AnalysisReport,
		Temperature:    cfg.ExtractionTemperature,
		MaxAttempts:    cfg.MaxAttempts,
		Timeout:        cfg.StageTimeout,
		BackoffInitial: cfg.RetryBackoff,
	}, log)
	if err != nil {
		return nil, err
	}

	synthesis, err := stage.NewRunner(cfg.Client, stage.Config{
		Name:           StageSynthesis,
		SystemKey:      "synthesis-system",
		UserKey:        "synthesis-user",
		SchemaName:     schemas.FinalReport,
		Temperature:    cfg.SynthesisTemperature,
		MaxAttempts:    cfg.MaxAttempts,
		Timeout:        cfg.StageTimeout,
		BackoffInitial: cfg.RetryBackoff,
	}, log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cache:      cfg.Cache,
		extraction: extraction,
		synthesis:  synthesis,
		log:        log,
	}, nil
}

// Cache exposes the injected result cache, e.g. for admin endpoints.
func (p *Pipeline) Cache() *cache.Cache {
	return p.cache
}

// Analyze runs the full pipeline for one transcript. On a cache hit no
// generation stage is invoked. A *transcript.ValidationError means the input
// was rejected; a *stage.StageError means a generation stage exhausted its
// retries. No partial report is ever returned.
func (p *Pipeline) Analyze(ctx context.Context, t map[string]string, opts Options) (*types.FinalReport, error) {
	if opts.ValidateInput {
		if err := transcript.Validate(t); err != nil {
			p.log.WithError(err).Warn("transcript validation failed")
			return nil, err
		}
	}

	normalized := transcript.Normalize(t)
	fingerprint := cache.Fingerprint(normalized)
	log := p.log.WithField("fingerprint", fingerprint)

	caching := opts.UseCache && p.cache.Enabled()
	if caching {
		if report, ok := p.cache.Lookup(fingerprint); ok {
			log.Info("cache hit, returning cached report")
			return report, nil
		}
		log.Info("cache miss, running generation")

		// Concurrent misses on the same fingerprint share one generation run.
		report, err, _ := p.flight.Do(fingerprint, func() (any, error) {
			if cached, ok := p.cache.Lookup(fingerprint); ok {
				return cached, nil
			}
			report, err := p.generate(ctx, normalized, opts)
			if err != nil {
				return nil, err
			}
			p.cache.Store(fingerprint, report)
			log.Info("report cached")
			return report, nil
		})
		if err != nil {
			return nil, err
		}
		return report.(*types.FinalReport), nil
	}

	return p.generate(ctx, normalized, opts)
}

// AnalyzeRaw accepts the loosely shaped request payload (flat transcript
// mapping or one nested under a "transcript" key) and runs Analyze.
func (p *Pipeline) AnalyzeRaw(ctx context.Context, raw map[string]any, opts Options) (*types.FinalReport, error) {
	return p.Analyze(ctx, transcript.Entries(raw), opts)
}

// generate drives the two-stage state machine and the quality check.
func (p *Pipeline) generate(ctx context.Context, normalized string, opts Options) (*types.FinalReport, error) {
	run := newRun(p.log)

	run.transition(StateExtracting)
	analysisDoc, err := p.extraction.Run(ctx, normalized)
	if err != nil {
		run.fail(err)
		return nil, err
	}
	var analysis types.AnalysisReport
	if err := json.Unmarshal([]byte(analysisDoc), &analysis); err != nil {
		err = &stage.StageError{Stage: StageExtraction, Attempts: 1, Err: fmt.Errorf("decoding analysis report: %w", err)}
		run.fail(err)
		return nil, err
	}
	run.log.WithField("snippets", len(analysis.Snippets)).Info("extraction complete")

	run.transition(StateSynthesizing)
	serialized, err := json.MarshalIndent(&analysis, "", "  ")
	if err != nil {
		err = &stage.StageError{Stage: StageSynthesis, Attempts: 1, Err: fmt.Errorf("serializing analysis report: %w", err)}
		run.fail(err)
		return nil, err
	}
	reportDoc, err := p.synthesis.Run(ctx, string(serialized))
	if err != nil {
		run.fail(err)
		return nil, err
	}
	var report types.FinalReport
	if err := json.Unmarshal([]byte(reportDoc), &report); err != nil {
		err = &stage.StageError{Stage: StageSynthesis, Attempts: 1, Err: fmt.Errorf("decoding final report: %w", err)}
		run.fail(err)
		return nil, err
	}

	run.transition(StateDone)

	if opts.ValidateOutput {
		result := quality.Check(&report)
		if !result.Passed {
			for _, issue := range result.Issues {
				run.log.WithField("issue", issue).Warn("report quality issue")
			}
		} else {
			run.log.Info("report quality validated")
		}
	}

	return &report, nil
}

// run tracks the state of a single pipeline invocation and logs every
// transition.
type run struct {
	state State
	log   *logrus.Entry
}

func newRun(log *logrus.Entry) *run {
	return &run{state: StateIdle, log: log}
}

func (r *run) transition(next State) {
	r.log.WithFields(logrus.Fields{"from": r.state, "to": next}).Debug("pipeline state transition")
	r.state = next
}

func (r *run) fail(err error) {
	r.log.WithError(err).WithFields(logrus.Fields{"from": r.state, "to": StateFailed}).Error("pipeline failed")
	r.state = StateFailed
}
