// Package stage executes a single generation stage - a prompt template bound
// to a structured-output contract - against the backend with bounded retry.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/interview-insights/internal/llm"
	"github.com/jonathan/interview-insights/internal/prompts"
	"github.com/jonathan/interview-insights/internal/schemas"
)

// promptFile is the embedded prompt file holding all stage templates.
const promptFile = "stages.json"

// Config describes one named stage.
type Config struct {
	// Name identifies the stage in logs and errors (e.g. "extraction").
	Name string
	// SystemKey and UserKey select the prompt templates from stages.json.
	SystemKey string
	UserKey   string
	// SchemaName is the embedded schema the output must conform to.
	SchemaName string
	// Temperature is the sampling temperature for every call in this stage.
	Temperature float32
	// MaxAttempts bounds the retry loop. Must be at least 1.
	MaxAttempts int
	// Timeout bounds each individual attempt, including its repair call.
	// Zero means no per-attempt timeout.
	Timeout time.Duration
	// BackoffInitial seeds the capped exponential backoff between attempts.
	// Zero disables waiting, which keeps tests fast.
	BackoffInitial time.Duration
}

// Runner executes one stage against the generation backend.
type Runner struct {
	client llm.Client
	cfg    Config
	system string
	user   string
	schema string
	log    *logrus.Entry
}

// NewRunner builds a Runner, resolving its prompt templates and schema from
// the embedded assets. The schema text is injected into the system prompt so
// the model sees the contract its output is validated against.
func NewRunner(client llm.Client, cfg Config, log *logrus.Entry) (*Runner, error) {
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("stage %s: max attempts must be at least 1", cfg.Name)
	}

	systemTmpl, err := prompts.Get(promptFile, cfg.SystemKey)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", cfg.Name, err)
	}
	userTmpl, err := prompts.Get(promptFile, cfg.UserKey)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", cfg.Name, err)
	}
	schema, err := schemas.Get(cfg.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", cfg.Name, err)
	}

	return &Runner{
		client: client,
		cfg:    cfg,
		system: prompts.Format(systemTmpl, map[string]string{"Schema": schema}),
		user:   userTmpl,
		schema: schema,
		log:    log.WithField("stage", cfg.Name),
	}, nil
}

// Name returns the stage name.
func (r *Runner) Name() string {
	return r.cfg.Name
}

// Run executes the stage for the given input, retrying transient failures up
// to MaxAttempts times. Each attempt generates, then validates the output
// against the stage schema; a non-conforming document gets one repair
// re-prompt before the attempt is declared failed. On success the returned
// string is a JSON document conforming to the stage schema. On exhaustion
// the error is a *StageError carrying the stage name and last cause.
func (r *Runner) Run(ctx context.Context, input string) (string, error) {
	user := prompts.Format(r.user, map[string]string{"Input": input})

	var wait backoff.BackOff
	if r.cfg.BackoffInitial > 0 {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = r.cfg.BackoffInitial
		b.MaxInterval = 10 * time.Second
		wait = b
	}

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		log := r.log.WithFields(logrus.Fields{"attempt": attempt, "max_attempts": r.cfg.MaxAttempts})
		log.Info("running stage attempt")

		start := time.Now()
		doc, err := r.attempt(ctx, user)
		if err == nil {
			log.WithField("duration", time.Since(start).String()).Info("stage succeeded")
			return doc, nil
		}
		lastErr = err
		log.WithError(err).Warn("stage attempt failed")

		// A canceled or expired parent context makes further attempts pointless.
		if ctx.Err() != nil {
			break
		}
		if attempt < r.cfg.MaxAttempts && wait != nil {
			select {
			case <-time.After(wait.NextBackOff()):
			case <-ctx.Done():
			}
		}
	}

	r.log.WithError(lastErr).Error("stage exhausted retry budget")
	return "", &StageError{Stage: r.cfg.Name, Attempts: r.cfg.MaxAttempts, Err: lastErr}
}

// attempt performs one generate-validate-repair cycle under the per-attempt
// timeout.
func (r *Runner) attempt(ctx context.Context, user string) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	raw, err := r.client.GenerateJSON(ctx, r.system, user, r.cfg.Temperature)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}

	if err := schemas.ValidateString(r.cfg.SchemaName, raw); err != nil {
		repaired, repairErr := r.repair(ctx, raw, err)
		if repairErr != nil {
			return "", fmt.Errorf("output did not conform to schema and repair failed: %w", repairErr)
		}
		return repaired, nil
	}

	return raw, nil
}

// repair re-prompts the backend to reformat its own malformed output against
// the stage schema. The repaired document must itself pass validation.
func (r *Runner) repair(ctx context.Context, raw string, cause error) (string, error) {
	r.log.WithError(cause).Warn("stage output malformed, attempting repair")

	errText := cause.Error()
	var ve *schemas.ValidationError
	if errors.As(cause, &ve) {
		errText = ve.Error()
	}

	system := prompts.MustGet(promptFile, "repair-system")
	user := prompts.Format(prompts.MustGet(promptFile, "repair-user"), map[string]string{
		"Schema": r.schema,
		"Raw":    raw,
		"Errors": errText,
	})

	// Repair runs cold regardless of the stage temperature; reformatting
	// should not introduce variation.
	repaired, err := r.client.GenerateJSON(ctx, system, user, 0)
	if err != nil {
		return "", fmt.Errorf("repair call failed: %w", err)
	}

	if err := schemas.ValidateString(r.cfg.SchemaName, repaired); err != nil {
		return "", fmt.Errorf("repaired output still invalid: %w", err)
	}

	r.log.Info("repair produced a conforming document")
	return repaired, nil
}
