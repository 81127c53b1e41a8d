package stage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-insights/internal/schemas"
)

const validAnalysisDoc = `{
	"snippets": [
		{
			"topic": "Go concurrency",
			"quote": "I used channels to fan out work.",
			"assessment": "Clear explanation of worker pools.",
			"sentiment": "positive"
		}
	]
}`

// response scripts one backend call for the fake client.
type response struct {
	doc string
	err error
}

// fakeClient replays a scripted sequence of responses and records calls.
type fakeClient struct {
	mu        sync.Mutex
	responses []response
	calls     int
	systems   []string
	users     []string
}

func (f *fakeClient) GenerateJSON(_ context.Context, system, user string, _ float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.responses) {
		return "", fmt.Errorf("unexpected call %d", f.calls+1)
	}
	r := f.responses[f.calls]
	f.calls++
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	return r.doc, r.err
}

func (f *fakeClient) Close() error { return nil }

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func extractionConfig(maxAttempts int) Config {
	return Config{
		Name:        "extraction",
		SystemKey:   "extraction-system",
		UserKey:     "extraction-user",
		SchemaName:  schemas.AnalysisReport,
		Temperature: 0,
		MaxAttempts: maxAttempts,
	}
}

func TestNewRunnerRejectsZeroAttempts(t *testing.T) {
	_, err := NewRunner(&fakeClient{}, extractionConfig(0), testLogger())
	assert.Error(t, err)
}

func TestNewRunnerInjectsSchemaIntoSystemPrompt(t *testing.T) {
	client := &fakeClient{responses: []response{{doc: validAnalysisDoc}}}
	runner, err := NewRunner(client, extractionConfig(1), testLogger())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "Interviewer: Q?\n\nCandidate: A.")
	require.NoError(t, err)
	require.Len(t, client.systems, 1)
	assert.Contains(t, client.systems[0], `"snippets"`)
	assert.NotContains(t, client.systems[0], "{{.Schema}}")
	assert.Contains(t, client.users[0], "Interviewer: Q?")
}

func TestRunSucceedsAfterTransientFailures(t *testing.T) {
	client := &fakeClient{responses: []response{
		{err: errors.New("backend unreachable")},
		{err: errors.New("backend unreachable")},
		{doc: validAnalysisDoc},
	}}
	runner, err := NewRunner(client, extractionConfig(3), testLogger())
	require.NoError(t, err)

	doc, err := runner.Run(context.Background(), "transcript")
	require.NoError(t, err)
	assert.JSONEq(t, validAnalysisDoc, doc)
	assert.Equal(t, 3, client.calls)
}

func TestRunExhaustsRetryBudget(t *testing.T) {
	client := &fakeClient{responses: []response{
		{err: errors.New("backend unreachable")},
		{err: errors.New("backend unreachable")},
		{err: errors.New("backend unreachable")},
	}}
	runner, err := NewRunner(client, extractionConfig(3), testLogger())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "transcript")
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "extraction", se.Stage)
	assert.Equal(t, 3, se.Attempts)
	assert.Contains(t, err.Error(), "extraction")
	assert.Contains(t, err.Error(), "backend unreachable")
}

func TestRunRepairsMalformedOutput(t *testing.T) {
	client := &fakeClient{responses: []response{
		{doc: `{"snippets": []}`}, // violates minItems
		{doc: validAnalysisDoc},   // repair response
	}}
	runner, err := NewRunner(client, extractionConfig(1), testLogger())
	require.NoError(t, err)

	doc, err := runner.Run(context.Background(), "transcript")
	require.NoError(t, err)
	assert.JSONEq(t, validAnalysisDoc, doc)

	// Generate plus one repair call, all within a single attempt.
	require.Equal(t, 2, client.calls)
	assert.Contains(t, client.users[1], `"snippets": []`)
}

func TestRunFailsWhenRepairStillInvalid(t *testing.T) {
	client := &fakeClient{responses: []response{
		{doc: `{"snippets": []}`},
		{doc: `{"snippets": []}`},
	}}
	runner, err := NewRunner(client, extractionConfig(1), testLogger())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "transcript")
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "repair")
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{responses: []response{
		{err: errors.New("canceled")},
		{err: errors.New("canceled")},
		{err: errors.New("canceled")},
	}}
	runner, err := NewRunner(client, extractionConfig(3), testLogger())
	require.NoError(t, err)

	_, err = runner.Run(ctx, "transcript")
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}
