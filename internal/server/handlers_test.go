package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/stage"
	"github.com/jonathan/interview-insights/internal/transcript"
	"github.com/jonathan/interview-insights/internal/types"
)

// fakeAnalyzer returns a canned report or error and records the transcript it
// was given.
type fakeAnalyzer struct {
	report     *types.FinalReport
	err        error
	transcript map[string]string
	calls      int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, t map[string]string, _ pipeline.Options) (*types.FinalReport, error) {
	f.calls++
	f.transcript = t
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func newTestServer(t *testing.T, analyzer Analyzer, c *cache.Cache) *Server {
	t.Helper()
	s, err := New(Config{
		Port:     0,
		Analyzer: analyzer,
		Cache:    c,
		JWT:      &config.JWTConfig{Secret: "test-secret", ExpirationHours: 1},
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

const analyzeBody = `{
	"transcript": {
		"interviewer_q1": "Tell me about a concurrent system you built.",
		"candidate_a1": "I used channels to fan out work."
	},
	"metadata": {"role": "backend"}
}`

func sampleReport() *types.FinalReport {
	return &types.FinalReport{
		CandidateSummary: types.CandidateSummary{
			Headline:          "Promising junior engineer with strong fundamentals",
			OverallImpression: "Communicates clearly and reasons well about distributed systems design.",
		},
	}
}

func TestHandleAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		analyzer   *fakeAnalyzer
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "Successful analysis",
			body:       analyzeBody,
			analyzer:   &fakeAnalyzer{report: sampleReport()},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "Malformed JSON body",
			body:       `{not json`,
			analyzer:   &fakeAnalyzer{report: sampleReport()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Empty transcript rejected by request validation",
			body:       `{"transcript": {}}`,
			analyzer:   &fakeAnalyzer{report: sampleReport()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Transcript validation error maps to 400",
			body:       analyzeBody,
			analyzer:   &fakeAnalyzer{err: &transcript.ValidationError{Reason: "transcript must include interviewer questions"}},
			wantStatus: http.StatusBadRequest,
			wantCalls:  1,
		},
		{
			name: "Stage exhaustion maps to 500",
			body: analyzeBody,
			analyzer: &fakeAnalyzer{err: &stage.StageError{
				Stage:    "extraction",
				Attempts: 3,
				Err:      errors.New("backend unreachable"),
			}},
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.analyzer, cache.New(true))

			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := doRequest(s, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, tt.analyzer.calls)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusOK {
				var report types.FinalReport
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
				assert.Equal(t, sampleReport().CandidateSummary.Headline, report.CandidateSummary.Headline)
			} else {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestHandleAnalyzePassesTranscriptThrough(t *testing.T) {
	analyzer := &fakeAnalyzer{report: sampleReport()}
	s := newTestServer(t, analyzer, cache.New(true))

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(analyzeBody))
	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"interviewer_q1": "Tell me about a concurrent system you built.",
		"candidate_a1":   "I used channels to fan out work.",
	}, analyzer.transcript)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{report: sampleReport()}, cache.New(true))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestCacheEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{report: sampleReport()}, cache.New(true))

	tests := []struct {
		name   string
		header string
	}{
		{name: "Missing header"},
		{name: "Malformed header", header: "Token abc"},
		{name: "Invalid token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := doRequest(s, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCacheAdminEndpoints(t *testing.T) {
	c := cache.New(true)
	c.Store(cache.Fingerprint("transcript"), sampleReport())
	s := newTestServer(t, &fakeAnalyzer{report: sampleReport()}, c)

	token, err := s.jwtService.GenerateToken("admin")
	require.NoError(t, err)

	statsReq := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	statsReq.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(s, statsReq)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.True(t, stats.Enabled)
	assert.Equal(t, 1, stats.Size)

	clearReq := httptest.NewRequest(http.MethodDelete, "/cache", nil)
	clearReq.Header.Set("Authorization", "Bearer "+token)
	rec = doRequest(s, clearReq)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, c.Stats().Size)
}

func TestNewRequiresDependencies(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: "s", ExpirationHours: 1}

	_, err := New(Config{Cache: cache.New(true), JWT: jwtCfg})
	assert.Error(t, err)

	_, err = New(Config{Analyzer: &fakeAnalyzer{}, JWT: jwtCfg})
	assert.Error(t, err)

	_, err = New(Config{Analyzer: &fakeAnalyzer{}, Cache: cache.New(true)})
	assert.Error(t, err)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&transcript.ValidationError{Reason: "x"}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(&stage.StageError{Stage: "extraction", Attempts: 1, Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
