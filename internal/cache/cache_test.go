package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-insights/internal/types"
)

func sampleReport(headline string) *types.FinalReport {
	return &types.FinalReport{
		CandidateSummary: types.CandidateSummary{Headline: headline},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Interviewer: Q?\n\nCandidate: A.")
	b := Fingerprint("Interviewer: Q?\n\nCandidate: A.")
	c := Fingerprint("Interviewer: Q?\n\nCandidate: B.")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32) // 128-bit digest, hex encoded
}

func TestLookupStoreClear(t *testing.T) {
	c := New(true)
	key := Fingerprint("transcript")

	_, ok := c.Lookup(key)
	assert.False(t, ok)

	report := sampleReport("first")
	c.Store(key, report)

	got, ok := c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, report, got)

	// Last write wins.
	second := sampleReport("second")
	c.Store(key, second)
	got, ok = c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, "second", got.CandidateSummary.Headline)

	c.Clear()
	_, ok = c.Lookup(key)
	assert.False(t, ok)
}

func TestDisabledCache(t *testing.T) {
	c := New(false)
	key := Fingerprint("transcript")

	c.Store(key, sampleReport("ignored"))
	_, ok := c.Lookup(key)
	assert.False(t, ok)

	stats := c.Stats()
	assert.False(t, stats.Enabled)
	assert.Zero(t, stats.Size)
	assert.Empty(t, stats.Keys)
}

func TestStats(t *testing.T) {
	c := New(true)
	c.Store("bbb", sampleReport("b"))
	c.Store("aaa", sampleReport("a"))

	stats := c.Stats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, []string{"aaa", "bbb"}, stats.Keys)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(true)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := Fingerprint(string(rune('a' + n%8)))
			c.Store(key, sampleReport("r"))
			c.Lookup(key)
			c.Stats()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, c.Stats().Size)
}
