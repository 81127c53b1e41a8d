package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// minExchanges is the minimum number of transcript entries required for a
// meaningful analysis.
const minExchanges = 2

// Validate enforces structural preconditions on a transcript, checking in
// order and short-circuiting on the first failure:
//
//  1. the transcript has at least one entry
//  2. it has at least two entries
//  3. at least one key matches "interviewer" and one matches "candidate"
//  4. every entry has non-whitespace text
//
// A failure is returned as a *ValidationError with a human-readable reason.
func Validate(t map[string]string) error {
	if len(t) == 0 {
		return &ValidationError{Reason: "transcript cannot be empty"}
	}
	if len(t) < minExchanges {
		return &ValidationError{Reason: fmt.Sprintf("transcript must have at least %d exchanges", minExchanges)}
	}

	hasInterviewer := false
	hasCandidate := false
	for k := range t {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "interviewer") {
			hasInterviewer = true
		}
		if strings.Contains(lower, "candidate") {
			hasCandidate = true
		}
	}
	if !hasInterviewer {
		return &ValidationError{Reason: "transcript must include interviewer questions"}
	}
	if !hasCandidate {
		return &ValidationError{Reason: "transcript must include candidate responses"}
	}

	// Sorted so the offending key named on failure is deterministic.
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(t[k]) == "" {
			return &ValidationError{Reason: fmt.Sprintf("entry %q is empty", k)}
		}
	}

	return nil
}
