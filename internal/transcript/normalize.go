// Package transcript provides normalization and structural validation of
// interview transcripts ahead of any generation call.
package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// Role identifies the speaker of a transcript entry.
type Role string

// Speaker roles derived from transcript key names.
const (
	RoleInterviewer Role = "Interviewer"
	RoleCandidate   Role = "Candidate"
)

// Entry is a single labeled utterance with its source key preserved for
// ordering and diagnostics.
type Entry struct {
	Key  string
	Role Role
	Text string
}

// Entries extracts the utterance mapping from a loosely shaped payload.
// It accepts either a flat field→utterance mapping or one nested under a
// "transcript" key (the request shape with a metadata sibling). Non-string
// values are ignored.
func Entries(raw map[string]any) map[string]string {
	if nested, ok := raw["transcript"]; ok {
		switch m := nested.(type) {
		case map[string]any:
			raw = m
		case map[string]string:
			out := make(map[string]string, len(m))
			for k, v := range m {
				out[k] = v
			}
			return out
		}
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// roleRank orders entries interviewer-first, then candidate, then anything
// else. Within a rank, keys sort lexically, so conventional key naming
// (interviewer, interviewer_1, interviewer_2) yields turn order.
func roleRank(key string) int {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "interviewer"):
		return 0
	case strings.Contains(lower, "candidate"):
		return 1
	default:
		return 2
	}
}

// roleFor labels a key for rendering. Keys without a recognized role are
// attributed to the candidate, matching the original transcript convention.
func roleFor(key string) Role {
	if strings.Contains(strings.ToLower(key), "interviewer") {
		return RoleInterviewer
	}
	return RoleCandidate
}

// SortedEntries classifies and orders the transcript entries canonically.
func SortedEntries(t map[string]string) []Entry {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := roleRank(keys[i]), roleRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Role: roleFor(k), Text: t[k]})
	}
	return entries
}

// Normalize renders the transcript as deterministic ordered text: one
// "Role: text" line per entry, joined by blank lines. It is a total
// function of the transcript content and key names: identical transcripts
// always render identically, which keeps cache fingerprints stable.
// An empty transcript renders as an empty string.
func Normalize(t map[string]string) string {
	entries := SortedEntries(t)
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Role, e.Text))
	}
	return strings.Join(lines, "\n\n")
}
