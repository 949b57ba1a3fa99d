// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// resolve.go - Fuzzy command name resolution for typo correction.
package commands

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// =============================================================================
// MATCH RESULT
// =============================================================================

// MatchKind tags the variant held by a MatchResult.
type MatchKind int

const (
	MatchNone     MatchKind = iota // No candidate scored above zero
	MatchSingle                    // Exactly one command is the answer
	MatchMultiple                  // Several candidates are equally plausible
)

func (k MatchKind) String() string {
	switch k {
	case MatchSingle:
		return "single"
	case MatchMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// MatchResult is the outcome of resolving a command name.
// For MatchMultiple, Names is sorted lexicographically.
type MatchResult struct {
	Kind  MatchKind
	Names []string
}

// Name returns the resolved command for a MatchSingle result.
func (m MatchResult) Name() string {
	if m.Kind != MatchSingle || len(m.Names) == 0 {
		return ""
	}
	return m.Names[0]
}

// MatchCandidate pairs a command name with its similarity score in [0, 1].
type MatchCandidate struct {
	Name  string
	Score float64
}

// =============================================================================
// RESOLVER
// =============================================================================

const (
	// DefaultThresholdRatio keeps candidates scoring at least this share of
	// the best score.
	DefaultThresholdRatio = 0.8

	// maxEditDistance is the largest Levenshtein distance still scored.
	maxEditDistance = 3
)

// Resolver ranks known command names against partial input.
// The zero value is not usable; use NewResolver or DefaultResolver.
type Resolver struct {
	// ThresholdRatio is the relative cut-off against the best score.
	ThresholdRatio float64

	// MinScore is an absolute floor; candidates below it are dropped.
	// Zero disables the floor.
	MinScore float64
}

// DefaultResolver uses the 0.8 relative threshold and no absolute floor.
var DefaultResolver = Resolver{ThresholdRatio: DefaultThresholdRatio}

// NewResolver creates a resolver, falling back to the default ratio when
// ratio is outside (0, 1].
func NewResolver(ratio, minScore float64) Resolver {
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultThresholdRatio
	}
	if minScore < 0 {
		minScore = 0
	}
	return Resolver{ThresholdRatio: ratio, MinScore: minScore}
}

// Resolve resolves input against known using the DefaultResolver.
func Resolve(input string, known []string) MatchResult {
	return DefaultResolver.Resolve(input, known)
}

// Resolve returns the command(s) the input most plausibly refers to.
// An exact, case-sensitive match always wins outright.
func (r Resolver) Resolve(input string, known []string) MatchResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return MatchResult{Kind: MatchNone}
	}

	for _, name := range known {
		if name == input {
			return MatchResult{Kind: MatchSingle, Names: []string{name}}
		}
	}

	candidates := r.Rank(input, known)
	if len(candidates) == 0 {
		return MatchResult{Kind: MatchNone}
	}

	best := candidates[0].Score
	cutoff := best * r.ThresholdRatio

	var names []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.Score < cutoff || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		names = append(names, c.Name)
	}
	sort.Strings(names)

	if len(names) == 1 {
		return MatchResult{Kind: MatchSingle, Names: names}
	}
	return MatchResult{Kind: MatchMultiple, Names: names}
}

// Rank scores every known command and returns those above zero (and above
// MinScore), best first. Ties are ordered by name.
func (r Resolver) Rank(input string, known []string) []MatchCandidate {
	var candidates []MatchCandidate
	for _, name := range known {
		s := Score(input, name)
		if s <= 0 || s < r.MinScore {
			continue
		}
		candidates = append(candidates, MatchCandidate{Name: name, Score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates
}

// =============================================================================
// SCORING
// =============================================================================

// Score rates how well input names command, case-insensitively.
// The first matching rule wins:
//
//	1.00  exact
//	0.95  command ends with "." + input
//	0.90  input is an interior dotted segment run
//	0.85  input segments are a trailing subsequence of command segments
//	0.80  prefix
//	0.70  substring
//	0.60  per-segment abbreviation
//	≤0.5  edit-distance similarity (0 beyond 3 edits)
func Score(input, command string) float64 {
	if input == "" || command == "" {
		return 0
	}

	fold := cases.Fold()
	in := fold.String(input)
	cmd := fold.String(command)

	switch {
	case in == cmd:
		return 1.0
	case strings.HasSuffix(cmd, "."+in):
		return 0.95
	case strings.Contains(cmd, "."+in+"."):
		return 0.90
	case isTrailingSubsequence(strings.Split(in, "."), strings.Split(cmd, ".")):
		return 0.85
	case strings.HasPrefix(cmd, in):
		return 0.80
	case strings.Contains(cmd, in):
		return 0.70
	case isAbbreviation(in, cmd):
		return 0.60
	}

	return similarity(in, cmd)
}

// isTrailingSubsequence reports whether in appears, in order, within cmd
// with its last segment aligned to cmd's last segment.
func isTrailingSubsequence(in, cmd []string) bool {
	if len(in) < 2 || len(in) > len(cmd) {
		return false
	}
	if in[len(in)-1] != cmd[len(cmd)-1] {
		return false
	}

	j := len(cmd) - 2
	for i := len(in) - 2; i >= 0; i-- {
		for j >= 0 && cmd[j] != in[i] {
			j--
		}
		if j < 0 {
			return false
		}
		j--
	}
	return true
}

// isAbbreviation reports whether each dotted segment of in prefixes the
// aligned segment of cmd. With fewer input segments, any contiguous window
// of cmd segments may align.
func isAbbreviation(in, cmd string) bool {
	inSegs := strings.Split(in, ".")
	cmdSegs := strings.Split(cmd, ".")

	if len(inSegs) > len(cmdSegs) {
		return false
	}

	for start := 0; start+len(inSegs) <= len(cmdSegs); start++ {
		if prefixesAligned(inSegs, cmdSegs[start:start+len(inSegs)]) {
			return true
		}
	}
	return false
}

func prefixesAligned(in, cmd []string) bool {
	for i := range in {
		if !strings.HasPrefix(cmd[i], in[i]) {
			return false
		}
	}
	return true
}

// similarity converts edit distance into a score capped at 0.5.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	dist := Levenshtein(a, b)
	if dist > maxEditDistance {
		return 0
	}

	maxLen := max(len(ra), len(rb))
	sim := 1 - float64(dist)/float64(maxLen)
	return min(sim*0.5, 0.5)
}

// Levenshtein returns the edit distance between two strings, counted in
// code points, with unit cost for insertion, deletion and substitution.
func Levenshtein(a, b string) int {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// Two rows are enough for the DP table.
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatSuggestions renders a numbered "Did you mean" list.
func FormatSuggestions(names []string) string {
	var sb strings.Builder
	sb.WriteString("Did you mean:")
	for i, name := range names {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, name)
	}
	return sb.String()
}
