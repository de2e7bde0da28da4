package util

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// RankTags returns up to n candidates fuzzy-matching term, best first.
// An empty term returns the candidates unchanged (capped at n). Duplicate
// candidates are collapsed.
func RankTags(term string, candidates []string, n int) []string {
	uniq := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok || strings.TrimSpace(c) == "" {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return capList(uniq, n)
	}
	matches := fuzzy.Find(term, uniq)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return capList(out, n)
}

func capList(in []string, n int) []string {
	if n <= 0 || len(in) <= n {
		return in
	}
	return in[:n]
}
