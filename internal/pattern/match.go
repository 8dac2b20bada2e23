package pattern

import "strings"

// Matches reports whether a candidate item name satisfies this pattern.
// Namespace prefixes ("grid:iron_ingot" -> "iron_ingot") are ignored so short
// human names match full names. "*" matches everything in fuzzy mode.
func (it Item) Matches(name string) bool {
	if !it.Exact && it.Raw == "*" {
		return true
	}
	full := strings.ToLower(name)
	short := stripNamespace(full)
	pat := strings.ToLower(it.Raw)
	if it.Exact {
		return full == pat || short == pat
	}
	return strings.Contains(full, pat) || strings.Contains(short, pat)
}

func stripNamespace(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// MatchNodes resolves a named location pattern against node identifiers.
// Resolution order: exact identifier, then case-insensitive substring, then
// substring with separator characters stripped from both sides (so "bin2"
// finds "grid:bin_2"). Among fuzzy candidates the shortest identifier wins;
// identifiers tied at the minimal length are all returned, in discovery
// order, and the caller decides whether that ambiguity is acceptable.
func MatchNodes(pat string, ids []string) []string {
	for _, id := range ids {
		if id == pat {
			return []string{id}
		}
	}
	p := strings.ToLower(pat)
	if got := shortestContaining(p, ids, strings.ToLower); len(got) > 0 {
		return got
	}
	return shortestContaining(stripSeparators(p), ids, func(id string) string {
		return stripSeparators(strings.ToLower(id))
	})
}

func shortestContaining(p string, ids []string, norm func(string) string) []string {
	var best []string
	for _, id := range ids {
		if !strings.Contains(norm(id), p) {
			continue
		}
		switch {
		case len(best) == 0 || len(id) < len(best[0]):
			best = []string{id}
		case len(id) == len(best[0]):
			best = append(best, id)
		}
	}
	return best
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', ':', '-', '.', ' ':
			return -1
		}
		return r
	}, s)
}
