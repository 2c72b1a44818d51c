package search

import (
	"sort"
	"strings"
	"unicode"
)

// Tokenize splits a raw query into terms. Whitespace separates terms outside
// double quotes; a quoted run becomes a single term with the quotes removed.
// An unterminated quote consumes the rest of the input.
func Tokenize(raw string) []string {
	var (
		terms    []string
		current  strings.Builder
		inQuotes bool
	)

	flush := func() {
		if term := strings.TrimSpace(current.String()); term != "" {
			terms = append(terms, term)
		}
		current.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inQuotes {
				flush()
			}
			inQuotes = !inQuotes
		case unicode.IsSpace(r) && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return terms
}

// Evaluate reports whether text satisfies terms under mode, together with
// the start offsets of every non-overlapping occurrence of every found term.
// Terms are literal substrings. An empty term list never matches.
func Evaluate(text string, terms []string, mode Mode, caseSensitive bool) (bool, []int) {
	if len(terms) == 0 {
		return false, nil
	}

	haystack := text
	if !caseSensitive {
		haystack = strings.ToLower(text)
	}

	var offsets []int
	found := 0
	for _, term := range terms {
		needle := term
		if !caseSensitive {
			needle = strings.ToLower(term)
		}

		occurrences := findAll(haystack, needle)
		if len(occurrences) == 0 {
			continue
		}
		found++
		offsets = append(offsets, occurrences...)
	}

	if mode == ModeAny {
		return found > 0, offsets
	}
	return found == len(terms), offsets
}

func findAll(haystack, needle string) []int {
	if needle == "" {
		return nil
	}

	var out []int
	pos := 0
	for pos <= len(haystack)-len(needle) {
		idx := strings.Index(haystack[pos:], needle)
		if idx < 0 {
			break
		}
		out = append(out, pos+idx)
		pos += idx + len(needle)
	}
	return out
}

// Rank orders results by descending match count. The sort is stable, so ties
// keep the order they were discovered in.
func Rank(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Matches > results[j].Matches
	})
	return results
}
