// Package rank provides the lexical scoring used by the search pipelines:
// keyword extraction from a query abstract and TF-IDF cosine ranking of
// candidate papers.
package rank

import (
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// ExtractKeywords returns up to max keywords from text, ranked by frequency
// with stopwords filtered. Ties break alphabetically for a stable order.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		max = 8
	}

	freq := make(map[string]int)
	for _, tok := range tokenize(text) {
		if len(tok) < 3 {
			continue
		}
		freq[tok]++
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}

// Overlap returns the fraction of keywords that occur in text.
func Overlap(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	present := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		present[tok] = struct{}{}
	}

	hits := 0
	for _, kw := range keywords {
		if _, ok := present[kw]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was",
		"were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than",
		"so", "such", "into", "about", "between", "through", "during",
		"before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "we", "our", "their", "which",
		"also", "using", "use", "based", "paper", "propose", "proposed",
		"present", "approach", "method", "results", "show",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
