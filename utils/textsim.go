package utils

import (
	"math"
	"strings"
	"unicode"
)

// Lexical primitives shared by the in-memory store and the snippet builder.
// They mirror the Postgres "simple" text-search configuration and pg_trgm.

const (
	SectionWeight = 1.0
	BodyWeight    = 0.4
)

// Tokenize lower-cases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// UniqueTokens returns the distinct tokens of text in first-seen order.
func UniqueTokens(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Relevance scores how often the query terms occur in the section label and
// body, weighting section hits above body hits. The raw score r is
// normalised to r/(r+1), so any match is > 0 and the result stays below 1.
func Relevance(queryTerms []string, section, body string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	sectionCounts := countTokens(section)
	bodyCounts := countTokens(body)
	bodyLen := 0
	for _, c := range bodyCounts {
		bodyLen += c
	}

	var raw float64
	for _, term := range queryTerms {
		raw += SectionWeight*float64(sectionCounts[term]) + BodyWeight*float64(bodyCounts[term])
	}
	if raw == 0 {
		return 0
	}
	// Long bodies should not win on raw repetition alone.
	raw /= 1 + math.Log(1+float64(bodyLen))
	return raw / (raw + 1)
}

func countTokens(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	return counts
}

// Trigrams returns the pg_trgm style trigram set of text: every word is
// padded with two leading blanks and one trailing blank.
func Trigrams(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range Tokenize(text) {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// WordSimilarity is the share of the query's trigrams found in text. It is
// the in-process stand-in for pg_trgm word_similarity.
func WordSimilarity(query, text string) float64 {
	q := Trigrams(query)
	if len(q) == 0 {
		return 0
	}
	t := Trigrams(text)
	shared := 0
	for tri := range q {
		if _, ok := t[tri]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(q))
}

// CosineDistance returns 1 - cos(a, b). Mismatched or zero vectors are
// maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// HasNumbers reports whether text contains any digit.
func HasNumbers(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}

// TsQuery joins tokens into an OR-ed to_tsquery expression. Tokens only
// contain letters and digits, so no escaping is needed.
func TsQuery(text string) string {
	return strings.Join(UniqueTokens(text), " | ")
}
