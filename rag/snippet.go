package rag

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"sales-assistant/utils"
)

const (
	snippetMaxFragments = 2
	snippetMinWords     = 5
	snippetMaxWords     = 18
	snippetLeadWords    = 4
	fragmentSeparator   = " ... "
)

// BuildSnippet returns up to two fragments of 5 to 18 words taken from the
// sentences with the most query-term hits, in document order, with matched
// words wrapped in square brackets. Passages without term hits yield their
// opening words.
func BuildSnippet(content string, queryTerms []string, splitter SentenceSplitter) string {
	sentences := splitter.Split(content)
	if len(sentences) == 0 {
		return ""
	}
	terms := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		terms[t] = struct{}{}
	}

	type scored struct {
		idx  int
		hits int
	}
	var ranked []scored
	for i, s := range sentences {
		if hits := countHits(strings.Fields(s), terms); hits > 0 {
			ranked = append(ranked, scored{idx: i, hits: hits})
		}
	}
	if len(ranked) == 0 {
		words := strings.Fields(strings.Join(sentences, " "))
		return strings.Join(words[:min(len(words), snippetMaxWords)], " ")
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].hits > ranked[j].hits })
	if len(ranked) > snippetMaxFragments {
		ranked = ranked[:snippetMaxFragments]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })

	var fragments []string
	covered := -1
	for _, r := range ranked {
		if r.idx <= covered {
			continue
		}
		words := collectWords(sentences, r.idx)
		first := 0
		for i, w := range words {
			if wordMatches(w, terms) {
				first = i
				break
			}
		}
		start := max(0, first-snippetLeadWords)
		end := min(len(words), start+snippetMaxWords)
		if end-start < snippetMinWords {
			start = max(0, end-snippetMinWords)
		}
		window := make([]string, 0, end-start)
		for _, w := range words[start:end] {
			if wordMatches(w, terms) {
				w = bracketWord(w)
			}
			window = append(window, w)
		}
		fragments = append(fragments, strings.Join(window, " "))
		covered = r.idx + extraSentences(sentences, r.idx)
	}
	return strings.Join(fragments, fragmentSeparator)
}

// collectWords returns the words of sentence idx, borrowing following
// sentences until the minimum fragment length is reached.
func collectWords(sentences []string, idx int) []string {
	words := strings.Fields(sentences[idx])
	for j := idx + 1; len(words) < snippetMinWords && j < len(sentences); j++ {
		words = append(words, strings.Fields(sentences[j])...)
	}
	return words
}

func extraSentences(sentences []string, idx int) int {
	n := len(strings.Fields(sentences[idx]))
	extra := 0
	for j := idx + 1; n < snippetMinWords && j < len(sentences); j++ {
		n += len(strings.Fields(sentences[j]))
		extra++
	}
	return extra
}

func countHits(words []string, terms map[string]struct{}) int {
	hits := 0
	for _, w := range words {
		if wordMatches(w, terms) {
			hits++
		}
	}
	return hits
}

func wordMatches(word string, terms map[string]struct{}) bool {
	for _, tok := range utils.Tokenize(word) {
		if _, ok := terms[tok]; ok {
			return true
		}
	}
	return false
}

// bracketWord wraps the alphanumeric core of word, leaving surrounding
// punctuation outside the brackets.
func bracketWord(word string) string {
	isCore := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
	start := strings.IndexFunc(word, isCore)
	end := strings.LastIndexFunc(word, isCore)
	if start < 0 {
		return word
	}
	_, size := utf8.DecodeRuneInString(word[end:])
	end += size
	return word[:start] + "[" + word[start:end] + "]" + word[end:]
}
