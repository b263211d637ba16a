package rag

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

type SentenceSplitter interface {
	Split(text string) []string
}

type RegexSentenceSplitter struct{}

func NewRegexSentenceSplitter() RegexSentenceSplitter {
	return RegexSentenceSplitter{}
}

func (RegexSentenceSplitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	var sentences []string
	var builder strings.Builder

	isBoundary := func(r rune) bool {
		switch r {
		case '.', '!', '?', '…', ';':
			return true
		default:
			return false
		}
	}

	flush := func() {
		if builder.Len() == 0 {
			return
		}
		sentence := strings.TrimSpace(builder.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		builder.Reset()
	}

	for idx, r := range runes {
		if r == '\n' && idx+1 < len(runes) && runes[idx+1] == '\n' {
			// Blank lines separate list items and headings.
			flush()
			continue
		}
		builder.WriteRune(r)
		if !isBoundary(r) {
			continue
		}
		next := idx + 1
		for next < len(runes) && (runes[next] == ' ' || runes[next] == '\n' || runes[next] == '\t') {
			next++
		}
		if next >= len(runes) || isBoundary(runes[next]) {
			continue
		}
		flush()
	}

	flush()

	if len(sentences) == 0 {
		return []string{trimmed}
	}
	return sentences
}

// ProseSentenceSplitter segments with prose and falls back to the regex
// splitter when prose fails or returns nothing.
type ProseSentenceSplitter struct {
	fallback RegexSentenceSplitter
	logger   *zap.Logger
}

func NewProseSentenceSplitter(logger *zap.Logger) ProseSentenceSplitter {
	return ProseSentenceSplitter{fallback: NewRegexSentenceSplitter(), logger: logger}
}

func (s ProseSentenceSplitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	doc, err := prose.NewDocument(trimmed,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false))
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("prose segmentation failed, using regex splitter", zap.Error(err))
		}
		return s.fallback.Split(trimmed)
	}

	var sentences []string
	for _, sent := range doc.Sentences() {
		// prose does not split on blank lines, so run the regex pass inside.
		sentences = append(sentences, s.fallback.Split(sent.Text)...)
	}
	if len(sentences) == 0 {
		return s.fallback.Split(trimmed)
	}
	return sentences
}
