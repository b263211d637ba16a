// Package pii masks personal data in free text before it is stored or
// shown to a language model.
package pii

import (
	"regexp"
	"strings"
)

const (
	MaskEmail   = "[email]"
	MaskMention = "[mention]"
	MaskNumber  = "[number]"
	MaskPhone   = "[phone]"
)

var (
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	mentionRe = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	cardRe    = regexp.MustCompile(`\b\d{13,19}\b`)
	phoneRe   = regexp.MustCompile(`(?:\+?\(?\d\)?[\s\-]?){7,15}`)
	spaceRe   = regexp.MustCompile(`\s{2,}`)
)

// Sanitize masks e-mails, chat mentions, card-like numbers and phone-like
// sequences, then collapses whitespace. Masks contain no maskable
// characters, so Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	// Collapse first: a double space must not hide a phone number that a
	// second pass would find.
	out := spaceRe.ReplaceAllString(text, " ")
	out = emailRe.ReplaceAllString(out, MaskEmail)
	out = mentionRe.ReplaceAllString(out, MaskMention)
	out = cardRe.ReplaceAllString(out, MaskNumber)
	out = phoneRe.ReplaceAllStringFunc(out, maskPhone)
	out = spaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// maskPhone keeps the separator that trailed the last digit so the mask does
// not glue onto the following word.
func maskPhone(match string) string {
	trimmed := strings.TrimRight(match, " \t\n\r-")
	return MaskPhone + match[len(trimmed):]
}

// ContainsPII reports whether Sanitize would change anything besides
// whitespace.
func ContainsPII(text string) bool {
	return emailRe.MatchString(text) || mentionRe.MatchString(text) ||
		cardRe.MatchString(text) || phoneRe.MatchString(text)
}
