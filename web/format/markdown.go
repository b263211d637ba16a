package format

import (
	"strings"
)

// PreprocessAssistantText normalizes LLM output: echoed context blocks are
// dropped and curly quotes straightened.
func PreprocessAssistantText(text string) string {
	if text == "" {
		return text
	}

	text = StripAllTags(text)

	// Replace curly quotes (helps readability)
	text = strings.NewReplacer(
		"“", "\"", // "
		"”", "\"", // "
		"‘", "'", // '
		"’", "'", // '
	).Replace(text)

	return strings.TrimSpace(text)
}
