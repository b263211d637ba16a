package format

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var numberedItem = regexp.MustCompile(`^\d+\.\s`)

// ConvertToHTML renders markdown for chat clients that display HTML. Single
// newlines are kept as line breaks; raw HTML in the input is escaped.
func ConvertToHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	// Normalize markdown - ensure lists have blank lines before them
	text = normalizeMarkdownLists(text)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(text), p, renderer)))
}

// normalizeMarkdownLists ensures list items have proper spacing for markdown parsing.
// Markdown requires a blank line before lists, but LLMs often forget this.
func normalizeMarkdownLists(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		if isListItem(line) && i > 0 {
			prev := lines[i-1]
			// Add blank line before list if previous line is text (not blank/list)
			if strings.TrimSpace(prev) != "" && !isListItem(prev) {
				result = append(result, "")
			}
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

func isListItem(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "- ") ||
		strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "+ ") ||
		numberedItem.MatchString(trimmed)
}
