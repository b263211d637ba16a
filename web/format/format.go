package format

import "strings"

// Tag definitions - single source of truth for the markup the assistant
// exchanges with the model.
const (
	TagContext = "context"
)

// Tag represents a custom XML-like tag used in prompts.
type Tag struct {
	Name     string // Internal name
	OpenTag  string // Opening tag string (e.g., "<context>")
	CloseTag string // Closing tag string (e.g., "</context>")
}

var (
	ContextTag = Tag{
		Name:     TagContext,
		OpenTag:  "<context>",
		CloseTag: "</context>",
	}

	// AllTags contains all tags for iteration
	AllTags = []Tag{ContextTag}
)

// Wrap surrounds body with the tag on separate lines.
func Wrap(tag Tag, body string) string {
	return tag.OpenTag + "\n" + body + "\n" + tag.CloseTag
}

// HasTag checks if text contains a specific tag (opening or closing).
func HasTag(text string, tag Tag) bool {
	return strings.Contains(text, tag.OpenTag) || strings.Contains(text, tag.CloseTag)
}

// ExtractTagContent extracts content between opening and closing tags.
// Returns the content and true if both tags were found, empty string and false otherwise.
func ExtractTagContent(text string, tag Tag) (content string, found bool) {
	startIdx := strings.Index(text, tag.OpenTag)
	if startIdx == -1 {
		return "", false
	}

	endIdx := strings.Index(text[startIdx:], tag.CloseTag)
	if endIdx == -1 {
		return "", false
	}

	contentStart := startIdx + len(tag.OpenTag)
	contentEnd := startIdx + endIdx

	return strings.TrimSpace(text[contentStart:contentEnd]), true
}

// StripBlock removes every complete tag block, content included. A dangling
// opening tag removes everything after it.
func StripBlock(text string, tag Tag) string {
	for {
		start := strings.Index(text, tag.OpenTag)
		if start == -1 {
			return strings.ReplaceAll(text, tag.CloseTag, "")
		}
		end := strings.Index(text[start:], tag.CloseTag)
		if end == -1 {
			return text[:start]
		}
		text = text[:start] + text[start+end+len(tag.CloseTag):]
	}
}

// StripAllTags removes all known tag blocks from text.
func StripAllTags(text string) string {
	for _, tag := range AllTags {
		text = StripBlock(text, tag)
	}
	return text
}
