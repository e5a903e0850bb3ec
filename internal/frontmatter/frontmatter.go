// Package frontmatter splits the YAML header off a Markdown document.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a Markdown file split at its frontmatter fence.
type Document struct {
	// Data is the decoded header, nil when the document has none.
	Data map[string]any
	// Raw is the header text between the fences.
	Raw string
	// Body is everything after the closing fence.
	Body string
}

// Split parses a leading `---` fenced YAML block. A document without one is
// returned whole as Body. An unterminated fence is treated as plain text.
func Split(text string) (*Document, error) {
	first, rest, ok := cutLine(text)
	if !ok || strings.TrimRight(first, " \t") != "---" {
		return &Document{Body: text}, nil
	}

	var raw strings.Builder
	for {
		line, next, more := cutLine(rest)
		if !more && line == "" {
			return &Document{Body: text}, nil
		}
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "---" || trimmed == "..." {
			doc := &Document{Raw: raw.String(), Body: next}
			if err := yaml.Unmarshal([]byte(doc.Raw), &doc.Data); err != nil {
				return doc, fmt.Errorf("error decoding frontmatter: %w", err)
			}
			if doc.Data == nil {
				doc.Data = map[string]any{}
			}
			return doc, nil
		}
		raw.WriteString(line)
		raw.WriteByte('\n')
		if !more {
			return &Document{Body: text}, nil
		}
		rest = next
	}
}

// cutLine returns the first line of s without its terminator. more is false
// when s had no line break.
func cutLine(s string) (line, rest string, more bool) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", false
	}
	return strings.TrimSuffix(s[:i], "\r"), s[i+1:], true
}
