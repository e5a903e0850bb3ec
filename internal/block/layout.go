package block

import (
	"strings"
	"unicode"
)

// Layout returns the plain-text gaps around blocks with trim markers
// applied. The result has len(blocks)+1 entries: gaps[i] is the text before
// blocks[i] and the final entry is the text after the last block. Blocks
// must come from Extract on the same text.
func Layout(text string, blocks []TemplateBlock) []string {
	gaps := make([]string, len(blocks)+1)
	prev := 0
	for i, b := range blocks {
		gaps[i] = text[prev:b.OriginalStart]
		prev = b.OriginalEnd
	}
	gaps[len(blocks)] = text[prev:]

	for i, b := range blocks {
		gaps[i] = trimRight(gaps[i], b.LeftTrim)
		gaps[i+1] = trimLeft(gaps[i+1], b.RightTrim)
	}
	return gaps
}

// Assemble interleaves gaps with the block outputs.
func Assemble(gaps, outputs []string) string {
	var sb strings.Builder
	for i, g := range gaps {
		sb.WriteString(g)
		if i < len(outputs) {
			sb.WriteString(outputs[i])
		}
	}
	return sb.String()
}

func trimLeft(s string, t Trim) string {
	switch t {
	case TrimNewline:
		if strings.HasPrefix(s, "\r\n") {
			return s[2:]
		}
		return strings.TrimPrefix(s, "\n")
	case TrimWhitespace:
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	}
	return s
}

func trimRight(s string, t Trim) string {
	switch t {
	case TrimNewline:
		if strings.HasSuffix(s, "\r\n") {
			return s[:len(s)-2]
		}
		return strings.TrimSuffix(s, "\n")
	case TrimWhitespace:
		return strings.TrimRightFunc(s, unicode.IsSpace)
	}
	return s
}
