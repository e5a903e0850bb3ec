// Package block extracts template directives from Markdown text.
//
// A directive opens with `<%` and closes with `%>`. The opening tag may carry
// a trim marker (`<%-` or `<%_`) and the execution marker `*`; the closing
// tag may carry a trim marker (`-%>` or `_%>`). `-` strips one adjacent
// newline, `_` strips all adjacent whitespace.
package block

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Trim describes how a tag strips the text next to it.
type Trim int

const (
	TrimNone Trim = iota
	// TrimNewline strips a single adjacent newline.
	TrimNewline
	// TrimWhitespace strips every adjacent whitespace character.
	TrimWhitespace
)

func (t Trim) String() string {
	switch t {
	case TrimNewline:
		return "-"
	case TrimWhitespace:
		return "_"
	}
	return ""
}

func trimFor(c byte) Trim {
	switch c {
	case '-':
		return TrimNewline
	case '_':
		return TrimWhitespace
	}
	return TrimNone
}

// TemplateBlock is one directive found in a template.
type TemplateBlock struct {
	// ID is the zero-based position of the block in source order.
	ID int
	// MatchText is the full tag text, delimiters included.
	MatchText string
	// Command is the directive body with surrounding whitespace removed.
	Command     string
	IsExecution bool
	LeftTrim    Trim
	RightTrim   Trim
	// OriginalStart and OriginalEnd are the byte offsets of the tag in the
	// template; OriginalEnd is exclusive.
	OriginalStart int
	OriginalEnd   int
	// Line and Column locate the opening tag, 1-based. Column counts code
	// points.
	Line   int
	Column int
	// CommandLine and CommandColumn locate the first character of Command.
	CommandLine   int
	CommandColumn int
}

// Kind names the directive type for logs and plan output.
func (b TemplateBlock) Kind() string {
	if b.IsExecution {
		return "execution"
	}
	return "interpolation"
}

// SyntaxError reports a malformed tag.
type SyntaxError struct {
	Offset  int
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

const (
	openTag  = "<%"
	closeTag = "%>"
)

// Extract finds every directive in text, in source order. `%>` inside a
// quoted string does not close a directive. A nested opening tag or a
// missing closing tag is a SyntaxError.
func Extract(text string) ([]TemplateBlock, error) {
	var blocks []TemplateBlock
	pos := 0
	for {
		i := strings.Index(text[pos:], openTag)
		if i < 0 {
			return blocks, nil
		}
		start := pos + i
		b, err := scanTag(text, start)
		if err != nil {
			return nil, err
		}
		b.ID = len(blocks)
		blocks = append(blocks, b)
		pos = b.OriginalEnd
	}
}

func scanTag(text string, start int) (TemplateBlock, error) {
	b := TemplateBlock{OriginalStart: start}
	b.Line, b.Column = locate(text, start)

	i := start + len(openTag)
	if i < len(text) {
		if t := trimFor(text[i]); t != TrimNone {
			b.LeftTrim = t
			i++
		}
	}
	if i < len(text) && text[i] == '*' {
		b.IsExecution = true
		i++
	}
	bodyStart := i

	// quote is the open string delimiter; comment is '/' inside a line
	// comment and '*' inside a block comment. A closing tag ends the
	// directive even inside a comment.
	var quote, comment byte
	for i < len(text) {
		c := text[i]
		if comment != 0 {
			switch {
			case strings.HasPrefix(text[i:], closeTag):
				comment = 0
				continue
			case comment == '/' && c == '\n':
				comment = 0
			case comment == '*' && strings.HasPrefix(text[i:], "*/"):
				comment = 0
				i++
			}
			i++
			continue
		}
		if quote != 0 {
			switch c {
			case '\\':
				i += 2
				continue
			case quote:
				quote = 0
			case '\n':
				if quote != '`' {
					quote = 0
				}
			}
			i++
			continue
		}
		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case strings.HasPrefix(text[i:], "//"):
			comment = '/'
			i++
		case strings.HasPrefix(text[i:], "/*"):
			comment = '*'
			i++
		case strings.HasPrefix(text[i:], openTag):
			return b, syntaxErr(text, i, "nested opening tag inside a directive")
		case strings.HasPrefix(text[i:], closeTag):
			bodyEnd := i
			if bodyEnd > bodyStart {
				if t := trimFor(text[bodyEnd-1]); t != TrimNone {
					b.RightTrim = t
					bodyEnd--
				}
			}
			b.OriginalEnd = i + len(closeTag)
			b.MatchText = text[start:b.OriginalEnd]
			body := text[bodyStart:bodyEnd]
			lead := len(body) - len(strings.TrimLeft(body, " \t\r\n"))
			b.Command = strings.TrimSpace(body)
			b.CommandLine, b.CommandColumn = locate(text, bodyStart+lead)
			return b, nil
		}
		i++
	}
	return b, syntaxErr(text, start, "unclosed directive, expected %>")
}

func syntaxErr(text string, offset int, msg string) *SyntaxError {
	line, col := locate(text, offset)
	return &SyntaxError{Offset: offset, Line: line, Column: col, Message: msg}
}

// locate converts a byte offset into a 1-based line and code point column.
func locate(text string, offset int) (line, col int) {
	offset = min(offset, len(text))
	before := text[:offset]
	line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return line, utf8.RuneCountInString(before[lineStart:]) + 1
}

// Locate maps a position inside a block's Command, given as a 1-based line
// and column relative to the command, to a position in the template.
func (b TemplateBlock) Locate(line, col int) (int, int) {
	if line <= 1 {
		return b.CommandLine, b.CommandColumn + col - 1
	}
	return b.CommandLine + line - 1, col
}
