// Package lexer splits template script source into tokens. It is shared by
// the parser and by the dependency analyzer, which scans tokens without
// building a tree.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	Number
	String
	Template
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case Number:
		return "number"
	case String:
		return "string"
	case Template:
		return "template literal"
	case Punct:
		return "punctuator"
	}
	return "token"
}

// Token is one lexical unit.
type Token struct {
	Kind Kind
	// Text is the raw source for identifiers, keywords and punctuators, and
	// the decoded value for strings.
	Text string
	Num  float64

	// Quasis and Exprs hold the literal parts and the embedded expression
	// sources of a template literal. ExprPos gives each expression's starting
	// position.
	Quasis  []string
	Exprs   []string
	ExprPos []Position

	Position
	End int
	// NewlineBefore is set when a line break separates this token from the
	// previous one.
	NewlineBefore bool
}

// Position is a byte offset plus its 1-based line and column.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Is reports whether t is the punctuator or keyword s.
func (t Token) Is(s string) bool {
	return (t.Kind == Punct || t.Kind == Keyword) && t.Text == s
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case String:
		return strconv.Quote(t.Text)
	case Template:
		return "template literal"
	}
	return fmt.Sprintf("%q", t.Text)
}

var keywords = map[string]bool{
	"let": true, "const": true, "var": true,
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"return": true, "break": true, "continue": true, "function": true,
	"true": true, "false": true, "null": true,
	"typeof": true, "instanceof": true, "new": true, "delete": true, "void": true,
	"await": true, "async": true, "in": true, "this": true,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool { return keywords[name] }

// punctuators are matched longest first.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".",
}

// Error is a lexical error with its location.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Lexer produces tokens from a source string.
type Lexer struct {
	src  string
	pos  Position
	base Position
}

// New returns a lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: Position{Line: 1, Column: 1}}
}

// NewAt returns a lexer whose reported positions start at base. It is used
// for expressions embedded in template literals.
func NewAt(src string, base Position) *Lexer {
	l := New(src)
	l.pos = base
	l.base = base
	return l
}

// Tokenize returns every token of src, ending with an EOF token.
func Tokenize(src string) ([]Token, error) {
	return New(src).All()
}

// All drains the lexer.
func (l *Lexer) All() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) idx() int { return l.pos.Offset - l.base.Offset }

func (l *Lexer) peekByte(ahead int) byte {
	i := l.idx() + ahead
	if i < len(l.src) {
		return l.src[i]
	}
	return 0
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.idx() < len(l.src); i++ {
		if l.src[l.idx()] == '\n' {
			l.pos.Line++
			l.pos.Column = 1
		} else {
			l.pos.Column++
		}
		l.pos.Offset++
	}
}

func (l *Lexer) errorf(at Position, format string, args ...any) error {
	return &Error{Line: at.Line, Column: at.Column, Message: fmt.Sprintf(format, args...)}
}

// skipSpace consumes whitespace and comments, reporting whether a newline
// was crossed.
func (l *Lexer) skipSpace() (bool, error) {
	newline := false
	for l.idx() < len(l.src) {
		c := l.src[l.idx()]
		switch {
		case c == '\n':
			newline = true
			l.advance(1)
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.advance(1)
		case c == '/' && l.peekByte(1) == '/':
			for l.idx() < len(l.src) && l.src[l.idx()] != '\n' {
				l.advance(1)
			}
		case c == '/' && l.peekByte(1) == '*':
			start := l.pos
			end := strings.Index(l.src[l.idx()+2:], "*/")
			if end < 0 {
				return newline, l.errorf(start, "unterminated comment")
			}
			body := l.src[l.idx() : l.idx()+2+end+2]
			if strings.Contains(body, "\n") {
				newline = true
			}
			l.advance(len(body))
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.idx():])
			if size > 1 && unicode.IsSpace(r) {
				l.advance(size)
				continue
			}
			return newline, nil
		}
	}
	return newline, nil
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	nl, err := l.skipSpace()
	if err != nil {
		return Token{}, err
	}
	start := l.pos
	tok := Token{Position: start, NewlineBefore: nl}
	if l.idx() >= len(l.src) {
		tok.Kind = EOF
		tok.End = start.Offset
		return tok, nil
	}

	c := l.src[l.idx()]
	switch {
	case isIdentStart(c):
		n := l.identLen()
		tok.Text = l.src[l.idx() : l.idx()+n]
		tok.Kind = Ident
		if keywords[tok.Text] {
			tok.Kind = Keyword
		}
		l.advance(n)
	case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
		if err := l.number(&tok); err != nil {
			return Token{}, err
		}
	case c == '"' || c == '\'':
		s, err := l.quoted(c)
		if err != nil {
			return Token{}, err
		}
		tok.Kind, tok.Text = String, s
	case c == '`':
		if err := l.template(&tok); err != nil {
			return Token{}, err
		}
	default:
		p := l.punct()
		if p == "" {
			r, _ := utf8.DecodeRuneInString(l.src[l.idx():])
			return Token{}, l.errorf(start, "unexpected character %q", r)
		}
		tok.Kind, tok.Text = Punct, p
		l.advance(len(p))
	}
	tok.End = l.pos.Offset
	return tok, nil
}

func (l *Lexer) punct() string {
	rest := l.src[l.idx():]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			// `a?.5:1` is a conditional, not optional chaining.
			if p == "?." && len(rest) > 2 && isDigit(rest[2]) {
				continue
			}
			return p
		}
	}
	return ""
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Lexer) identLen() int {
	rest := l.src[l.idx():]
	n := 0
	for n < len(rest) {
		r, size := utf8.DecodeRuneInString(rest[n:])
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			n += size
			continue
		}
		break
	}
	return n
}

func (l *Lexer) number(tok *Token) error {
	start := l.pos
	rest := l.src[l.idx():]
	n := 0
	if len(rest) > 1 && rest[0] == '0' && strings.ContainsRune("xXoObB", rune(rest[1])) {
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}[rest[1]]
		n = 2
		for n < len(rest) && (isHex(rest[n]) || rest[n] == '_') {
			n++
		}
		v, err := strconv.ParseUint(strings.ReplaceAll(rest[2:n], "_", ""), base, 64)
		if err != nil {
			return l.errorf(start, "invalid number literal %q", rest[:n])
		}
		tok.Kind, tok.Text, tok.Num = Number, rest[:n], float64(v)
		l.advance(n)
		return nil
	}
	for n < len(rest) && (isDigit(rest[n]) || rest[n] == '_') {
		n++
	}
	if n < len(rest) && rest[n] == '.' {
		n++
		for n < len(rest) && (isDigit(rest[n]) || rest[n] == '_') {
			n++
		}
	}
	if n < len(rest) && (rest[n] == 'e' || rest[n] == 'E') {
		m := n + 1
		if m < len(rest) && (rest[m] == '+' || rest[m] == '-') {
			m++
		}
		if m < len(rest) && isDigit(rest[m]) {
			for m < len(rest) && isDigit(rest[m]) {
				m++
			}
			n = m
		}
	}
	text := rest[:n]
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return l.errorf(start, "invalid number literal %q", text)
	}
	if n < len(rest) && isIdentStart(rest[n]) {
		return l.errorf(start, "identifier directly after number %q", text)
	}
	tok.Kind, tok.Text, tok.Num = Number, text, v
	l.advance(n)
	return nil
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// quoted reads a single or double quoted string starting at the opening
// quote and returns its decoded value.
func (l *Lexer) quoted(q byte) (string, error) {
	start := l.pos
	l.advance(1)
	var sb strings.Builder
	for {
		if l.idx() >= len(l.src) {
			return "", l.errorf(start, "unterminated string")
		}
		c := l.src[l.idx()]
		switch c {
		case q:
			l.advance(1)
			return sb.String(), nil
		case '\n':
			return "", l.errorf(start, "unterminated string")
		case '\\':
			if err := l.escape(&sb); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.idx():])
			sb.WriteRune(r)
			l.advance(size)
		}
	}
}

// escape decodes one backslash sequence.
func (l *Lexer) escape(sb *strings.Builder) error {
	at := l.pos
	l.advance(1)
	if l.idx() >= len(l.src) {
		return l.errorf(at, "unterminated escape sequence")
	}
	c := l.src[l.idx()]
	l.advance(1)
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
		// line continuation
	case 'x':
		return l.hexEscape(sb, 2, at)
	case 'u':
		if l.peekByte(0) == '{' {
			end := strings.IndexByte(l.src[l.idx():], '}')
			if end < 0 {
				return l.errorf(at, "invalid unicode escape")
			}
			v, err := strconv.ParseUint(l.src[l.idx()+1:l.idx()+end], 16, 32)
			if err != nil {
				return l.errorf(at, "invalid unicode escape")
			}
			sb.WriteRune(rune(v))
			l.advance(end + 1)
			return nil
		}
		return l.hexEscape(sb, 4, at)
	default:
		r, size := utf8.DecodeRuneInString(l.src[l.idx()-1:])
		sb.WriteRune(r)
		l.advance(size - 1)
	}
	return nil
}

func (l *Lexer) hexEscape(sb *strings.Builder, digits int, at Position) error {
	if l.idx()+digits > len(l.src) {
		return l.errorf(at, "invalid escape sequence")
	}
	v, err := strconv.ParseUint(l.src[l.idx():l.idx()+digits], 16, 32)
	if err != nil {
		return l.errorf(at, "invalid escape sequence")
	}
	sb.WriteRune(rune(v))
	l.advance(digits)
	return nil
}

// template reads a backtick literal. Embedded `${...}` expressions are
// delimited by lexing them with a nested token loop, so braces inside
// strings and nested templates are handled.
func (l *Lexer) template(tok *Token) error {
	start := l.pos
	l.advance(1)
	tok.Kind = Template
	var sb strings.Builder
	for {
		if l.idx() >= len(l.src) {
			return l.errorf(start, "unterminated template literal")
		}
		c := l.src[l.idx()]
		switch {
		case c == '`':
			l.advance(1)
			tok.Quasis = append(tok.Quasis, sb.String())
			return nil
		case c == '\\':
			if err := l.escape(&sb); err != nil {
				return err
			}
		case c == '$' && l.peekByte(1) == '{':
			tok.Quasis = append(tok.Quasis, sb.String())
			sb.Reset()
			l.advance(2)
			exprStart := l.pos
			depth := 0
			for {
				inner, err := l.Next()
				if err != nil {
					return err
				}
				if inner.Kind == EOF {
					return l.errorf(exprStart, "unterminated template expression")
				}
				if inner.Is("{") {
					depth++
				}
				if inner.Is("}") {
					if depth == 0 {
						src := l.src[exprStart.Offset-l.base.Offset : inner.Offset-l.base.Offset]
						tok.Exprs = append(tok.Exprs, src)
						tok.ExprPos = append(tok.ExprPos, exprStart)
						break
					}
					depth--
				}
			}
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.idx():])
			sb.WriteRune(r)
			l.advance(size)
		}
	}
}
