// Package lexer provides the scanner that turns source text into tokens.
// It distinguishes general-purpose tokens from case-insensitive SQL
// keywords and supports escape-prefixed identifiers.
package lexer

import (
	"strconv"
	"strings"
	"sync"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/lykia-rs/lykiadb/token"
)

var (
	// ErrUnexpectedCharacter is returned when the scanner meets a character
	// with no assigned meaning.
	ErrUnexpectedCharacter = errors.NewKind("unexpected character %q at %s")
	// ErrUnterminatedString is returned when a string literal reaches the
	// end of input before its closing quote.
	ErrUnterminatedString = errors.NewKind("unterminated string at %s")
	// ErrMalformedNumberLiteral is returned for a dangling exponent such as
	// "1e" or "1e+".
	ErrMalformedNumberLiteral = errors.NewKind("malformed number literal at %s")
)

// Lexer scans source text into tokens.
type Lexer struct {
	input string
	start int // start position of current token
	pos   int // current position in input
	line  int // current line number (0-indexed)
}

var lexerPool = sync.Pool{
	New: func() any { return &Lexer{} },
}

// New creates a new Lexer for the input string.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Scan tokenizes the input in a single forward pass. The returned sequence
// always ends in an Eof token; on error no tokens are returned.
func Scan(input string) ([]token.Item, error) {
	l := lexerPool.Get().(*Lexer)
	defer lexerPool.Put(l)
	l.reset(input)
	return l.scanAll()
}

func (l *Lexer) reset(input string) {
	l.input = input
	l.start = 0
	l.pos = 0
	l.line = 0
}

func (l *Lexer) scanAll() ([]token.Item, error) {
	var tokens []token.Item
	for {
		var prev *token.Item
		if len(tokens) > 0 {
			prev = &tokens[len(tokens)-1]
		}
		item, ok, err := l.scan(prev)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tokens = append(tokens, item)
	}

	eofStart := 0
	if len(tokens) > 0 {
		eofStart = tokens[len(tokens)-1].Span.End + 1
	}
	tokens = append(tokens, token.Item{
		Type: token.Eof,
		Span: token.Span{Start: eofStart, End: eofStart, Line: l.line, LineEnd: l.line},
	})
	return tokens, nil
}

// scan produces the next token. The second result is false at end of input.
// Comments and whitespace produce no token and are skipped internally.
func (l *Lexer) scan(prev *token.Item) (token.Item, bool, error) {
	for l.pos < len(l.input) {
		l.start = l.pos
		ch := l.input[l.pos]

		switch {
		case ch == '\n':
			l.line++
			l.pos++
		case ch == ' ' || ch == '\r' || ch == '\t':
			l.pos++
		case ch == '"' || ch == '\'' || ch == '`':
			item, err := l.scanString(ch)
			return item, err == nil, err
		case isDigit(ch):
			item, err := l.scanNumber()
			return item, err == nil, err
		case isIdentStart(ch):
			return l.scanIdentifier(prev), true, nil
		case ch == '!' || ch == '=' || ch == '<' || ch == '>' || ch == '|' || ch == '&' || ch == ':':
			item, err := l.scanDouble(ch)
			return item, err == nil, err
		case ch == '/':
			item, ok := l.scanSlash()
			if !ok {
				continue // line comment, keep scanning
			}
			return item, true, nil
		default:
			item, err := l.scanOther(ch)
			return item, err == nil, err
		}
	}
	return token.Item{}, false, nil
}

func (l *Lexer) span(length int) token.Span {
	return token.Span{Start: l.start, End: l.start + length, Line: l.line, LineEnd: l.line}
}

func (l *Lexer) scanString(quote byte) (token.Item, error) {
	l.pos++ // consume the opening quote
	contentStart := l.pos
	line := l.line
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		if l.input[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}

	if l.pos >= len(l.input) {
		return token.Item{}, ErrUnterminatedString.New(token.Span{
			Start: l.start, End: l.pos, Line: line, LineEnd: l.line,
		})
	}

	content := l.input[contentStart:l.pos]
	l.pos++ // consume the closing quote
	return token.Item{
		Type:   token.Str,
		Lexeme: content,
		Text:   content,
		Span:   token.Span{Start: l.start, End: l.start + len(content) + 2, Line: line, LineEnd: l.line},
	}, nil
}

func (l *Lexer) scanNumber() (token.Item, error) {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}

	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			return token.Item{}, ErrMalformedNumberLiteral.New(l.span(l.pos - l.start))
		}
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	raw := l.input[l.start:l.pos]
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return token.Item{}, ErrMalformedNumberLiteral.New(l.span(len(raw)))
	}
	return token.Item{
		Type:   token.Num,
		Lexeme: raw,
		NumVal: parsed,
		Span:   l.span(len(raw)),
	}, nil
}

func (l *Lexer) scanIdentifier(prev *token.Item) token.Item {
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	raw := l.input[l.start:l.pos]
	span := l.span(len(raw))

	escaped := strings.HasPrefix(raw, "\\")
	coerced := escaped || (prev != nil && prev.Type == token.Dot)

	if !coerced {
		if t, ok := token.LookupKeyword(raw, strings.ToUpper(raw)); ok {
			return token.Item{Type: t, Lexeme: raw, Span: span}
		}
	}

	// a leading backslash disables keyword classification and is dropped
	// from the literal text; embedded backslashes are preserved
	text := raw
	if escaped {
		text = strings.TrimPrefix(raw, "\\")
	}
	return token.Item{
		Type:   token.Identifier,
		Lexeme: raw,
		Text:   text,
		Dollar: strings.HasPrefix(text, "$"),
		Span:   span,
	}
}

// scanSlash handles '/' which either starts a line comment or is the
// division operator. The second result is false when a comment was skipped.
func (l *Lexer) scanSlash() (token.Item, bool) {
	l.pos++
	if l.pos < len(l.input) && l.input[l.pos] == '/' {
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.pos++
		}
		return token.Item{}, false
	}
	return token.Item{Type: token.Slash, Lexeme: "/", Span: l.span(1)}, true
}

func (l *Lexer) scanDouble(ch byte) (token.Item, error) {
	l.pos++
	two := func(t token.Type, lexeme string) token.Item {
		l.pos++
		return token.Item{Type: t, Lexeme: lexeme, Span: l.span(2)}
	}
	one := func(t token.Type) token.Item {
		return token.Item{Type: t, Lexeme: string(ch), Span: l.span(1)}
	}

	next := byte(0)
	if l.pos < len(l.input) {
		next = l.input[l.pos]
	}

	switch {
	case ch == ':' && next == ':':
		return two(token.DoubleColon, "::"), nil
	case ch == '&' && next == '&':
		return two(token.LogicalAnd, "&&"), nil
	case ch == '|' && next == '|':
		return two(token.LogicalOr, "||"), nil
	case next == '=':
		switch ch {
		case '!':
			return two(token.BangEqual, "!="), nil
		case '=':
			return two(token.EqualEqual, "=="), nil
		case '<':
			return two(token.LessEqual, "<="), nil
		case '>':
			return two(token.GreaterEqual, ">="), nil
		}
	}

	switch ch {
	case '!':
		return one(token.Bang), nil
	case '=':
		return one(token.Equal), nil
	case '<':
		return one(token.Less), nil
	case '>':
		return one(token.Greater), nil
	case ':':
		return one(token.Colon), nil
	}
	// a lone '&' or '|' has no meaning
	return token.Item{}, ErrUnexpectedCharacter.New(string(ch), l.span(1))
}

func (l *Lexer) scanOther(ch byte) (token.Item, error) {
	l.pos++
	if t, ok := token.LookupSymbol(ch); ok {
		return token.Item{Type: t, Lexeme: string(ch), Span: l.span(1)}, nil
	}
	return token.Item{}, ErrUnexpectedCharacter.New(string(ch), l.span(1))
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$' || ch == '\\'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
