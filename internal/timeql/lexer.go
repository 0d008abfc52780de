// Package timeql implements the TimeQL query language: a hand-written
// recursive-descent lexer and parser (spec §4.K) producing an explicit
// AST, and an Executor (§4.L) that reads the causality graph read-only.
package timeql

import (
	"strings"
	"unicode"

	"github.com/traversion/causengine/internal/apperrors"
)

// TokenKind identifies the lexical category of a Token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenKeyword
	TokenIdent
	TokenString
	TokenNumber
	TokenOperator
	TokenPunct
)

// Token is one lexical unit with its source position (for ParseError).
type Token struct {
	Kind     TokenKind
	Text     string
	Position int
}

var keywords = map[string]bool{
	"state": true, "at": true, "where": true, "traverse": true, "from": true,
	"following": true, "until": true, "match": true, "pattern": true,
	"followed": true, "by": true, "within": true, "in": true, "last": true,
	"timeline": true, "to": true, "compare": true, "with": true, "for": true,
	"predict": true, "next": true, "and": true, "backward": true, "forward": true,
	"both": true,
}

var multiCharOperators = []string{"==", "!=", "<=", ">="}

// Lexer tokenizes TimeQL source text. Keywords are case-insensitive;
// identifiers keep their source case; whitespace is insignificant; quoted
// strings use single quotes.
type Lexer struct {
	src []rune
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src)}
}

// Next returns the next token, or a TokenEOF token once exhausted.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Position: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '\'':
		return l.lexString()
	case unicode.IsDigit(c) || (c == '-' && l.peekDigitAt(l.pos+1)):
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexIdentOrKeyword()
	case isOperatorRune(c):
		return l.lexOperator()
	case c == ',':
		l.pos++
		return Token{Kind: TokenPunct, Text: ",", Position: start}, nil
	default:
		l.pos++
		return Token{}, apperrors.ParseErr("unexpected character", string(c), start)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) peekDigitAt(i int) bool {
	return i < len(l.src) && unicode.IsDigit(l.src[i])
}

func (l *Lexer) lexString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '\'' {
		sb.WriteRune(l.src[l.pos])
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{}, apperrors.ParseErr("unterminated string literal", string(l.src[start:]), start)
	}
	l.pos++ // closing quote
	return Token{Kind: TokenString, Text: sb.String(), Position: start}, nil
}

func (l *Lexer) lexNumber() (Token, error) {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && (unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	return Token{Kind: TokenNumber, Text: string(l.src[start:l.pos]), Position: start}, nil
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == ':'
}

func (l *Lexer) lexIdentOrKeyword() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	lower := strings.ToLower(text)
	if keywords[lower] {
		return Token{Kind: TokenKeyword, Text: lower, Position: start}, nil
	}
	return Token{Kind: TokenIdent, Text: text, Position: start}, nil
}

func isOperatorRune(c rune) bool {
	switch c {
	case '=', '!', '<', '>':
		return true
	}
	return false
}

func (l *Lexer) lexOperator() (Token, error) {
	start := l.pos
	for _, op := range multiCharOperators {
		if l.pos+len(op) <= len(l.src) && string(l.src[l.pos:l.pos+len(op)]) == op {
			l.pos += len(op)
			return Token{Kind: TokenOperator, Text: op, Position: start}, nil
		}
	}
	c := l.src[l.pos]
	l.pos++
	return Token{Kind: TokenOperator, Text: string(c), Position: start}, nil
}
