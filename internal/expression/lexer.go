package expression

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const endOfFileText = "\x00"

var operatorTokenKinds = map[byte]Kind{
	'+': PlusToken,
	'-': MinusToken,
	'*': StarToken,
	'/': SlashToken,
	'(': OpenParenthesisToken,
	')': CloseParenthesisToken,
}

type lexer struct {
	source      string
	index       int
	diagnostics Diagnostics
}

func newLexer(source string) *lexer {
	return &lexer{source: source}
}

// Scan splits text into tokens. Malformed input is reported through the
// returned diagnostics and still yields a token, so the result always ends
// with exactly one EndOfFileToken.
func Scan(text string) ([]Token, Diagnostics) {
	lex := newLexer(text)
	var tokens []Token
	for {
		tok := lex.next()
		tokens = append(tokens, tok)
		if tok.kind == EndOfFileToken {
			return tokens, lex.diagnostics
		}
	}
}

func (l *lexer) isCompleted() bool {
	return l.index >= len(l.source)
}

func (l *lexer) peekRune() (rune, int) {
	return utf8.DecodeRuneInString(l.source[l.index:])
}

func (l *lexer) next() Token {
	if l.isCompleted() {
		return newToken(EndOfFileToken, len(l.source), endOfFileText)
	}

	c := l.source[l.index]
	if isDigit(c) {
		return l.scanNumber()
	}
	if kind, ok := operatorTokenKinds[c]; ok {
		l.index++
		return newToken(kind, l.index-1, l.source[l.index-1:l.index])
	}

	r, size := l.peekRune()
	if unicode.IsSpace(r) {
		return l.scanWhitespace()
	}

	begins := l.index
	l.index += size
	l.diagnostics.report(begins, "Error bad Character input : %c", r)
	return newToken(BadToken, begins, l.source[begins:l.index])
}

// scanNumber consumes digits together with ',' thousands separators, which
// may appear anywhere after the first digit.
func (l *lexer) scanNumber() Token {
	begins := l.index
	for !l.isCompleted() && (isDigit(l.source[l.index]) || l.source[l.index] == ',') {
		l.index++
	}

	tok := newToken(NumberToken, begins, l.source[begins:l.index])
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok.text, ",", ""), 64)
	if err != nil {
		l.diagnostics.report(begins, "ERROR %s is not a number", tok.text)
		return tok
	}

	tok.value = validNumber(v)
	return tok
}

func (l *lexer) scanWhitespace() Token {
	begins := l.index
	for !l.isCompleted() {
		r, size := l.peekRune()
		if !unicode.IsSpace(r) {
			break
		}
		l.index += size
	}
	return newToken(WhitespaceToken, begins, l.source[begins:l.index])
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
