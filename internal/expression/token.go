package expression

import "fmt"

// Kind classifies both tokens and expression nodes. The two groups never
// share a value.
type Kind int

const (
	NumberToken Kind = iota
	WhitespaceToken
	PlusToken
	MinusToken
	StarToken
	SlashToken
	OpenParenthesisToken
	CloseParenthesisToken
	BadToken
	EndOfFileToken

	NumberExpression
	ParenthesizedExpression
	BinaryExpression
)

var kindNames = map[Kind]string{
	NumberToken:             "NumberToken",
	WhitespaceToken:         "WhitespaceToken",
	PlusToken:               "PlusToken",
	MinusToken:              "MinusToken",
	StarToken:               "StarToken",
	SlashToken:              "SlashToken",
	OpenParenthesisToken:    "OpenParenthesisToken",
	CloseParenthesisToken:   "CloseParenthesisToken",
	BadToken:                "BadToken",
	EndOfFileToken:          "EndOfFileToken",
	NumberExpression:        "NumberExpression",
	ParenthesizedExpression: "ParenthesizedExpression",
	BinaryExpression:        "BinaryExpression",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) IsToken() bool {
	return NumberToken <= k && k <= EndOfFileToken
}

// NullNumber is the numeric payload of a token. Valid is true only for number
// literals whose text was parsed successfully.
type NullNumber struct {
	Float64 float64
	Valid   bool
}

func validNumber(v float64) NullNumber {
	return NullNumber{Float64: v, Valid: true}
}

// Token is the smallest lexical unit. Tokens are produced by the scanner or
// synthesized by the parser during error recovery, and never change after.
type Token struct {
	kind     Kind
	position int
	text     string
	value    NullNumber
}

var _ Node = Token{}

func newToken(kind Kind, position int, text string) Token {
	return Token{kind: kind, position: position, text: text}
}

func (t Token) Kind() Kind {
	return t.kind
}

// Position is a byte offset into the scanned line.
func (t Token) Position() int {
	return t.position
}

// Text is the raw lexeme. It is empty for synthesized tokens.
func (t Token) Text() string {
	return t.text
}

func (t Token) Value() NullNumber {
	return t.value
}

// IsSynthesized reports whether the parser made this token up to recover from
// a missing one.
func (t Token) IsSynthesized() bool {
	return t.text == "" && t.kind != BadToken
}

func (t Token) Children() []Node {
	return nil
}

func (t Token) String() string {
	if t.value.Valid {
		return fmt.Sprintf("%s(%q at %d: %v)", t.kind, t.text, t.position, t.value.Float64)
	}
	return fmt.Sprintf("%s(%q at %d)", t.kind, t.text, t.position)
}
