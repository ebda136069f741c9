package expression

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScan(t *testing.T) {
	t.Parallel()

	eof := func(pos int) Token {
		return Token{kind: EndOfFileToken, position: pos, text: endOfFileText}
	}
	num := func(pos int, text string, v float64) Token {
		return Token{kind: NumberToken, position: pos, text: text, value: validNumber(v)}
	}

	for _, tt := range []struct {
		source      string
		tokens      []Token
		diagnostics []string
	}{
		{
			source: "",
			tokens: []Token{eof(0)},
		},
		{
			source: "42",
			tokens: []Token{num(0, "42", 42), eof(2)},
		},
		{
			source: "1,000,000",
			tokens: []Token{num(0, "1,000,000", 1000000), eof(9)},
		},
		{
			source: "1+2",
			tokens: []Token{
				num(0, "1", 1),
				{kind: PlusToken, position: 1, text: "+"},
				num(2, "2", 2),
				eof(3),
			},
		},
		{
			source: " \t(3 )",
			tokens: []Token{
				{kind: WhitespaceToken, position: 0, text: " \t"},
				{kind: OpenParenthesisToken, position: 2, text: "("},
				num(3, "3", 3),
				{kind: WhitespaceToken, position: 4, text: " "},
				{kind: CloseParenthesisToken, position: 5, text: ")"},
				eof(6),
			},
		},
		{
			source: "-*/",
			tokens: []Token{
				{kind: MinusToken, position: 0, text: "-"},
				{kind: StarToken, position: 1, text: "*"},
				{kind: SlashToken, position: 2, text: "/"},
				eof(3),
			},
		},
		{
			source: "1 & 2",
			tokens: []Token{
				num(0, "1", 1),
				{kind: WhitespaceToken, position: 1, text: " "},
				{kind: BadToken, position: 2, text: "&"},
				{kind: WhitespaceToken, position: 3, text: " "},
				num(4, "2", 2),
				eof(5),
			},
			diagnostics: []string{"Error bad Character input : &"},
		},
		{
			source: "π1",
			tokens: []Token{
				{kind: BadToken, position: 0, text: "π"},
				num(2, "1", 1),
				eof(3),
			},
			diagnostics: []string{"Error bad Character input : π"},
		},
		{
			source: "1.5",
			tokens: []Token{
				num(0, "1", 1),
				{kind: BadToken, position: 1, text: "."},
				num(2, "5", 5),
				eof(3),
			},
			diagnostics: []string{"Error bad Character input : ."},
		},
		{
			source: "1 2",
			tokens: []Token{
				num(0, "1", 1),
				{kind: WhitespaceToken, position: 1, text: " "},
				num(2, "2", 2),
				eof(3),
			},
		},
	} {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			tokens, diagnostics := Scan(tt.source)
			if diff := cmp.Diff(tt.tokens, tokens, cmp.AllowUnexported(Token{})); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.diagnostics, diagnostics.Messages()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanNumberOutOfRange(t *testing.T) {
	t.Parallel()

	source := strings.Repeat("9", 400)
	tokens, diagnostics := Scan(source)
	if len(tokens) != 2 {
		t.Fatalf("expect 2 tokens but got %d", len(tokens))
	}

	tok := tokens[0]
	if tok.Kind() != NumberToken || tok.Text() != source {
		t.Errorf("unexpected token: %v", tok)
	}
	if tok.Value().Valid {
		t.Errorf("out of range literal must not carry a value: %v", tok.Value())
	}
	if diff := cmp.Diff([]string{"ERROR " + source + " is not a number"}, diagnostics.Messages()); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestScanAlwaysEndsWithEndOfFile(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"", "1", "((", "@@@", "1,,2", "\x80", "   "} {
		tokens, _ := Scan(source)
		var eofs int
		for _, tok := range tokens {
			if tok.Kind() == EndOfFileToken {
				eofs++
			}
		}
		if eofs != 1 || tokens[len(tokens)-1].Kind() != EndOfFileToken {
			t.Errorf("%q: expect exactly one trailing EndOfFileToken: %v", source, tokens)
		}
		if last := tokens[len(tokens)-1]; last.Position() != len(source) {
			t.Errorf("%q: EndOfFileToken at %d", source, last.Position())
		}
	}
}

func TestFilterTokens(t *testing.T) {
	t.Parallel()

	tokens, _ := Scan(" 1 ? + $2 ")
	got := FilterTokens(tokens)

	kinds := make([]Kind, len(got))
	for i, tok := range got {
		kinds[i] = tok.Kind()
	}
	if diff := cmp.Diff([]Kind{NumberToken, PlusToken, NumberToken, EndOfFileToken}, kinds); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got[2].Value() != validNumber(2) {
		t.Errorf("unexpected value: %v", got[2])
	}
}
