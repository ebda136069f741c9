package expression

import (
	"fmt"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/samber/lo"
)

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("AROMAT_EXPRESSION_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

// SyntaxTree is the result of parsing one line. Diagnostics hold the scanner's
// findings followed by the parser's. Root is always a complete tree, even when
// diagnostics were reported.
type SyntaxTree struct {
	Diagnostics Diagnostics
	Root        ExpressionNode
	EndOfFile   Token
}

// Evaluate computes the value of a tree that has no diagnostics. Otherwise it
// returns a *DiagnosticsError without evaluating anything.
func (t *SyntaxTree) Evaluate() (float64, error) {
	if err := t.Diagnostics.Err(); err != nil {
		return 0, err
	}
	return Evaluate(t.Root)
}

// ParseLine runs the scanner and the parser over a single line of input.
func ParseLine(text string) *SyntaxTree {
	return parseLine(text, parserDebugLog)
}

func ParseLineWithDebugOutput(text string) *SyntaxTree {
	return parseLine(text, true)
}

func parseLine(text string, debug bool) *SyntaxTree {
	tokens, diagnostics := Scan(text)
	tokens = FilterTokens(tokens)
	if debug {
		pp.Fprintln(os.Stderr, text)
		pp.Fprintln(os.Stderr, tokens)
	}

	tree := Parse(tokens)
	tree.Diagnostics = append(diagnostics, tree.Diagnostics...)
	if debug {
		pp.Fprintln(os.Stderr, tree)
	}
	return tree
}

// FilterTokens drops whitespace and bad tokens, keeping the order of the rest.
func FilterTokens(tokens []Token) []Token {
	return lo.Filter(tokens, func(tok Token, _ int) bool {
		return tok.kind != WhitespaceToken && tok.kind != BadToken
	})
}

// Parse builds a syntax tree from filtered tokens. The returned tree carries
// only the parser's own diagnostics.
func Parse(tokens []Token) *SyntaxTree {
	if len(tokens) == 0 || tokens[len(tokens)-1].kind != EndOfFileToken {
		panic(fmt.Sprintf("should not reach here: token stream must end with %s", EndOfFileToken))
	}

	p := &parser{tokens: tokens}
	root := p.parseTerm()
	eof := p.match(EndOfFileToken)
	return &SyntaxTree{
		Diagnostics: p.diagnostics,
		Root:        root,
		EndOfFile:   eof,
	}
}

type parser struct {
	tokens      []Token
	position    int
	diagnostics Diagnostics
}

// peek never runs past the final EndOfFileToken.
func (p *parser) peek(offset int) Token {
	i := p.position + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *parser) current() Token {
	return p.peek(0)
}

func (p *parser) advance() Token {
	tok := p.current()
	p.position++
	return tok
}

func (p *parser) match(kind Kind) Token {
	if tok := p.current(); tok.kind == kind {
		return p.advance()
	}

	tok := p.current()
	p.diagnostics.report(tok.position, "ERROR: Unexpected token: <%s>, expected <%s>", tok.kind, kind)
	return newToken(kind, tok.position, "")
}

func (p *parser) parseExpression() ExpressionNode {
	return p.parseTerm()
}

func (p *parser) parseTerm() ExpressionNode {
	left := p.parseFactor()
	for k := p.current().kind; k == PlusToken || k == MinusToken; k = p.current().kind {
		op := p.advance()
		right := p.parseFactor()
		left = &BinaryNode{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *parser) parseFactor() ExpressionNode {
	left := p.parsePrimary()
	for k := p.current().kind; k == StarToken || k == SlashToken; k = p.current().kind {
		op := p.advance()
		right := p.parsePrimary()
		left = &BinaryNode{Left: left, Operator: op, Right: right}
	}
	return left
}

func (p *parser) parsePrimary() ExpressionNode {
	if p.current().kind == OpenParenthesisToken {
		open := p.advance()
		expr := p.parseExpression()
		return &ParenthesizedNode{
			Open:       open,
			Expression: expr,
			Close:      p.match(CloseParenthesisToken),
		}
	}

	return &NumberNode{Number: p.match(NumberToken)}
}
