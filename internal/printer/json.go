package printer

import (
	"github.com/karupanerura/aromat/internal/expression"
	"github.com/samber/lo"
)

// JSONNode mirrors a syntax tree node for encoding. Position, Text and Value
// are only set for tokens.
type JSONNode struct {
	Kind        string      `json:"kind"`
	Position    *int        `json:"position,omitempty"`
	Text        *string     `json:"text,omitempty"`
	Value       *float64    `json:"value,omitempty"`
	Synthesized bool        `json:"synthesized,omitempty"`
	Children    []*JSONNode `json:"children,omitempty"`
}

func NewJSONNode(node expression.Node) *JSONNode {
	n := &JSONNode{Kind: node.Kind().String()}
	if tok, ok := node.(expression.Token); ok {
		n.Position = lo.ToPtr(tok.Position())
		if tok.IsSynthesized() {
			n.Synthesized = true
		} else {
			n.Text = lo.ToPtr(tok.Text())
		}
		if v := tok.Value(); v.Valid {
			n.Value = lo.ToPtr(v.Float64)
		}
		return n
	}

	n.Children = lo.Map(node.Children(), func(child expression.Node, _ int) *JSONNode {
		return NewJSONNode(child)
	})
	return n
}
