package expression

// Node is anything that can appear in a syntax tree: tokens and expressions.
type Node interface {
	Kind() Kind
	Children() []Node
}

// ExpressionNode is one of *NumberNode, *ParenthesizedNode or *BinaryNode.
type ExpressionNode interface {
	Node
	expressionNode()
}

type NumberNode struct {
	Number Token
}

func (n *NumberNode) Kind() Kind {
	return NumberExpression
}

func (n *NumberNode) Children() []Node {
	return []Node{n.Number}
}

type ParenthesizedNode struct {
	Open       Token
	Expression ExpressionNode
	Close      Token
}

func (n *ParenthesizedNode) Kind() Kind {
	return ParenthesizedExpression
}

func (n *ParenthesizedNode) Children() []Node {
	return []Node{n.Open, n.Expression, n.Close}
}

type BinaryNode struct {
	Left     ExpressionNode
	Operator Token
	Right    ExpressionNode
}

func (n *BinaryNode) Kind() Kind {
	return BinaryExpression
}

func (n *BinaryNode) Children() []Node {
	return []Node{n.Left, n.Operator, n.Right}
}

func (*NumberNode) expressionNode()        {}
func (*ParenthesizedNode) expressionNode() {}
func (*BinaryNode) expressionNode()        {}
