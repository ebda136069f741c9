package expression

import (
	"fmt"

	"github.com/karupanerura/aromat/internal/types"
)

// Evaluate computes the value of root. It must only be called on trees built
// without diagnostics; number tokens without a value are reported as a
// ValueError instead of being treated as zero.
//
// Evaluation recurses once per nesting level, so the depth of the tree is
// limited only by the goroutine stack.
func Evaluate(root ExpressionNode) (float64, error) {
	switch n := root.(type) {
	case *NumberNode:
		v := n.Number.Value()
		if !v.Valid {
			return 0, &types.Error{
				Tag: types.ValueErrorTag,
				Err: fmt.Errorf("number literal %q at %d has no value", n.Number.Text(), n.Number.Position()),
			}
		}
		return v.Float64, nil

	case *ParenthesizedNode:
		return Evaluate(n.Expression)

	case *BinaryNode:
		return evaluateBinary(n)

	default:
		panic(fmt.Sprintf("should not reach here: unexpected expression node %T", root))
	}
}

func evaluateBinary(n *BinaryNode) (float64, error) {
	op := n.Operator
	left, err := Evaluate(n.Left)
	if err != nil {
		return 0, fmt.Errorf("left of operator %q: %w", op.Text(), err)
	}

	right, err := Evaluate(n.Right)
	if err != nil {
		return 0, fmt.Errorf("right of operator %q: %w", op.Text(), err)
	}

	switch op.Kind() {
	case PlusToken:
		return left + right, nil
	case MinusToken:
		return left - right, nil
	case StarToken:
		return left * right, nil
	case SlashToken:
		if right == 0 {
			return 0, &types.Error{
				Tag: types.ZeroDivisionErrorTag,
				Err: fmt.Errorf("division by zero at %d", op.Position()),
			}
		}
		return left / right, nil
	default:
		panic(fmt.Sprintf("should not reach here: unexpected binary operator %s", op.Kind()))
	}
}
