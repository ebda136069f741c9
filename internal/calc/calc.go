// Package calc runs the expression pipeline over whole lines and reports the
// outcome in a form shared by the CLI, the REPL and the HTTP API.
package calc

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/karupanerura/aromat/internal/expression"
	"github.com/karupanerura/aromat/internal/printer"
	"github.com/karupanerura/aromat/internal/types"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateSucceeded State = "SUCCEEDED"
	StateInvalid   State = "INVALID"
	StateFailed    State = "FAILED"
)

type Evaluation struct {
	Expression  string                 `json:"expression"`
	State       State                  `json:"state"`
	Result      *float64               `json:"result,omitempty"`
	Diagnostics []string               `json:"diagnostics,omitempty"`
	Error       any                    `json:"error,omitempty"`
	Tree        *printer.JSONNode      `json:"tree,omitempty"`
	Syntax      *expression.SyntaxTree `json:"-"`
	Err         error                  `json:"-"`
}

// Succeeded is a shorthand for State == StateSucceeded.
func (e *Evaluation) Succeeded() bool {
	return e.State == StateSucceeded
}

// Evaluate parses and, when the line has no diagnostics, evaluates text.
func Evaluate(text string, withTree bool) *Evaluation {
	tree := expression.ParseLine(text)
	ev := &Evaluation{
		Expression: text,
		Syntax:     tree,
	}
	if withTree {
		ev.Tree = printer.NewJSONNode(tree.Root)
	}

	if tree.Diagnostics.Len() != 0 {
		ev.State = StateInvalid
		ev.Diagnostics = tree.Diagnostics.Messages()
		ev.Err = tree.Diagnostics.Err()
		return ev
	}

	v, err := expression.Evaluate(tree.Root)
	if err != nil {
		ev.State = StateFailed
		ev.Err = err
		ev.Error = types.AsException(err).Exception()
		return ev
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		ev.State = StateFailed
		ev.Err = &types.Error{
			Tag: types.OverflowErrorTag,
			Err: fmt.Errorf("result %v is out of range", v),
		}
		ev.Error = types.AsException(ev.Err).Exception()
		return ev
	}

	ev.State = StateSucceeded
	ev.Result = &v
	return ev
}

// EvaluateAll evaluates every line independently, running at most
// parallelism lines at once (no limit when parallelism <= 0). The results keep
// the order of texts. Only cancellation of ctx makes it fail.
func EvaluateAll(ctx context.Context, texts []string, parallelism int, withTree bool) ([]*Evaluation, error) {
	results := make([]*Evaluation, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		eg.SetLimit(parallelism)
	}
	for i, text := range texts {
		i, text := i, text
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Evaluate(text, withTree)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("evaluation interrupted: %w", err)
		}
		return nil, err
	}
	return results, nil
}
