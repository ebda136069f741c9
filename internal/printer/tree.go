// Package printer renders syntax trees for people and for JSON clients.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/karupanerura/aromat/internal/expression"
)

const (
	lastMarker   = "└──"
	middleMarker = "├──"
	lastIndent   = "    "
	middleIndent = "|   "
)

// PrettyPrint writes node and all its descendants, one per line, as a tree.
// Tokens carrying a number are followed by their value.
func PrettyPrint(w io.Writer, node expression.Node) error {
	var b strings.Builder
	prettyPrint(&b, node, "", true)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}

func prettyPrint(b *strings.Builder, node expression.Node, indent string, isLast bool) {
	b.WriteString(indent)
	if isLast {
		b.WriteString(lastMarker)
	} else {
		b.WriteString(middleMarker)
	}
	b.WriteString(node.Kind().String())

	if tok, ok := node.(expression.Token); ok && tok.Value().Valid {
		b.WriteByte(' ')
		b.WriteString(FormatNumber(tok.Value().Float64))
	}
	b.WriteByte('\n')

	if isLast {
		indent += lastIndent
	} else {
		indent += middleIndent
	}

	children := node.Children()
	for i, child := range children {
		prettyPrint(b, child, indent, i == len(children)-1)
	}
}

// FormatNumber prints v with the fewest digits that read back exactly.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
