package expression

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Diagnostic is a problem found while scanning or parsing. It never stops the
// pipeline.
type Diagnostic struct {
	Position int
	Message  string
}

func (d Diagnostic) String() string {
	return d.Message
}

// Diagnostics are kept in detection order.
type Diagnostics []Diagnostic

func (ds *Diagnostics) report(position int, format string, args ...any) {
	*ds = append(*ds, Diagnostic{Position: position, Message: fmt.Sprintf(format, args...)})
}

func (ds Diagnostics) Len() int {
	return len(ds)
}

func (ds Diagnostics) Messages() []string {
	if len(ds) == 0 {
		return nil
	}
	return lo.Map(ds, func(d Diagnostic, _ int) string {
		return d.Message
	})
}

// Err returns nil when there is nothing to report.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return &DiagnosticsError{Diagnostics: ds}
}

type DiagnosticsError struct {
	Diagnostics Diagnostics
}

func (e *DiagnosticsError) Error() string {
	return strings.Join(e.Diagnostics.Messages(), "; ")
}
