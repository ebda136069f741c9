// Package repl implements the interactive read-evaluate-print loop.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/karupanerura/aromat/internal/calc"
	"github.com/karupanerura/aromat/internal/printer"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
)

const (
	showTreeCommand    = "#showTree"
	clearScreenCommand = "#cls"

	clearScreenSequence = "\x1b[2J\x1b[H"
)

// LineReader is the part of *liner.State the shell needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

var _ LineReader = (*liner.State)(nil)

type Shell struct {
	In       LineReader
	Out      io.Writer
	Prompt   string
	ShowTree bool
	Color    bool
	Logger   zerolog.Logger

	treeColor  *color.Color
	errorColor *color.Color
}

// Run reads lines until a blank line, EOF or Ctrl-C.
func (s *Shell) Run() error {
	s.treeColor = s.newColor(color.FgHiBlack)
	s.errorColor = s.newColor(color.FgRed)

	for {
		line, err := s.In.Prompt(s.Prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		} else if err != nil {
			return fmt.Errorf("liner.Prompt: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			return nil
		}
		s.In.AppendHistory(line)

		if err = s.handle(line); err != nil {
			return err
		}
	}
}

func (s *Shell) newColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if s.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (s *Shell) handle(line string) error {
	switch strings.TrimSpace(line) {
	case showTreeCommand:
		s.ShowTree = !s.ShowTree
		if s.ShowTree {
			return s.println("Showing parse trees")
		}
		return s.println("Not showing parse trees")

	case clearScreenCommand:
		_, err := io.WriteString(s.Out, clearScreenSequence)
		return err
	}

	ev := calc.Evaluate(line, false)
	s.Logger.Debug().Str("expression", line).Str("state", string(ev.State)).Msg("evaluated")

	if s.ShowTree {
		var b strings.Builder
		if err := printer.PrettyPrint(&b, ev.Syntax.Root); err != nil {
			return err
		}
		if _, err := s.treeColor.Fprint(s.Out, b.String()); err != nil {
			return fmt.Errorf("print tree: %w", err)
		}
	}

	switch ev.State {
	case calc.StateInvalid:
		for _, d := range ev.Diagnostics {
			if _, err := s.errorColor.Fprintln(s.Out, d); err != nil {
				return fmt.Errorf("print diagnostic: %w", err)
			}
		}
		return nil

	case calc.StateFailed:
		if _, err := s.errorColor.Fprintln(s.Out, ev.Err.Error()); err != nil {
			return fmt.Errorf("print error: %w", err)
		}
		return nil

	default:
		return s.println("RESULT: " + printer.FormatNumber(*ev.Result))
	}
}

func (s *Shell) println(msg string) error {
	_, err := fmt.Fprintln(s.Out, msg)
	return err
}
