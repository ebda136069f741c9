package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/aromat/internal/calc"
	"github.com/karupanerura/aromat/internal/config"
	"github.com/karupanerura/aromat/internal/printer"
	"github.com/karupanerura/aromat/internal/repl"
	"github.com/karupanerura/aromat/internal/server"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
)

type Option struct {
	Expressions []string `short:"e" long:"expression" description:"[OPTIONAL] Expression to evaluate (repeatable)"`
	File        string   `short:"f" long:"file" description:"[OPTIONAL] File with one expression per line (- for stdin)"`
	Listen      string   `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve the HTTP API"`
	Config      string   `short:"c" long:"config" description:"[OPTIONAL] YAML config file"`
	Audience    string   `long:"audience" description:"[OPTIONAL] Require Google ID tokens issued for this audience"`
	Tree        string   `long:"tree" description:"[OPTIONAL] Print parse trees" choice:"show" choice:"hide"`
	JSON        bool     `long:"json" description:"[OPTIONAL] Print batch results as JSON"`
	Parallelism int      `long:"parallelism" description:"[OPTIONAL] Maximum number of expressions evaluated at once"`
	LogLevel    string   `long:"log-level" description:"[OPTIONAL] Log level (debug, info, warn, error)"`
	Color       string   `long:"color" description:"[OPTIONAL] Color output" choice:"auto" choice:"always" choice:"never"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(stdout)
			return 0
		}
		fmt.Fprintln(stderr, err)
		parser.WriteHelp(stderr)
		return 1
	}

	cfg, err := loadConfig(&opt)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	logger := newLogger(stderr, cfg.LogLevel)

	switch {
	case cfg.Listen != "":
		if len(opt.Expressions) != 0 || opt.File != "" {
			parser.WriteHelp(stderr)
			return 1
		}
		if err = serve(cfg, logger); err != nil {
			logger.Error().Err(err).Msg("failed to serve")
			return 1
		}
		return 0

	case len(opt.Expressions) != 0 || opt.File != "":
		lines, err := readExpressions(&opt, stdin)
		if err != nil {
			logger.Error().Err(err).Msg("failed to read expressions")
			return 1
		}
		return evaluateBatch(cfg, logger, lines, opt.JSON, stdout)

	default:
		if err = interact(cfg, logger, stdout); err != nil {
			logger.Error().Err(err).Msg("interactive session failed")
			return 1
		}
		return 0
	}
}

func loadConfig(opt *Option) (*config.Config, error) {
	cfg := config.Default()
	if opt.Config != "" {
		var err error
		if cfg, err = config.LoadFile(opt.Config); err != nil {
			return nil, err
		}
	}

	if opt.Listen != "" {
		cfg.Listen = opt.Listen
	}
	if opt.Audience != "" {
		cfg.Audience = opt.Audience
	}
	if opt.Tree != "" {
		cfg.ShowTree = opt.Tree == "show"
	}
	if opt.Parallelism != 0 {
		cfg.Parallelism = opt.Parallelism
	}
	if opt.LogLevel != "" {
		cfg.LogLevel = opt.LogLevel
	}
	if opt.Color != "" {
		cfg.Color = config.ColorMode(opt.Color)
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, logLevel string) zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}).
		With().Timestamp().Logger().
		Level(level)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func useColor(mode config.ColorMode, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isTerminal(w)
	}
}

func readExpressions(opt *Option, stdin io.Reader) ([]string, error) {
	lines := append([]string{}, opt.Expressions...)
	if opt.File == "" {
		return lines, nil
	}

	var r io.Reader = stdin
	if opt.File != "-" {
		f, err := os.Open(opt.File)
		if err != nil {
			return nil, fmt.Errorf("os.Open(%q): %w", opt.File, err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("bufio.Scanner: %w", err)
	}
	return lines, nil
}

func evaluateBatch(cfg *config.Config, logger zerolog.Logger, lines []string, asJSON bool, stdout io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	evs, err := calc.EvaluateAll(ctx, lines, cfg.Parallelism, asJSON && cfg.ShowTree)
	if err != nil {
		logger.Error().Err(err).Msg("failed to evaluate expressions")
		return 1
	}

	code := 0
	for _, ev := range evs {
		if !ev.Succeeded() {
			logger.Debug().Str("expression", ev.Expression).Str("state", string(ev.State)).Msg("not evaluated")
			code = 1
		}
	}

	if asJSON {
		if err = dumpJSON(stdout, evs, useColor(cfg.Color, stdout)); err != nil {
			logger.Error().Err(err).Msg("failed to dump results")
			return 1
		}
		return code
	}

	for _, ev := range evs {
		if cfg.ShowTree {
			if err = printer.PrettyPrint(stdout, ev.Syntax.Root); err != nil {
				logger.Error().Err(err).Msg("failed to print tree")
				return 1
			}
		}
		switch ev.State {
		case calc.StateSucceeded:
			fmt.Fprintln(stdout, printer.FormatNumber(*ev.Result))
		case calc.StateInvalid:
			for _, d := range ev.Diagnostics {
				fmt.Fprintln(stdout, d)
			}
		default:
			fmt.Fprintln(stdout, ev.Err)
		}
	}
	return code
}

func interact(cfg *config.Config, logger zerolog.Logger, stdout io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	shell := &repl.Shell{
		In:       ln,
		Out:      stdout,
		Prompt:   cfg.Prompt,
		ShowTree: cfg.ShowTree,
		Color:    useColor(cfg.Color, stdout),
		Logger:   logger,
	}
	return shell.Run()
}

func serve(cfg *config.Config, logger zerolog.Logger) error {
	handler := server.NewHTTPHandler(server.Options{
		Logger:      logger,
		Parallelism: cfg.Parallelism,
		Audience:    cfg.Audience,
	})

	srv := http.Server{
		Handler:           handler,
		Addr:              cfg.Listen,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to shut down")
		}
	}()

	logger.Info().Str("listen", cfg.Listen).Msg("listen HTTP")
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func dumpJSON(w io.Writer, v any, colorize bool) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if colorize {
		opts = append(opts, json.Colorize(json.DefaultColorScheme))
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
