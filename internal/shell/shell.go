// Package shell implements the Neptune OS command shell: a line-oriented
// command interpreter with a small prompt state machine for the run wizard,
// usable from a plain REPL or the bubbletea TUI.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"neptune/internal/calc"
	"neptune/internal/history"
	"neptune/internal/kernel"
	"neptune/internal/logging"

	"go.uber.org/zap"
)

// ClearSequence is written by the clear command.
const ClearSequence = "\033[H\033[2J"

// Welcome is the banner printed by Start.
const Welcome = "Welcome to Neptune OS! Type 'help' for a list of commands."

const (
	promptRunChoice     = "Would you like to run a built in program or a custom program? [B/C]: "
	promptProgramChoice = "What program would you like to run: "
	promptExpression    = "Enter expression: "
)

type state int

const (
	stateCommand state = iota
	stateRunChoice
	stateProgramChoice
	stateExpression
)

// Options configures a Shell.
type Options struct {
	Kernel      *kernel.Kernel // required
	History     *history.Store // nil disables history
	HistorySize int            // entries listed by the history command
	Prompt      string         // command prompt; "> " when empty
	Out         io.Writer      // required
	// HelpRenderer, when set, renders the Markdown help page instead of the
	// plain numbered list.
	HelpRenderer func(markdown string) (string, error)
}

// Shell interprets commands. It is not safe for concurrent use.
type Shell struct {
	kernel      *kernel.Kernel
	proc        *kernel.Process
	history     *history.Store
	historySize int
	prompt      string
	out         io.Writer
	renderHelp  func(string) (string, error)
	calc        *calc.Calculator
	state       state
	log         *zap.Logger
}

// New creates a Shell. Start must be called before Execute.
func New(opts Options) *Shell {
	prompt := opts.Prompt
	if prompt == "" {
		prompt = "> "
	}
	size := opts.HistorySize
	if size <= 0 {
		size = 10
	}
	return &Shell{
		kernel:      opts.Kernel,
		history:     opts.History,
		historySize: size,
		prompt:      prompt,
		out:         opts.Out,
		renderHelp:  opts.HelpRenderer,
		calc:        calc.New(),
		log:         logging.Get(logging.CategoryShell),
	}
}

// SetOutput redirects everything the shell prints.
func (s *Shell) SetOutput(w io.Writer) {
	s.out = w
}

// SetHelpRenderer installs or removes the Markdown help renderer.
func (s *Shell) SetHelpRenderer(fn func(markdown string) (string, error)) {
	s.renderHelp = fn
}

// Start registers the shell in the process table and prints the welcome
// banner.
func (s *Shell) Start(ctx context.Context) error {
	if s.proc != nil {
		return nil
	}
	p, err := s.kernel.Start(ctx, "shell")
	if err != nil {
		return err
	}
	s.proc = p
	fmt.Fprintln(s.out, Welcome)
	s.log.Info("shell started", zap.String("pid", p.ID.String()))
	return nil
}

// Close removes the shell from the process table.
func (s *Shell) Close() {
	if s.proc != nil {
		s.proc.Exit()
		s.proc = nil
	}
}

// Prompt returns the text to show before the next line of input.
func (s *Shell) Prompt() string {
	switch s.state {
	case stateRunChoice:
		return promptRunChoice
	case stateProgramChoice:
		return promptProgramChoice
	case stateExpression:
		return promptExpression
	default:
		return s.prompt
	}
}

// Execute handles one line of input. It returns false once the shell has
// been shut down. Errors are internal failures; user mistakes are printed.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	switch s.state {
	case stateRunChoice:
		s.state = stateCommand
		s.runChoice(line)
		return true, nil
	case stateProgramChoice:
		s.state = stateCommand
		s.programChoice(line)
		return true, nil
	case stateExpression:
		s.state = stateCommand
		return true, s.calculate(ctx, strings.ToLower(strings.TrimSpace(line)))
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil
	}
	cmd := strings.ToLower(fields[0])
	s.log.Debug("command", zap.String("cmd", cmd))

	info := FindCommand(cmd)
	if info == nil {
		fmt.Fprintf(s.out, "Unknown command: %s\n", cmd)
		return true, nil
	}

	switch info.Name {
	case "shutdown":
		fmt.Fprintln(s.out, "Shutting down...")
		s.log.Info("shutdown requested")
		return false, nil
	case "processes":
		fmt.Fprintf(s.out, "Processes: %d\n", s.kernel.Count())
	case "help":
		return true, s.help()
	case "run":
		s.state = stateRunChoice
	case "clear":
		io.WriteString(s.out, ClearSequence)
	case "credits":
		io.WriteString(s.out, credits)
	case "history":
		if len(fields) > 1 && strings.EqualFold(fields[1], "clear") {
			return true, s.clearHistory(ctx)
		}
		return true, s.showHistory(ctx)
	case "calc":
		expr := strings.TrimSpace(line[strings.Index(line, fields[0])+len(fields[0]):])
		if expr == "" {
			fmt.Fprintf(s.out, "Usage: %s\n", info.Usage)
			return true, nil
		}
		return true, s.calculate(ctx, strings.ToLower(expr))
	}
	return true, nil
}

func (s *Shell) help() error {
	if s.renderHelp == nil {
		_, err := io.WriteString(s.out, HelpText())
		return err
	}
	rendered, err := s.renderHelp(HelpMarkdown())
	if err != nil {
		s.log.Warn("help rendering failed", zap.Error(err))
		_, err = io.WriteString(s.out, HelpText())
		return err
	}
	_, err = io.WriteString(s.out, rendered)
	return err
}

func (s *Shell) runChoice(line string) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch {
	case strings.HasPrefix(answer, "b"):
		fmt.Fprintln(s.out, "Built in programs:")
		fmt.Fprintln(s.out, "1: Calculator")
		s.state = stateProgramChoice
	case strings.HasPrefix(answer, "c"):
		fmt.Fprintln(s.out, "Custom programs will hopefully be added eventually!")
	default:
		fmt.Fprintln(s.out, "Invalid choice. Please enter 'b' for built in or 'c' for custom.")
	}
}

func (s *Shell) programChoice(line string) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n != 1 {
		s.log.Debug("no such program", zap.String("choice", line))
		return
	}
	s.state = stateExpression
}

// calculate runs the calculator as its own process.
func (s *Shell) calculate(ctx context.Context, expr string) error {
	var (
		res     calc.Result
		evalErr error
	)
	err := s.kernel.Spawn(ctx, "calculator", func(p *kernel.Process) error {
		p.Go(func(context.Context) error {
			res, evalErr = s.calc.Evaluate(expr)
			return nil
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, kernel.ErrProcessLimit) {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return nil
		}
		return err
	}

	if errors.Is(evalErr, calc.ErrEmptyExpression) {
		return nil
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintln(s.out, d)
	}
	if evalErr != nil {
		if err := calc.HighlightError(s.out, expr, evalErr, 2); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(s.out, "Result: %s\n", calc.FormatValue(res.Value))
	}

	return s.record(ctx, res, evalErr)
}

func (s *Shell) record(ctx context.Context, res calc.Result, evalErr error) error {
	if s.history == nil {
		return nil
	}
	entry := history.Entry{Expression: res.Expression, Value: res.Value}
	if evalErr != nil {
		entry.Error = evalErr.Error()
	}
	if _, err := s.history.Record(ctx, entry); err != nil {
		return err
	}
	return nil
}

func (s *Shell) showHistory(ctx context.Context) error {
	if s.history == nil {
		fmt.Fprintln(s.out, "History is disabled.")
		return nil
	}
	entries, err := s.history.Recent(ctx, s.historySize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No calculations yet.")
		return nil
	}
	fmt.Fprintln(s.out, "Recent calculations:")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Failed() {
			fmt.Fprintf(s.out, "  %s ! %s\n", e.Expression, e.Error)
			continue
		}
		fmt.Fprintf(s.out, "  %s = %s\n", e.Expression, calc.FormatValue(e.Value))
	}
	return nil
}

func (s *Shell) clearHistory(ctx context.Context) error {
	if s.history == nil {
		fmt.Fprintln(s.out, "History is disabled.")
		return nil
	}
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "History cleared.")
	return nil
}

// RunLoop reads lines from in until shutdown, end of input or ctx is done.
// Internal errors are printed and the loop goes on. Pass a *bufio.Reader to
// share in with an earlier reader such as kernel.Boot.
func (s *Shell) RunLoop(ctx context.Context, in io.Reader) error {
	r := kernel.AsBufioReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		io.WriteString(s.out, s.Prompt())

		line, readErr := r.ReadString('\n')
		if line == "" && readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", readErr)
		}

		more, err := s.Execute(ctx, strings.TrimRight(line, "\r\n"))
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			s.log.Error("command failed", zap.Error(err))
		}
		if !more {
			return nil
		}
		if readErr != nil {
			return nil
		}
	}
}
