package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"neptune/internal/calc"
	"neptune/internal/evaluator"
	"neptune/internal/tokenizer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	trace   bool
	threads int
)

// calcCmd evaluates expressions without booting
var calcCmd = &cobra.Command{
	Use:   "calc [expression...]",
	Short: "Evaluate arithmetic expressions",
	Long: `Evaluates each argument as a separate expression. Without arguments,
expressions are read from standard input, one per line.

Examples:
  neptune calc "1+2*3" "round(2.6)"
  neptune calc --trace "(1+2)*3"
  seq 1 100 | neptune calc --threads 8`,
	RunE: runCalc,
}

// tokensCmd prints the token stream of an expression
var tokensCmd = &cobra.Command{
	Use:   "tokens [expression]",
	Short: "Show how an expression is tokenized",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTokens,
}

func runCalc(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	exprs := args
	if len(exprs) == 0 {
		var err error
		if exprs, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	if trace {
		return traceAll(out, exprs)
	}

	n := threads
	if n <= 0 {
		n = cfg.Kernel.MaxThreadsPerProcess
	}
	logger.Debug("evaluating", zap.Int("expressions", len(exprs)), zap.Int("threads", n))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := calc.EvaluateAll(ctx, exprs, n)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !printResult(out, r.Result, r.Err) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(results))
	}
	return nil
}

// traceAll evaluates sequentially, drawing every evaluator step.
func traceAll(out io.Writer, exprs []string) error {
	c := calc.New(evaluator.WithTracer(func(st evaluator.Step) {
		_ = st.Draw(out)
		fmt.Fprintln(out)
	}))

	failed := 0
	for _, expr := range exprs {
		res, err := c.Evaluate(expr)
		if !printResult(out, res, err) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(exprs))
	}
	return nil
}

// printResult reports one evaluation and whether it succeeded.
func printResult(out io.Writer, res calc.Result, err error) bool {
	for _, d := range res.Diagnostics {
		fmt.Fprintln(out, d)
	}
	if err != nil {
		fmt.Fprintf(out, "%s: ", res.Expression)
		_ = calc.HighlightError(out, res.Expression, err, 2)
		return false
	}
	fmt.Fprintf(out, "%s = %s\n", res.Expression, calc.FormatValue(res.Value))
	return true
}

func runTokens(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	expr := joinArgs(args)
	if tokenizer.StripWhitespace(expr) == "" {
		return calc.ErrEmptyExpression
	}

	tokens, err := tokenizer.Tokenize(expr)
	if err != nil {
		_ = calc.HighlightError(out, expr, err, 2)
		return err
	}
	for i, tok := range tokens {
		fmt.Fprintf(out, "%3d  %-20s %s\n", i, tok.Type.String(), tok.String())
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expressions: %w", err)
	}
	return lines, nil
}
