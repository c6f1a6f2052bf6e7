// Package calc composes the tokenizer and the evaluator into the calculator
// program: expression in, value or a printable error out.
package calc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"neptune/internal/evaluator"
	"neptune/internal/tokenizer"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyExpression is returned for input that is empty once whitespace is
// stripped.
var ErrEmptyExpression = errors.New("empty expression")

// Result is a successful evaluation.
type Result struct {
	Expression  string
	Value       float64
	Tokens      tokenizer.TokenArray
	Diagnostics []string
}

// Calculator owns one tokenizer and one evaluator and reuses them between
// calls. Not safe for concurrent use; see EvaluateAll.
type Calculator struct {
	tok *tokenizer.Tokenizer
	sft *evaluator.Sft
}

// New returns a Calculator. opts configure its evaluator.
func New(opts ...evaluator.Option) *Calculator {
	return &Calculator{
		tok: tokenizer.New(),
		sft: evaluator.New(opts...),
	}
}

// Evaluator exposes the underlying evaluator, e.g. to install a tracer.
func (c *Calculator) Evaluator() *evaluator.Sft {
	return c.sft
}

// Evaluate tokenizes and evaluates expr. Errors are *tokenizer.Error,
// *evaluator.Error or ErrEmptyExpression.
func (c *Calculator) Evaluate(expr string) (Result, error) {
	res := Result{Expression: expr}
	if tokenizer.StripWhitespace(expr) == "" {
		return res, ErrEmptyExpression
	}

	tokens, err := c.tok.Tokenize(expr)
	if err != nil {
		return res, err
	}
	res.Tokens = tokens

	v, err := c.sft.Evaluate(tokens)
	res.Diagnostics = append([]string(nil), c.sft.Diagnostics()...)
	if err != nil {
		return res, err
	}
	res.Value = v
	return res, nil
}

// Evaluate evaluates expr with a fresh Calculator.
func Evaluate(expr string) (Result, error) {
	return New().Evaluate(expr)
}

// FormatValue renders a result the way the shell prints it.
func FormatValue(v float64) string {
	return fmt.Sprintf("%f", v)
}

// HighlightError writes err for the user. Tokenizer errors echo the
// whitespace-stripped expression with a caret under the offending character;
// other errors are written as their message.
//
//	>  1+01
//	~~~~~ ^
//	leading zero in number is illegal in this context
//	~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
func HighlightError(w io.Writer, expr string, err error, indent int) error {
	var terr *tokenizer.Error
	if !errors.As(err, &terr) {
		_, werr := fmt.Fprintf(w, "%s\n", err.Error())
		return werr
	}

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, ">%s%s\n", strings.Repeat(" ", indent), tokenizer.StripWhitespace(expr))
	fmt.Fprintf(&b, "%s ^\n%s\n", strings.Repeat("~", indent+terr.Index), terr.Message)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("~", len(terr.Message)))

	_, werr := io.WriteString(w, b.String())
	return werr
}

// BatchResult is the outcome of one expression of EvaluateAll.
type BatchResult struct {
	Result
	Err error
}

// EvaluateAll evaluates independent expressions concurrently, at most threads
// at a time, each on its own Calculator. Results are in input order and carry
// their own evaluation errors; the returned error is only set when ctx is
// cancelled.
func EvaluateAll(ctx context.Context, exprs []string, threads int) ([]BatchResult, error) {
	if threads < 1 {
		threads = 1
	}

	results := make([]BatchResult, len(exprs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i, expr := range exprs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := New().Evaluate(expr)
			results[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch evaluation aborted: %w", err)
	}
	return results, nil
}
