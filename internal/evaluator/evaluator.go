// Package evaluator computes the value of a token stream with the
// shunting-yard algorithm over two cellars: operators and operands.
//
// Numbers go straight to the operand cellar. An incoming binary operator or
// comma first evaluates every operator on top of the operator cellar whose
// precedence is not lower than its own, so equal precedence associates to the
// left (power included). A closing parenthesis evaluates down to the matching
// open parenthesis and, if that parenthesis opened a function call, applies
// the function to the top operand.
package evaluator

import (
	"fmt"
	"math"

	"neptune/internal/logging"
	"neptune/internal/stack"
	"neptune/internal/tokenizer"

	"go.uber.org/zap"
)

const cellarCapacity = 100

// precedence is deliberately independent of the TokenType values.
var precedence = map[tokenizer.TokenType]int{
	tokenizer.Comma:  0,
	tokenizer.Add:    1,
	tokenizer.Sub:    1,
	tokenizer.Mul:    2,
	tokenizer.Div:    2,
	tokenizer.Mod:    2,
	tokenizer.Pow:    3,
	tokenizer.Negate: 4,
}

// Precedence returns the binding strength of an operator or comma.
func Precedence(t tokenizer.TokenType) (int, bool) {
	p, ok := precedence[t]
	return p, ok
}

// Option configures an Sft.
type Option func(*Sft)

// WithFunction registers (or replaces) a callable function.
func WithFunction(name string, fn Function) Option {
	return func(s *Sft) {
		s.functions[name] = fn
	}
}

// WithTracer installs a step tracer, see SetTracer.
func WithTracer(fn func(Step)) Option {
	return func(s *Sft) {
		s.tracer = fn
	}
}

// Sft is a shunting-yard evaluator. It is reusable across calls but must not
// be shared between goroutines.
type Sft struct {
	operators *stack.Stack[tokenizer.Token]
	operands  *stack.Stack[float64]
	functions map[string]Function

	diagnostics []string
	tracer      func(Step)
	tokens      tokenizer.TokenArray
	index       int

	logger *zap.Logger
}

// New returns an evaluator knowing the built-in functions.
func New(opts ...Option) *Sft {
	s := &Sft{
		operators: stack.WithCapacity[tokenizer.Token](cellarCapacity),
		operands:  stack.WithCapacity[float64](cellarCapacity),
		functions: Builtins(),
		logger:    logging.Get(logging.CategoryEvaluator),
	}
	// Discarding a call parenthesis releases its function name.
	s.operators.SetCleanup(func(t *tokenizer.Token) { t.Func = "" })

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTracer installs fn to be called after every cellar mutation. A nil fn
// disables tracing.
func (s *Sft) SetTracer(fn func(Step)) {
	s.tracer = fn
}

// Diagnostics returns the non-fatal notices of the last Evaluate call, such
// as calls to unknown functions.
func (s *Sft) Diagnostics() []string {
	return s.diagnostics
}

// Operands returns the operand cellar as left by the last Evaluate call,
// bottom to top.
func (s *Sft) Operands() []float64 {
	return append([]float64(nil), s.operands.Items()...)
}

// Reset clears both cellars and the diagnostics.
func (s *Sft) Reset() {
	s.operators.ReClear()
	s.operands.Clear()
	s.diagnostics = nil
	s.tokens = nil
	s.index = 0
}

// Evaluate computes the value of tokens. The result is the top of the operand
// cellar once every operator has been evaluated.
func (s *Sft) Evaluate(tokens tokenizer.TokenArray) (float64, error) {
	s.Reset()
	s.tokens = tokens

	for i, tok := range tokens {
		s.index = i

		switch {
		case tok.Type == tokenizer.Number:
			s.operands.Push(tok.Value)
			s.trace("push number")

		case tok.Type.IsOperator() || tok.Type == tokenizer.Comma:
			// A negation drains a pending one, so "~~2" lacks an operand.
			if err := s.drainFor(tok); err != nil {
				return 0, err
			}
			s.operators.Push(tok)
			s.trace("push operator")

		case tok.Type == tokenizer.OpenParen:
			s.operators.Push(tok)
			s.trace("push operator")

		case tok.Type == tokenizer.CloseParen:
			if err := s.closeParen(tok); err != nil {
				return 0, err
			}

		default:
			return 0, &Error{
				Message:  fmt.Sprintf("invalid expression, unexpected token '%s'", tok.String()),
				Operator: tok,
			}
		}
	}

	s.index = len(tokens)
	for !s.operators.Empty() {
		if top := s.operators.Peek(); top.Type == tokenizer.OpenParen {
			return 0, unmatched(*top)
		}
		op, _ := s.operators.Pop()
		if err := s.apply(op); err != nil {
			return 0, err
		}
	}

	result := s.operands.Peek()
	if result == nil {
		return 0, &Error{Message: "invalid expression, no result"}
	}
	s.trace("result")
	return *result, nil
}

// drainFor evaluates the operators that bind at least as tightly as incoming.
func (s *Sft) drainFor(incoming tokenizer.Token) error {
	in := precedence[incoming.Type]
	for {
		top := s.operators.Peek()
		if top == nil || top.Type == tokenizer.OpenParen {
			return nil
		}
		if precedence[top.Type] < in {
			return nil
		}
		op, _ := s.operators.Pop()
		if err := s.apply(op); err != nil {
			return err
		}
	}
}

// closeParen evaluates down to the matching open parenthesis, applies its
// function if it has one, and discards it.
func (s *Sft) closeParen(closing tokenizer.Token) error {
	for {
		top := s.operators.Peek()
		if top == nil {
			return unmatched(closing)
		}

		if top.Type == tokenizer.OpenParen {
			if top.IsCall() {
				if err := s.call(*top); err != nil {
					return err
				}
			}
			s.operators.RePop(nil)
			s.trace("discard parenthesis")
			return nil
		}

		op, _ := s.operators.Pop()
		if err := s.apply(op); err != nil {
			return err
		}
	}
}

func (s *Sft) call(paren tokenizer.Token) error {
	fn, ok := s.functions[paren.Func]
	if !ok {
		msg := fmt.Sprintf("No such function '%s'", paren.Func)
		s.diagnostics = append(s.diagnostics, msg)
		s.logger.Warn("unknown function", zap.String("name", paren.Func))
		return nil
	}

	arg, ok := s.operands.Pop()
	if !ok {
		return missingOperand(paren, "argument")
	}
	s.operands.Push(fn(arg))
	s.trace("call " + paren.Func)
	return nil
}

// apply evaluates one operator popped from the operator cellar.
func (s *Sft) apply(op tokenizer.Token) error {
	s.trace("pop operator")

	var result float64
	switch {
	case op.Type.IsBinary():
		num2, ok := s.operands.Pop()
		if !ok {
			return missingOperand(op, "num2")
		}
		num1, ok := s.operands.Pop()
		if !ok {
			return missingOperand(op, "num1")
		}
		v, err := binary(op, num1, num2)
		if err != nil {
			return err
		}
		result = v

	case op.Type.IsUnary():
		num, ok := s.operands.Pop()
		if !ok {
			return missingOperand(op, "num")
		}
		result = -num

	default:
		// A comma only separates; it has no operands.
		return nil
	}

	s.operands.Push(result)
	s.trace("push result")
	return nil
}

func binary(op tokenizer.Token, num1, num2 float64) (float64, error) {
	switch op.Type {
	case tokenizer.Add:
		return num1 + num2, nil
	case tokenizer.Sub:
		return num1 - num2, nil
	case tokenizer.Div:
		return num1 / num2, nil
	case tokenizer.Mul:
		return num1 * num2, nil
	case tokenizer.Pow:
		return math.Pow(num1, num2), nil
	case tokenizer.Mod:
		d := uint64(num2)
		if d == 0 {
			return 0, &Error{Message: "invalid expression, modulo by zero", Operator: op}
		}
		return float64(uint64(num1) % d), nil
	}
	return 0, &Error{Message: fmt.Sprintf("invalid expression, unknown operator '%s'", op.String()), Operator: op}
}

func (s *Sft) trace(action string) {
	if s.tracer == nil {
		return
	}
	s.tracer(Step{
		Action:    action,
		Index:     s.index,
		Tokens:    s.tokens,
		Operators: append([]tokenizer.Token(nil), s.operators.Items()...),
		Operands:  append([]float64(nil), s.operands.Items()...),
	})
}
