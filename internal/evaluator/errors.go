package evaluator

import (
	"fmt"

	"neptune/internal/tokenizer"
)

// Error is an evaluation failure. Each call returns its own value; nothing is
// shared with later evaluations.
type Error struct {
	Message string

	// Operator is the operator or function-call token being evaluated when
	// the failure happened, if any.
	Operator tokenizer.Token

	// Missing names the operand slot that was absent: "num1" and "num2" for
	// the left and right operands of a binary operator, "num" for a unary
	// operator and "argument" for a function.
	Missing string
}

func (e *Error) Error() string {
	return e.Message
}

func missingOperand(op tokenizer.Token, slot string) *Error {
	kind := "unary operator"
	switch {
	case op.IsCall():
		return &Error{
			Message:  fmt.Sprintf("invalid expression, missing argument for function '%s'", op.String()),
			Operator: op,
			Missing:  slot,
		}
	case op.Type.IsBinary():
		kind = "binary operator"
	}
	return &Error{
		Message:  fmt.Sprintf("invalid expression, missing '%s' for %s '%s'", slot, kind, op.String()),
		Operator: op,
		Missing:  slot,
	}
}

func unmatched(paren tokenizer.Token) *Error {
	return &Error{
		Message:  fmt.Sprintf("invalid expression, unmatched '%s'", paren.String()),
		Operator: paren,
	}
}
