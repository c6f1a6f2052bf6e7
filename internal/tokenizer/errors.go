package tokenizer

import "fmt"

// Messages carried by *Error.
const (
	MsgInvalidExpression = "invalid expression"
	MsgInvalidNumberChar = "invalid character in number"
	MsgLeadingZero       = "leading zero in number is illegal in this context"
	MsgIncompleteNumber  = "incomplete number"
	MsgNoOpenParen       = "function with no opening parenthesis"
	MsgNumberOutOfRange  = "number out of range"
)

// Error is a positioned tokenizer failure. Index is a byte offset into the
// whitespace-stripped expression.
type Error struct {
	Message string
	Index   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at index %d", e.Message, e.Index)
}
