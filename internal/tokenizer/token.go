package tokenizer

import (
	"strconv"
	"strings"
)

// TokenType classifies a Token.
type TokenType uint8

const (
	None TokenType = iota // not a token; zero value of the dispatch table
	Number
	Add        // +
	Sub        // -
	Div        // /
	Mod        // %
	Mul        // *
	Pow        // ^
	Negate     // ~, or - in prefix position
	Comma      // ,
	OpenParen  // (
	CloseParen // )
)

var typeSymbols = [...]string{
	Add:        "+",
	Sub:        "-",
	Div:        "/",
	Mod:        "%",
	Mul:        "*",
	Pow:        "^",
	Negate:     "~",
	Comma:      ",",
	OpenParen:  "(",
	CloseParen: ")",
}

// Symbol returns the single character spelling of an operator or
// punctuation type, or "" for None and Number.
func (t TokenType) Symbol() string {
	if int(t) < len(typeSymbols) {
		return typeSymbols[t]
	}
	return ""
}

// IsBinary reports whether t consumes two operands.
func (t TokenType) IsBinary() bool {
	switch t {
	case Add, Sub, Div, Mod, Mul, Pow:
		return true
	}
	return false
}

// IsUnary reports whether t consumes one operand.
func (t TokenType) IsUnary() bool {
	return t == Negate
}

// IsOperator reports whether t is a unary or binary operator.
func (t TokenType) IsOperator() bool {
	return t.IsBinary() || t.IsUnary()
}

func (t TokenType) String() string {
	switch t {
	case None:
		return "None"
	case Number:
		return "Number"
	case Comma:
		return "Comma"
	}
	if sym := t.Symbol(); sym != "" {
		return "Operator [ " + sym + " ]"
	}
	return "Unknown Token Type: " + strconv.Itoa(int(t))
}

// Token is the smallest classified unit of an expression.
type Token struct {
	Type  TokenType
	Value float64 // payload of Number tokens

	// Func is the name of the function being called. It is only ever set on
	// OpenParen tokens that directly follow an identifier.
	Func string
}

// IsCall reports whether the token opens a function call.
func (t Token) IsCall() bool {
	return t.Type == OpenParen && t.Func != ""
}

// String returns the canonical display of the token. Re-tokenizing the
// display of any token yields an equivalent token.
func (t Token) String() string {
	switch {
	case t.IsCall():
		return t.Func + "("
	case t.Type == Number:
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	}
	if sym := t.Type.Symbol(); sym != "" {
		return sym
	}
	return "?"
}

// Short returns the display truncated to its first character, as used by
// the evaluator's step view. Function calls lose their name.
func (t Token) Short() string {
	s := t.String()
	if len(s) > 1 {
		return s[:1]
	}
	return s
}

// TokenArray is an ordered token sequence in source order.
type TokenArray []Token

func (a TokenArray) String() string {
	parts := make([]string, len(a))
	for i, t := range a {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
