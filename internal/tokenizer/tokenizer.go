// Package tokenizer turns an arithmetic expression into a TokenArray.
//
// The scan is a single left-to-right pass driven by what is currently being
// accumulated. Operator and punctuation characters are looked up first and
// always end the accumulation: a pending number is flushed into a Number
// token, and a pending identifier becomes the function name of the OpenParen
// that follows it. Everything else either starts or continues an
// accumulation, subject to the rules of the literal being built:
//
//	123    decimal, no leading zeros
//	1.5    float, the '.' may appear once after the first digit
//	0x1f   hexadecimal
//	0o17   octal
//	0b101  binary
//	round( identifier, only valid directly before '('
package tokenizer

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"neptune/internal/logging"
	"neptune/internal/stack"

	"go.uber.org/zap"
)

const bufferCapacity = 100

// accKind is what the accumulator is currently building.
type accKind uint8

const (
	accNone accKind = iota
	accDecimal
	accFloat
	accHex
	accOctal
	accBinary
	accIdent
)

func (k accKind) isNumber() bool {
	return k >= accDecimal && k <= accBinary
}

func (k accKind) base() int {
	switch k {
	case accHex:
		return 16
	case accOctal:
		return 8
	case accBinary:
		return 2
	}
	return 10
}

func (k accKind) accepts(c byte) bool {
	switch k {
	case accHex:
		return isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'f')
	case accOctal:
		return c >= '0' && c <= '7'
	case accBinary:
		return c == '0' || c == '1'
	}
	return isDigit(c)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c|0x20 >= 'a' && c|0x20 <= 'z' }

// Tokenizer scans expressions. A Tokenizer is reusable but must not be
// shared between goroutines.
type Tokenizer struct {
	table [256]TokenType

	kind        accKind
	leadingZero bool // a decimal accumulation started with '0'
	accStart    int
	acc         *stack.Stack[byte]

	tokens *stack.Stack[Token]
	err    *Error

	logger *zap.Logger
}

// New returns a ready to use Tokenizer.
func New() *Tokenizer {
	t := &Tokenizer{
		acc:    stack.WithCapacity[byte](bufferCapacity),
		tokens: stack.WithCapacity[Token](bufferCapacity),
		logger: logging.Get(logging.CategoryTokenizer),
	}
	t.tokens.SetCleanup(func(tok *Token) { tok.Func = "" })

	t.table['+'] = Add
	t.table['-'] = Sub
	t.table['/'] = Div
	t.table['%'] = Mod
	t.table['*'] = Mul
	t.table['^'] = Pow
	t.table['~'] = Negate
	t.table[','] = Comma
	t.table['('] = OpenParen
	t.table[')'] = CloseParen

	return t
}

// Tokenize scans expr with a fresh Tokenizer.
func Tokenize(expr string) (TokenArray, error) {
	return New().Tokenize(expr)
}

// StripWhitespace removes every whitespace character from expr. Error
// indices refer to the stripped string.
func StripWhitespace(expr string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expr)
}

// Reset drops all state left over from a previous call.
func (t *Tokenizer) Reset() {
	t.tokens.ReClear()
	t.acc.ReClear()
	t.kind = accNone
	t.leadingZero = false
	t.accStart = 0
	t.err = nil
}

// Err returns the error of the last Tokenize call, if any.
func (t *Tokenizer) Err() *Error {
	return t.err
}

// Tokenize scans expr and returns its tokens, or an *Error positioned in the
// whitespace-stripped expression. expr must contain at least one
// non-whitespace character; an empty expression is a programming error and
// panics.
func (t *Tokenizer) Tokenize(expr string) (TokenArray, error) {
	t.Reset()

	s := StripWhitespace(expr)
	if s == "" {
		panic("tokenizer: empty expression")
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if op := t.table[c]; op != None {
			if err := t.operator(op, i); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case t.kind == accNone && isLetter(c):
			t.start(accIdent, i, c)
		case t.kind == accNone && isDigit(c):
			t.start(accDecimal, i, c)
			t.leadingZero = c == '0'
		case t.kind == accIdent:
			if !isLetter(c) && !isDigit(c) {
				return nil, t.fail(MsgInvalidExpression, i)
			}
			t.acc.Push(c)
		case t.kind.isNumber():
			if err := t.number(c, i); err != nil {
				return nil, err
			}
		default:
			return nil, t.fail(MsgInvalidExpression, i)
		}
	}

	switch {
	case t.kind == accIdent:
		return nil, t.fail(MsgNoOpenParen, len(s))
	case t.kind.isNumber():
		if err := t.flushNumber(len(s)); err != nil {
			return nil, err
		}
	}

	out := make(TokenArray, t.tokens.Len())
	copy(out, t.tokens.Items())
	t.tokens.ReClear()
	t.acc.ReClear()
	return out, nil
}

func (t *Tokenizer) start(kind accKind, i int, c byte) {
	t.kind = kind
	t.accStart = i
	t.acc.Push(c)
}

// operator handles an operator or punctuation character at index i.
func (t *Tokenizer) operator(op TokenType, i int) error {
	switch {
	case op == OpenParen && t.kind == accIdent:
		t.emit(Token{Type: OpenParen, Func: string(t.acc.Items())})
		return nil
	case t.kind == accIdent:
		return t.fail(MsgNoOpenParen, i)
	case t.kind.isNumber():
		if err := t.flushNumber(i); err != nil {
			return err
		}
	}

	if op == Sub && t.prefixPosition() {
		op = Negate
	}
	t.emit(Token{Type: op})
	return nil
}

// prefixPosition reports whether an operator here has no left operand.
func (t *Tokenizer) prefixPosition() bool {
	prev := t.tokens.Peek()
	if prev == nil {
		return true
	}
	return prev.Type.IsOperator() || prev.Type == OpenParen || prev.Type == Comma
}

// number accumulates c into the pending numeric literal.
func (t *Tokenizer) number(c byte, i int) error {
	if t.acc.Len() == 1 {
		first := *t.acc.First()
		switch {
		case c == '.':
			t.kind = accFloat
		case first == '0' && c == 'x':
			t.kind = accHex
		case first == '0' && c == 'o':
			t.kind = accOctal
		case first == '0' && c == 'b':
			t.kind = accBinary
		case !isDigit(c):
			// Base prefixes need a leading 0, so "1x5" and "1a" are rejected.
			return t.fail(MsgInvalidNumberChar, i)
		case t.leadingZero:
			return t.fail(MsgLeadingZero, i)
		}
		t.leadingZero = false
		t.acc.Push(c)
		return nil
	}

	if t.kind == accDecimal && c == '.' {
		t.kind = accFloat
	} else if !t.kind.accepts(c) {
		return t.fail(MsgInvalidNumberChar, i)
	}
	t.acc.Push(c)
	return nil
}

// flushNumber turns the pending numeric literal into a Number token. i is
// the index of the character that ended the literal.
func (t *Tokenizer) flushNumber(i int) error {
	buf := string(t.acc.Items())
	if t.kind != accDecimal && len(buf) < 3 {
		return t.fail(MsgIncompleteNumber, i)
	}

	var (
		v   float64
		err error
	)
	switch t.kind {
	case accFloat:
		v, err = strconv.ParseFloat(buf, 64)
	case accDecimal:
		var n uint64
		n, err = strconv.ParseUint(buf, 10, 64)
		v = float64(n)
		if errors.Is(err, strconv.ErrRange) {
			// Wider than 64 bits: nearest double, as the display of a
			// large Number token is a plain integer.
			v, err = strconv.ParseFloat(buf, 64)
		}
	default:
		var n uint64
		n, err = strconv.ParseUint(buf[2:], t.kind.base(), 64)
		v = float64(n)
	}
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return t.fail(MsgNumberOutOfRange, t.accStart)
		}
		return t.fail(MsgInvalidNumberChar, t.accStart)
	}

	t.emit(Token{Type: Number, Value: v})
	return nil
}

// emit appends tok to the output and clears the accumulator.
func (t *Tokenizer) emit(tok Token) {
	t.tokens.Push(tok)
	t.acc.Clear()
	t.kind = accNone
	t.leadingZero = false

	if ce := t.logger.Check(zap.DebugLevel, "token added"); ce != nil {
		ce.Write(zap.Stringer("type", tok.Type), zap.String("token", tok.String()))
	}
}

func (t *Tokenizer) fail(msg string, i int) *Error {
	t.err = &Error{Message: msg, Index: i}
	t.logger.Debug("tokenize failed", zap.String("error", msg), zap.Int("index", i))
	return t.err
}
