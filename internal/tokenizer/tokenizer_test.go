package tokenizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v float64) Token { return Token{Type: Number, Value: v} }
func op(t TokenType) Token { return Token{Type: t} }
func call(name string) Token { return Token{Type: OpenParen, Func: name} }

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want TokenArray
	}{
		{"precedence", "1+2*3", TokenArray{num(1), op(Add), num(2), op(Mul), num(3)}},
		{"parens", "(1+2)*3", TokenArray{op(OpenParen), num(1), op(Add), num(2), op(CloseParen), op(Mul), num(3)}},
		{"hex", "0x10", TokenArray{num(16)}},
		{"hex letters", "0xfF", TokenArray{num(255)}},
		{"octal", "0o17", TokenArray{num(15)}},
		{"binary", "0b101", TokenArray{num(5)}},
		{"float", "3.5+1.5", TokenArray{num(3.5), op(Add), num(1.5)}},
		{"float after integer part", "12.25", TokenArray{num(12.25)}},
		{"zero", "0", TokenArray{num(0)}},
		{"zero float", "0.5", TokenArray{num(0.5)}},
		{"whitespace stripped", " 1 +\t2 ", TokenArray{num(1), op(Add), num(2)}},
		{"all operators", "1+2-3/4%5*6^7", TokenArray{
			num(1), op(Add), num(2), op(Sub), num(3), op(Div), num(4),
			op(Mod), num(5), op(Mul), num(6), op(Pow), num(7),
		}},
		{"function", "round(2.6)", TokenArray{call("round"), num(2.6), op(CloseParen)}},
		{"function with digits", "f00(1)", TokenArray{call("f00"), num(1), op(CloseParen)}},
		{"comma", "foo(1,2)", TokenArray{call("foo"), num(1), op(Comma), num(2), op(CloseParen)}},
		{"tilde negate", "~2", TokenArray{op(Negate), num(2)}},
		{"leading minus negates", "-2+3", TokenArray{op(Negate), num(2), op(Add), num(3)}},
		{"minus after operator negates", "1--2", TokenArray{num(1), op(Sub), op(Negate), num(2)}},
		{"minus after paren negates", "(-1)", TokenArray{op(OpenParen), op(Negate), num(1), op(CloseParen)}},
		{"minus after close paren subtracts", "(1)-1", TokenArray{op(OpenParen), num(1), op(CloseParen), op(Sub), num(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.expr)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		expr    string
		message string
		index   int
	}{
		{"01", MsgLeadingZero, 1},
		{"1+007", MsgLeadingZero, 3},
		{"0xz1", MsgInvalidNumberChar, 2},
		{"0b102", MsgInvalidNumberChar, 4},
		{"0o78", MsgInvalidNumberChar, 3},
		{"12a", MsgInvalidNumberChar, 2},
		{"1a", MsgInvalidNumberChar, 1},
		{"1x5", MsgInvalidNumberChar, 1},
		{"1.2.3", MsgInvalidNumberChar, 3},
		{"0x", MsgIncompleteNumber, 2},
		{"0b+1", MsgIncompleteNumber, 2},
		{"1.", MsgIncompleteNumber, 2},
		{"round", MsgNoOpenParen, 5},
		{"1 + abc", MsgNoOpenParen, 5},
		{"abc+1", MsgNoOpenParen, 3},
		{"1+$", MsgInvalidExpression, 2},
		{"1$2", MsgInvalidNumberChar, 1},
		{"ab.c(1)", MsgInvalidExpression, 2},
		{"0x1FFFFFFFFFFFFFFFF", MsgNumberOutOfRange, 0},
		{"2+" + strings.Repeat("9", 400), MsgNumberOutOfRange, 2},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			tok := New()
			got, err := tok.Tokenize(tt.expr)
			require.Error(t, err)
			assert.Nil(t, got, "no partial token array on failure")

			var terr *Error
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.message, terr.Message)
			assert.Equal(t, tt.index, terr.Index)
			assert.Same(t, terr, tok.Err())
		})
	}
}

func TestTokenize_EmptyPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = Tokenize("") })
	assert.Panics(t, func() { _, _ = Tokenize(" \t\n") })
}

func TestTokenizer_Reuse(t *testing.T) {
	exprs := []string{"1+2*3", "01", "round(2.6)", "0xz", "(1+2)*3", "foo", "0b101"}

	reused := New()
	for _, expr := range exprs {
		fresh, freshErr := New().Tokenize(expr)
		got, err := reused.Tokenize(expr)

		if freshErr != nil {
			require.Error(t, err, expr)
			assert.Equal(t, freshErr.Error(), err.Error(), expr)
			continue
		}
		require.NoError(t, err, expr)
		if diff := cmp.Diff(fresh, got); diff != "" {
			t.Errorf("reused tokenizer diverged for %q (-fresh +reused):\n%s", expr, diff)
		}
		assert.Nil(t, reused.Err())
	}
}

func TestTokenArray_RoundTrip(t *testing.T) {
	exprs := []string{
		"1+2*3",
		"(1+2)*3",
		"0x10-0b101%0o7",
		"3.5^1.25/2",
		"-2--(3)",
		"~4,5",
		"0xFFFFFFFFFFFFFFFF",
		"99999999999999999999.0",
		"99999999999999999999999",
	}
	for _, expr := range exprs {
		tokens, err := Tokenize(expr)
		require.NoError(t, err, expr)

		again, err := Tokenize(tokens.String())
		require.NoError(t, err, tokens.String())
		if diff := cmp.Diff(tokens, again); diff != "" {
			t.Errorf("round trip of %q via %q mismatch (-want +got):\n%s", expr, tokens.String(), diff)
		}
	}
}

func TestToken_Display(t *testing.T) {
	assert.Equal(t, "round(", call("round").String())
	assert.Equal(t, "r", call("round").Short())
	assert.Equal(t, "16", num(16).String())
	assert.Equal(t, "1", num(16).Short())
	assert.Equal(t, "2.5", num(2.5).String())
	assert.Equal(t, "~", op(Negate).String())
	assert.Equal(t, "(", op(OpenParen).String())
	assert.Equal(t, "?", op(None).String())

	assert.Equal(t, "Number", Number.String())
	assert.Equal(t, "Operator [ % ]", Mod.String())
	assert.True(t, call("f").IsCall())
	assert.False(t, op(OpenParen).IsCall())
}

func TestTokenType_Arity(t *testing.T) {
	for _, tt := range []TokenType{Add, Sub, Div, Mod, Mul, Pow} {
		assert.True(t, tt.IsBinary(), tt.String())
		assert.False(t, tt.IsUnary(), tt.String())
	}
	assert.True(t, Negate.IsUnary())
	assert.False(t, Comma.IsOperator())
	assert.False(t, OpenParen.IsOperator())
}
