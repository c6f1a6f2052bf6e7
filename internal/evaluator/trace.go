package evaluator

import (
	"fmt"
	"io"
	"strings"

	"neptune/internal/tokenizer"
)

// drawDepth is the minimum number of cellar rows Draw renders.
const drawDepth = 12

// Step is a snapshot of the evaluator taken after a cellar mutation.
type Step struct {
	Action    string
	Index     int // token being processed; len(Tokens) once the scan is over
	Tokens    tokenizer.TokenArray
	Operators []tokenizer.Token // bottom to top
	Operands  []float64         // bottom to top
}

// Draw renders the token stream with a caret under the current token,
// followed by the operator and operand cellars side by side, top row first.
// Operators are shown by their first character only.
func (st Step) Draw(w io.Writer) error {
	var line, caret strings.Builder
	for i, tok := range st.Tokens {
		s := tok.String()
		line.WriteString(s + " ")
		if i < st.Index {
			caret.WriteString(strings.Repeat(" ", len(s)+1))
		} else if i == st.Index {
			caret.WriteString("^")
		}
	}
	if st.Index >= len(st.Tokens) {
		caret.WriteString("^")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", strings.TrimRight(line.String(), " "), caret.String())

	rows := max(drawDepth, len(st.Operators), len(st.Operands))
	for i := rows - 1; i >= 0; i-- {
		op, num := " ", " "
		if i < len(st.Operators) {
			op = st.Operators[i].Short()
		}
		if i < len(st.Operands) {
			num = fmt.Sprintf("%.2f", st.Operands[i])
		}
		fmt.Fprintf(&b, "[%s] | [%s]\n", op, num)
	}
	fmt.Fprintf(&b, "> %s\n", st.Action)

	_, err := io.WriteString(w, b.String())
	return err
}
