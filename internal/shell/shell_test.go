package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"neptune/internal/config"
	"neptune/internal/history"
	"neptune/internal/kernel"
	"neptune/internal/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShell(t *testing.T, limits config.KernelLimits, store *history.Store) (*Shell, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	sh := New(Options{
		Kernel:  kernel.New(limits),
		History: store,
		Out:     &out,
	})
	require.NoError(t, sh.Start(context.Background()))
	t.Cleanup(sh.Close)
	out.Reset()
	return sh, &out
}

func exec(t *testing.T, sh *Shell, line string) bool {
	t.Helper()
	more, err := sh.Execute(context.Background(), line)
	require.NoError(t, err, line)
	return more
}

func TestShell_BasicCommands(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)

	assert.True(t, exec(t, sh, "PROCESSES"))
	assert.Equal(t, "Processes: 1\n", out.String(), "the shell is process 1")

	out.Reset()
	exec(t, sh, "help")
	assert.Equal(t, HelpText(), out.String())
	assert.True(t, strings.HasPrefix(out.String(), "List of commands:\n1: shutdown (Shuts down Neptune OS)\n"))

	out.Reset()
	exec(t, sh, "commands")
	assert.Equal(t, HelpText(), out.String())

	out.Reset()
	exec(t, sh, "credits")
	assert.Contains(t, out.String(), "Thepuppetqueen57: Made Neptune OS")

	out.Reset()
	exec(t, sh, "clear")
	assert.Equal(t, ClearSequence, out.String())

	out.Reset()
	exec(t, sh, "Frobnicate now")
	assert.Equal(t, "Unknown command: frobnicate\n", out.String())

	out.Reset()
	exec(t, sh, "   ")
	assert.Empty(t, out.String())
}

func TestShell_Shutdown(t *testing.T) {
	for _, cmd := range []string{"shutdown", "exit", "EXIT"} {
		sh, out := newShell(t, config.DefaultKernelLimits(), nil)
		assert.False(t, exec(t, sh, cmd))
		assert.Equal(t, "Shutting down...\n", out.String())
	}
}

func TestShell_RunCalculator(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)

	exec(t, sh, "run")
	assert.Equal(t, promptRunChoice, sh.Prompt())

	exec(t, sh, "B")
	assert.Equal(t, "Built in programs:\n1: Calculator\n", out.String())
	assert.Equal(t, promptProgramChoice, sh.Prompt())

	exec(t, sh, "1")
	assert.Equal(t, promptExpression, sh.Prompt())

	out.Reset()
	exec(t, sh, "(1+2)*3")
	assert.Equal(t, "Result: 9.000000\n", out.String())
	assert.Equal(t, "> ", sh.Prompt())
	assert.Equal(t, 1, sh.kernel.Count(), "calculator process has exited")
}

func TestShell_RunOtherChoices(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)

	exec(t, sh, "run")
	exec(t, sh, "c")
	assert.Equal(t, "Custom programs will hopefully be added eventually!\n", out.String())
	assert.Equal(t, "> ", sh.Prompt())

	out.Reset()
	exec(t, sh, "run")
	exec(t, sh, "x")
	assert.Equal(t, "Invalid choice. Please enter 'b' for built in or 'c' for custom.\n", out.String())

	out.Reset()
	exec(t, sh, "run")
	exec(t, sh, "b")
	exec(t, sh, "2")
	assert.Equal(t, "> ", sh.Prompt(), "unknown programs return to the command prompt")
}

func TestShell_CalcErrors(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)

	exec(t, sh, "calc 1 + 01")
	msg := tokenizer.MsgLeadingZero
	assert.Equal(t, "\n>  1+01\n~~~~~ ^\n"+msg+"\n"+strings.Repeat("~", len(msg))+"\n\n", out.String())

	out.Reset()
	exec(t, sh, "calc 1+")
	assert.Contains(t, out.String(), "missing 'num1' for binary operator '+'")

	out.Reset()
	exec(t, sh, "calc foo(2)")
	assert.Equal(t, "No such function 'foo'\nResult: 2.000000\n", out.String())

	out.Reset()
	exec(t, sh, "calc")
	assert.Equal(t, "Usage: calc <expression>\n", out.String())

	out.Reset()
	exec(t, sh, "run")
	exec(t, sh, "b")
	exec(t, sh, "1")
	exec(t, sh, "   ")
	assert.Contains(t, out.String(), "Built in programs")
	assert.NotContains(t, out.String(), "Result")
}

func TestShell_CalcUppercase(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)
	exec(t, sh, "CALC ROUND(2.6)+0X10")
	assert.Equal(t, "Result: 19.000000\n", out.String())
}

func TestShell_ProcessLimit(t *testing.T) {
	sh, out := newShell(t, config.KernelLimits{MaxProcesses: 1, MaxThreadsPerProcess: 1}, nil)
	exec(t, sh, "calc 1+1")
	assert.Contains(t, out.String(), "process limit reached")
}

func TestShell_History(t *testing.T) {
	store, err := history.Open(history.MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	sh, out := newShell(t, config.DefaultKernelLimits(), store)

	exec(t, sh, "history")
	assert.Equal(t, "No calculations yet.\n", out.String())

	exec(t, sh, "calc 1+2*3")
	exec(t, sh, "calc 5%0")
	out.Reset()

	exec(t, sh, "history")
	want := "Recent calculations:\n" +
		"  1+2*3 = 7.000000\n" +
		"  5%0 ! invalid expression, modulo by zero\n"
	assert.Equal(t, want, out.String())

	out.Reset()
	exec(t, sh, "history clear")
	assert.Equal(t, "History cleared.\n", out.String())

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestShell_HistoryDisabled(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)
	exec(t, sh, "history")
	assert.Equal(t, "History is disabled.\n", out.String())
}

func TestShell_RichHelp(t *testing.T) {
	sh, out := newShell(t, config.DefaultKernelLimits(), nil)
	sh.SetHelpRenderer(func(md string) (string, error) { return "rendered:" + md, nil })

	exec(t, sh, "help")
	assert.True(t, strings.HasPrefix(out.String(), "rendered:# Neptune OS"))
}

func TestRunLoop(t *testing.T) {
	var out bytes.Buffer
	sh := New(Options{Kernel: kernel.New(config.DefaultKernelLimits()), Out: &out})
	require.NoError(t, sh.Start(context.Background()))
	defer sh.Close()

	in := strings.NewReader("processes\nrun\nb\n1\n2^3\nshutdown\nprocesses\n")
	require.NoError(t, sh.RunLoop(context.Background(), in))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, Welcome+"\n> Processes: 1\n> "))
	assert.Contains(t, got, promptExpression+"Result: 8.000000\n")
	assert.True(t, strings.HasSuffix(got, "> Shutting down...\n"), "input after shutdown is not read")
}

func TestRunLoop_EOFWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	sh := New(Options{Kernel: kernel.New(config.DefaultKernelLimits()), Out: &out})

	require.NoError(t, sh.RunLoop(context.Background(), strings.NewReader("calc 1+1")))
	assert.Contains(t, out.String(), "Result: 2.000000\n")
}

func TestRunLoop_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sh := New(Options{Kernel: kernel.New(config.DefaultKernelLimits()), Out: &bytes.Buffer{}})
	assert.ErrorIs(t, sh.RunLoop(ctx, strings.NewReader("help\n")), context.Canceled)
}

func TestFindCommand(t *testing.T) {
	assert.Equal(t, "shutdown", FindCommand("EXIT").Name)
	assert.Equal(t, "help", FindCommand("commands").Name)
	assert.Nil(t, FindCommand("nope"))
}
