package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neptune/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Shell.HistoryPath = ""
	dir := t.TempDir()
	configPath = filepath.Join(dir, "neptune.yaml")
	kernelPath = filepath.Join(dir, "config", "kernel.json")
	trace, threads, force, skipBoot, useTUI = false, 0, false, false, false
}

func TestJoinArgs(t *testing.T) {
	got := joinArgs([]string{"1", "+", "2"})
	if got != "1 + 2" {
		t.Fatalf("expected '1 + 2', got '%s'", got)
	}
}

func TestRunCalc(t *testing.T) {
	setup(t)

	output := captureOutput(t, func() {
		if err := runCalc(&cobra.Command{}, []string{"1+2*3", "0x10", "foo(4)"}); err != nil {
			t.Fatalf("runCalc returned error: %v", err)
		}
	})

	for _, want := range []string{"1+2*3 = 7.000000\n", "0x10 = 16.000000\n", "No such function 'foo'\nfoo(4) = 4.000000\n"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunCalc_Failures(t *testing.T) {
	setup(t)

	var err error
	output := captureOutput(t, func() {
		err = runCalc(&cobra.Command{}, []string{"1+", "01", "2"})
	})
	if err == nil || !strings.Contains(err.Error(), "2 of 3 expressions failed") {
		t.Fatalf("expected failure count, got %v", err)
	}
	if !strings.Contains(output, "leading zero in number is illegal") {
		t.Errorf("expected highlighted tokenizer error, got:\n%s", output)
	}
	if !strings.Contains(output, "2 = 2.000000") {
		t.Errorf("successful expressions are still printed, got:\n%s", output)
	}
}

func TestRunCalc_Stdin(t *testing.T) {
	setup(t)
	threads = 3

	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("1+1\n\n2*3\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runCalc(cmd, nil); err != nil {
		t.Fatalf("runCalc returned error: %v", err)
	}
	if out.String() != "1+1 = 2.000000\n2*3 = 6.000000\n" {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRunCalc_Trace(t *testing.T) {
	setup(t)
	trace = true

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runCalc(cmd, []string{"1+2"}); err != nil {
		t.Fatalf("runCalc returned error: %v", err)
	}
	if !strings.Contains(out.String(), "[+] | [1.00]") || !strings.HasSuffix(out.String(), "1+2 = 3.000000\n") {
		t.Errorf("expected trace and result, got:\n%s", out.String())
	}
}

func TestRunTokens(t *testing.T) {
	setup(t)

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runTokens(cmd, []string{"round(", "-1)"}); err != nil {
		t.Fatalf("runTokens returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 tokens, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "round(") {
		t.Errorf("expected call token first, got %q", lines[0])
	}
}

func TestRunTokens_Error(t *testing.T) {
	setup(t)

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runTokens(cmd, []string{"0b"}); err == nil {
		t.Fatal("expected tokenizer error")
	}
	if !strings.Contains(out.String(), "incomplete number") {
		t.Errorf("expected highlighted error, got %q", out.String())
	}
	if err := runTokens(cmd, []string{" "}); err == nil {
		t.Fatal("expected empty expression error")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	setup(t)

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runConfigInit(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if strings.Count(out.String(), "Wrote") != 2 {
		t.Errorf("expected two files written, got %q", out.String())
	}
	if _, err := config.LoadKernel(kernelPath); err != nil {
		t.Errorf("kernel config not loadable: %v", err)
	}

	out.Reset()
	if err := runConfigInit(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if strings.Count(out.String(), "Kept") != 2 {
		t.Errorf("expected existing files kept, got %q", out.String())
	}

	out.Reset()
	if err := configShowCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out.String(), "max_processes: 16") {
		t.Errorf("expected kernel limits in YAML, got:\n%s", out.String())
	}
}

func TestRunNeptune_BootAndShell(t *testing.T) {
	setup(t)
	if err := config.SaveKernel(kernelPath, config.KernelLimits{MaxProcesses: 4, MaxThreadsPerProcess: 2}); err != nil {
		t.Fatal(err)
	}
	cfg.Shell.HistoryPath = ":memory:"

	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("n\nprocesses\ncalc 2^10\nhistory\nshutdown\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runNeptune(cmd, nil); err != nil {
		t.Fatalf("runNeptune returned error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Kernel has started!\n",
		"Max Processes: 4\nMax Threads per Process: 2\n",
		"Welcome to Neptune OS!",
		"Processes: 1\n",
		"Result: 1024.000000\n",
		"  2^10 = 1024.000000\n",
		"Shutting down...\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestRunNeptune_BootFailure(t *testing.T) {
	setup(t)

	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetOut(io.Discard)

	if err := runNeptune(cmd, nil); err == nil {
		t.Fatal("expected boot to fail without a kernel config")
	}
}

func TestRunNeptune_SkipBoot(t *testing.T) {
	setup(t)
	skipBoot = true

	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("processes\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runNeptune(cmd, nil); err != nil {
		t.Fatalf("runNeptune returned error: %v", err)
	}
	if strings.Contains(out.String(), "Kernel has started!") {
		t.Error("boot prompt should be skipped")
	}
	if !strings.Contains(out.String(), "Processes: 1\n") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestRootCommand_Calc(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "absent.yaml"), "calc", "(1+2)*3"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.String() != "(1+2)*3 = 9.000000\n" {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
