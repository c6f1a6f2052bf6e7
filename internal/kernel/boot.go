package kernel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"neptune/internal/config"
	"neptune/internal/logging"

	"go.uber.org/zap"
)

// BootResult is the outcome of the boot prompt.
type BootResult struct {
	// Edited is true when the user chose to configure the kernel. Limits then
	// holds the defaults and the caller may substitute its own.
	Edited bool
	Limits config.KernelLimits
}

// Boot runs the boot prompt on in/out. Answering n checks the kernel
// configuration at kernelPath; a missing or malformed limit fails the boot.
// Answering y keeps the default limits. Anything else asks again.
//
// Callers that keep reading in after Boot should pass a *bufio.Reader so no
// input is lost to buffering.
func Boot(ctx context.Context, in io.Reader, out io.Writer, kernelPath string) (BootResult, error) {
	log := logging.Get(logging.CategoryBoot)
	r := AsBufioReader(in)

	fmt.Fprintln(out, "Kernel has started!")
	log.Info("kernel started")

	for {
		if err := ctx.Err(); err != nil {
			return BootResult{}, err
		}

		fmt.Fprint(out, "Do you want to configure the kernel? [Y/N]: ")
		answer, err := ReadWord(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return BootResult{}, fmt.Errorf("failed to read boot answer: %w", err)
		}

		switch strings.ToLower(answer[:1]) {
		case "y":
			fmt.Fprintln(out, "Configuring kernel...")
			fmt.Fprintln(out, "Kernel configuration will hopefully be added soon!")
			log.Info("kernel configuration edited; using defaults")
			return BootResult{Edited: true, Limits: config.DefaultKernelLimits()}, nil

		case "n":
			fmt.Fprintln(out, "Kernel configuration not edited...")
			fmt.Fprintln(out, "Checking kernel configuration...")

			limits, err := config.LoadKernel(kernelPath)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				log.Error("kernel configuration check failed", zap.String("path", kernelPath), zap.Error(err))
				return BootResult{}, err
			}
			fmt.Fprintf(out, "Max Processes: %d\n", limits.MaxProcesses)
			fmt.Fprintf(out, "Max Threads per Process: %d\n", limits.MaxThreadsPerProcess)
			log.Info("kernel configuration checked",
				zap.Int("max_processes", limits.MaxProcesses),
				zap.Int("max_threads_per_process", limits.MaxThreadsPerProcess))
			return BootResult{Limits: limits}, nil

		default:
			log.Debug("unrecognized boot answer", zap.String("answer", answer))
		}
	}
}

// AsBufioReader returns r itself when it already is a *bufio.Reader.
func AsBufioReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// ReadWord reads the next whitespace-delimited word, skipping blank lines.
// The rest of the line is consumed.
func ReadWord(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields[0], nil
		}
		if err != nil {
			return "", err
		}
	}
}
