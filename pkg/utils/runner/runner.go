// Package runner executes embedded Cobra commands (kind, kubectl) while
// capturing their output for callers.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Result holds the captured output of a command run.
type Result struct {
	// Stdout is the captured standard output of the command.
	Stdout string
	// Stderr is the captured standard error of the command.
	Stderr string
}

// CommandRunner runs a Cobra command with the given arguments.
type CommandRunner interface {
	Run(ctx context.Context, cmd *cobra.Command, args []string) (Result, error)
}

// CobraCommandRunner runs Cobra commands, teeing their output to the
// configured writers while also capturing it in the returned Result.
type CobraCommandRunner struct {
	stdout io.Writer
	stderr io.Writer
}

var _ CommandRunner = (*CobraCommandRunner)(nil)

// NewCobraCommandRunner creates a CobraCommandRunner. Nil writers default to
// os.Stdout and os.Stderr.
func NewCobraCommandRunner(stdout, stderr io.Writer) *CobraCommandRunner {
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &CobraCommandRunner{stdout: stdout, stderr: stderr}
}

// Run executes the command with the provided arguments.
// Output is always captured, even when the command returns an error, so
// callers can surface diagnostics.
func (r *CobraCommandRunner) Run(
	ctx context.Context,
	cmd *cobra.Command,
	args []string,
) (Result, error) {
	var outBuf, errBuf bytes.Buffer

	cmd.SetOut(io.MultiWriter(r.stdout, &outBuf))
	cmd.SetErr(io.MultiWriter(r.stderr, &errBuf))

	if args == nil {
		args = []string{}
	}

	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}

	if err != nil {
		return result, fmt.Errorf("execute command: %w", err)
	}

	return result, nil
}
