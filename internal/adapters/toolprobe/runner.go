// Package toolprobe runs external tools for read-only prerequisite probes.
package toolprobe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/example/stackup/internal/ports/secondary"
)

// Runner is the production implementation of secondary.ToolRunner using os/exec.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// LookPath resolves name on PATH.
func (r *Runner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes the command and captures stdout/stderr.
func (r *Runner) Run(ctx context.Context, name string, args []string) (secondary.CmdResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := secondary.CmdResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		// The process ran but exited non-zero
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// Ensure Runner implements the interface
var _ secondary.ToolRunner = (*Runner)(nil)
