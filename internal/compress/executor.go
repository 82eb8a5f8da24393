package compress

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
)

// ExecResult holds the outcome of a single compressor invocation.
type ExecResult struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

// Execute runs args (binary first) and captures stdout and stderr. When
// tee is non-nil, stderr is also copied to it as it arrives.
func Execute(ctx context.Context, args []string, tee io.Writer) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	if tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Args:   args,
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}

// Run compresses input into output with bin. A failed invocation is
// returned as an [*Error].
func Run(ctx context.Context, bin, input, output string, tee io.Writer) (ExecResult, error) {
	res := Execute(ctx, Build(bin, input, output), tee)
	if res.Err != nil {
		return res, &Error{
			Command: strings.Join(res.Args, " "),
			Stderr:  strings.TrimSpace(res.Stderr),
			Err:     res.Err,
		}
	}
	return res, nil
}
