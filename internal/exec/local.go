// Package exec finds and signals processes on the local machine.
package exec

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/MandiZhao/lowvr/internal/errors"
)

// ExecuteLocalCapture runs a program directly, without a shell, and captures
// all output. A non-zero exit is reported through exitCode with a nil error.
func ExecuteLocalCapture(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error) {
	command := exec.CommandContext(ctx, name, args...)

	var outBuf, errBuf bytes.Buffer
	command.Stdout = &outBuf
	command.Stderr = &errBuf

	runErr := command.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outBuf.Bytes(), errBuf.Bytes(), -1, errors.WrapWithCode(ctxErr, errors.ErrExec,
			"Timed out running "+name,
			"")
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return outBuf.Bytes(), errBuf.Bytes(), -1, errors.WrapWithCode(runErr, errors.ErrExec,
			"Couldn't run "+name+" locally",
			"Make sure "+name+" is installed and on your PATH.")
	}

	return outBuf.Bytes(), errBuf.Bytes(), 0, nil
}
