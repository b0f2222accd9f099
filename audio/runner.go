package audio

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner executes an external binary. An error means the process
// could not be started or was stopped by ctx; a non-zero exit is reported
// through ExitCode.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct {
	logger logrus.FieldLogger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
	}).Debug("Executing command")

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		r.logger.WithFields(logrus.Fields{
			"command":   name,
			"exit_code": result.ExitCode,
			"stderr":    result.Stderr,
		}).Debug("Command exited with error")
		return result, nil
	}
	if err != nil {
		return result, errors.Wrapf(err, "error executing %s", name)
	}
	return result, nil
}
