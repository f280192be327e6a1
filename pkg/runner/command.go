package runner

import (
	"context"
	"errors"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// CommandRunner is an interface for executing commands and getting the output/error
type CommandRunner interface {
	RunCommand(ctx context.Context, args ...string) (string, error)
}

type DefaultCommandRunner struct{}

var _ CommandRunner = &DefaultCommandRunner{}

func (d *DefaultCommandRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	log.Debug("Running command: ", args)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Debug("Command stderr: ", string(exitErr.Stderr))
		}
	}
	log.Debug("Command output: ", string(out))
	return string(out), err
}

type FakeCommandRunner struct {
	Output string
	ErrStr string
	// Calls records every invocation for test assertions.
	Calls [][]string
}

var _ CommandRunner = &FakeCommandRunner{}

func (f *FakeCommandRunner) RunCommand(_ context.Context, args ...string) (string, error) {
	f.Calls = append(f.Calls, args)
	if f.ErrStr != "" {
		return f.Output, errors.New(f.ErrStr)
	}
	return f.Output, nil
}
