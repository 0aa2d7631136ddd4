package edition

import (
	"context"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
)

// fakeRunner records every command and answers with a fixed result/error pair.
type fakeRunner struct {
	commands []string
	exitCode int
	stderr   string
	err      error
}

func (f *fakeRunner) RunPrivileged(_ context.Context, command string) (domain.CommandResult, error) {
	f.commands = append(f.commands, command)
	if f.err != nil {
		return domain.CommandResult{}, f.err
	}
	return domain.CommandResult{Command: command, ExitCode: f.exitCode, Stderr: f.stderr}, nil
}
