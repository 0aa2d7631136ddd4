package shellrunner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

const (
	defaultShell = "/bin/sh"
	waitDelay    = 2 * time.Second
)

// Runner executes commands through a shell, prefixed by a privilege wrapper such as sudo.
type Runner struct {
	privilege []string
	shell     string
	logger    *slog.Logger
}

type Option func(*Runner)

// WithPrivilege sets the argv prepended to every command. nil runs unprivileged.
func WithPrivilege(argv []string) Option {
	return func(r *Runner) { r.privilege = append([]string(nil), argv...) }
}

// WithShell overrides the shell used for "-c".
func WithShell(path string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(path) != "" {
			r.shell = path
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Runner that uses "sudo -n" unless told otherwise.
func New(opts ...Option) *Runner {
	r := &Runner{
		privilege: []string{"sudo", "-n"},
		shell:     defaultShell,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.PrivilegedRunner = (*Runner)(nil)

// ParsePrivilege splits a privilege command line ("sudo -n -E") into argv.
func ParsePrivilege(command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, nil
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "shellrunner.parse_privilege",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}
	return argv, nil
}

// RunPrivileged runs command and reports its exit status. Only failures to
// start or wait for the process are returned as errors.
func (r *Runner) RunPrivileged(ctx context.Context, command string) (domain.CommandResult, error) {
	argv := make([]string, 0, len(r.privilege)+3)
	argv = append(argv, r.privilege...)
	argv = append(argv, r.shell, "-c", command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()

	res := domain.CommandResult{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.ExitCode = -1
			return res, &domain.OpError{
				Op:   "shellrunner.run",
				Kind: domain.KindExecution,
				Err:  ctxErr,
			}
		}

		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			res.ExitCode = -1
			return res, &domain.OpError{
				Op:   "shellrunner.run",
				Kind: domain.KindExecution,
				Err:  err,
			}
		}
		res.ExitCode = ee.ExitCode()
	}

	r.logger.Debug("shellrunner.run",
		"command", domain.RedactCommand(command),
		"exit_code", res.ExitCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
