// Package dryrun provides a privileged runner that records commands instead of running them.
package dryrun

import (
	"context"
	"sync"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

type Recorder struct {
	mu       sync.Mutex
	commands []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ ports.PrivilegedRunner = (*Recorder)(nil)

// RunPrivileged records command and reports success.
func (r *Recorder) RunPrivileged(ctx context.Context, command string) (domain.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.CommandResult{}, err
	}

	r.mu.Lock()
	r.commands = append(r.commands, command)
	r.mu.Unlock()

	return domain.CommandResult{Command: command}, nil
}

// Commands returns a copy of everything recorded so far.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}
