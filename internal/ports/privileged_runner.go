package ports

import (
	"context"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
)

// PrivilegedRunner runs a shell command with elevated privileges.
// A non-zero exit is reported through the result, not the error.
type PrivilegedRunner interface {
	RunPrivileged(ctx context.Context, command string) (domain.CommandResult, error)
}
