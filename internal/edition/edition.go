package edition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

// UpgradeCommand is the forced, non-interactive full-system upgrade issued by Base.
const UpgradeCommand = "DEBIAN_FRONTEND=noninteractive apt-get -y --force-yes upgrade"

// Edition is the set of customization points the pipeline calls, one per stage.
type Edition interface {
	Identity() domain.EditionIdentity

	// CheckPackagesSource inspects or resets the package-source file before updating.
	CheckPackagesSource(ctx context.Context, env Env) error

	RewriteAptSourcesList(env Env, sources []domain.SourceLine) []domain.SourceLine
	RewriteAptAutomation(env Env, entries []domain.AutomationAnswer) []domain.AutomationAnswer
	RewriteAptKeys(env Env, entries []domain.KeyEntry) []domain.KeyEntry
	RewriteAptKeyserver(env Env, entries []domain.KeyserverEntry) []domain.KeyserverEntry

	UpgradeSystem(ctx context.Context, env Env) error
	PostInstall(ctx context.Context, env Env) error
}

// Env is the context handed to every hook call.
type Env struct {
	domain.Environment

	Logger *slog.Logger
	Runner ports.PrivilegedRunner
}

// Log returns the configured logger, or one that discards everything.
func (e Env) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return e.Logger
}

// RunChecked runs command through env.Runner and turns a non-zero exit into an error.
func RunChecked(ctx context.Context, env Env, op, command string) error {
	if env.Runner == nil {
		return &domain.OpError{
			Op:   op,
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("no privileged runner configured"),
		}
	}

	res, err := env.Runner.RunPrivileged(ctx, command)
	if err != nil {
		kind := domain.KindExecution
		if domain.IsKind(err, domain.KindInvalidConfig) {
			kind = domain.KindInvalidConfig
		}
		return &domain.OpError{
			Op:   op,
			Kind: kind,
			Err:  err,
		}
	}
	if !res.OK() {
		msg := fmt.Sprintf("command %q exited with status %d", domain.RedactCommand(command), res.ExitCode)
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			msg += ": " + stderr
		}
		return &domain.OpError{
			Op:   op,
			Kind: domain.KindExecution,
			Err:  fmt.Errorf("%s: %w", msg, domain.ErrExecution),
		}
	}
	return nil
}

// Base is the default edition. Its hooks reproduce unmodified pipeline behaviour.
type Base struct {
	id domain.EditionIdentity
}

var _ Edition = (*Base)(nil)

func NewBase(version string) *Base {
	return &Base{id: domain.EditionIdentity{
		Name:      "BioLinux base Edition",
		ShortName: "biolinux",
		Version:   version,
	}}
}

func (b *Base) Identity() domain.EditionIdentity {
	return b.id
}

func (b *Base) CheckPackagesSource(_ context.Context, _ Env) error {
	return nil
}

func (b *Base) RewriteAptSourcesList(_ Env, sources []domain.SourceLine) []domain.SourceLine {
	return sources
}

func (b *Base) RewriteAptAutomation(_ Env, entries []domain.AutomationAnswer) []domain.AutomationAnswer {
	return entries
}

func (b *Base) RewriteAptKeys(_ Env, entries []domain.KeyEntry) []domain.KeyEntry {
	return entries
}

func (b *Base) RewriteAptKeyserver(_ Env, entries []domain.KeyserverEntry) []domain.KeyserverEntry {
	return entries
}

// UpgradeSystem upgrades every installed package through apt.
func (b *Base) UpgradeSystem(ctx context.Context, env Env) error {
	return RunChecked(ctx, env, "edition.upgrade_system", UpgradeCommand)
}

func (b *Base) PostInstall(_ context.Context, _ Env) error {
	return nil
}
