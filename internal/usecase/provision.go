package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/edition"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

// Stage names, in the order Provision runs them.
const (
	StageCheckPackagesSource = "check_packages_source"
	StageAptSources          = "apt_sources"
	StageAptAutomation       = "apt_automation"
	StageAptKeys             = "apt_keys"
	StageAptKeyserver        = "apt_keyserver"
	StageAptUpdate           = "apt_update"
	StageUpgradeSystem       = "upgrade_system"
	StagePostInstall         = "post_install"
)

type Provision struct {
	registry *edition.Registry
	runner   ports.PrivilegedRunner
	store    ports.ReportStore
	logger   *slog.Logger
	dryRun   bool
	now      func() time.Time
}

type ProvisionOption func(*Provision)

func WithRegistry(r *edition.Registry) ProvisionOption {
	return func(uc *Provision) {
		if r != nil {
			uc.registry = r
		}
	}
}

// WithStore saves every report, successful or not. Ignored in dry-run mode.
func WithStore(s ports.ReportStore) ProvisionOption {
	return func(uc *Provision) { uc.store = s }
}

func WithLogger(l *slog.Logger) ProvisionOption {
	return func(uc *Provision) {
		if l != nil {
			uc.logger = l
		}
	}
}

// WithDryRun marks reports as dry runs and disables saving.
func WithDryRun(dryRun bool) ProvisionOption {
	return func(uc *Provision) { uc.dryRun = dryRun }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) ProvisionOption {
	return func(uc *Provision) { uc.now = now }
}

func NewProvision(runner ports.PrivilegedRunner, opts ...ProvisionOption) *Provision {
	uc := &Provision{
		registry: edition.Default,
		runner:   runner,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type stage struct {
	name string
	run  func(ctx context.Context, env edition.Env) (skipped bool, err error)
}

// Execute selects the configured edition and runs every pipeline stage through it.
// The first failing stage aborts the run; the partial report is returned with the error.
func (uc *Provision) Execute(ctx context.Context, cfg domain.Config) (domain.ProvisionReport, string, error) {
	rep := domain.ProvisionReport{
		Environment: cfg.Environment(),
		DryRun:      uc.dryRun,
		StartedAt:   uc.now(),
		Steps:       []domain.StepResult{},
	}

	ed, err := uc.registry.Select(cfg.Edition, cfg.Distribution.Version,
		edition.WithStrict(cfg.StrictEdition),
		edition.WithLogger(uc.logger),
	)
	if err != nil {
		rep.EndedAt = uc.now()
		return rep, "", err
	}
	rep.Edition = ed.Identity()

	log := uc.logger.With("edition", rep.Edition.ShortName, "dry_run", uc.dryRun)
	log.Info("provision.start", "version", rep.Edition.Version)

	aptChanged := false
	stages := []stage{
		{StageCheckPackagesSource, func(ctx context.Context, env edition.Env) (bool, error) {
			return false, ed.CheckPackagesSource(ctx, env)
		}},
		{StageAptSources, func(ctx context.Context, env edition.Env) (bool, error) {
			cmds, err := sourceCommands(env, ed.RewriteAptSourcesList(env, cfg.Apt.Sources))
			if err != nil {
				return false, err
			}
			aptChanged = aptChanged || len(cmds) > 0
			return runAll(ctx, env, StageAptSources, cmds)
		}},
		{StageAptAutomation, func(ctx context.Context, env edition.Env) (bool, error) {
			cmds := automationCommands(ed.RewriteAptAutomation(env, cfg.Apt.Automation))
			aptChanged = aptChanged || len(cmds) > 0
			return runAll(ctx, env, StageAptAutomation, cmds)
		}},
		{StageAptKeys, func(ctx context.Context, env edition.Env) (bool, error) {
			cmds := keyCommands(ed.RewriteAptKeys(env, cfg.Apt.Keys))
			aptChanged = aptChanged || len(cmds) > 0
			return runAll(ctx, env, StageAptKeys, cmds)
		}},
		{StageAptKeyserver, func(ctx context.Context, env edition.Env) (bool, error) {
			cmds := keyserverCommands(ed.RewriteAptKeyserver(env, cfg.Apt.Keyservers))
			aptChanged = aptChanged || len(cmds) > 0
			return runAll(ctx, env, StageAptKeyserver, cmds)
		}},
		{StageAptUpdate, func(ctx context.Context, env edition.Env) (bool, error) {
			if !aptChanged {
				return true, nil
			}
			return false, edition.RunChecked(ctx, env, "usecase.provision."+StageAptUpdate, "apt-get update")
		}},
		{StageUpgradeSystem, func(ctx context.Context, env edition.Env) (bool, error) {
			return false, ed.UpgradeSystem(ctx, env)
		}},
		{StagePostInstall, func(ctx context.Context, env edition.Env) (bool, error) {
			return false, ed.PostInstall(ctx, env)
		}},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return uc.finish(rep, log, err)
		}

		rec := &stageRecorder{next: uc.runner}
		env := edition.Env{
			Environment: cfg.Environment(),
			Logger:      log.With("stage", st.name),
			Runner:      rec,
		}

		skipped, err := st.run(ctx, env)
		step := domain.StepResult{
			Name:     st.name,
			Commands: append([]string{}, rec.commands...),
			Skipped:  skipped && len(rec.commands) == 0,
		}
		if err != nil {
			step.Error = err.Error()
			rep.Steps = append(rep.Steps, step)
			return uc.finish(rep, log, fmt.Errorf("stage %q: %w", st.name, err))
		}
		rep.Steps = append(rep.Steps, step)
		log.Debug("provision.stage", "stage", st.name, "commands", len(step.Commands), "skipped", step.Skipped)
	}

	return uc.finish(rep, log, nil)
}

func (uc *Provision) finish(rep domain.ProvisionReport, log *slog.Logger, runErr error) (domain.ProvisionReport, string, error) {
	rep.EndedAt = uc.now()

	if runErr != nil {
		log.Error("provision.failed", "error", runErr)
	} else {
		log.Info("provision.done", "commands", rep.CommandCount())
	}

	if uc.store == nil || uc.dryRun {
		return rep, "", runErr
	}

	id, err := uc.store.SaveReport(rep)
	if err != nil {
		if runErr != nil {
			return rep, "", runErr
		}
		return rep, "", err
	}
	return rep, id, runErr
}

// stageRecorder remembers the commands one stage sends to the runner.
type stageRecorder struct {
	next     ports.PrivilegedRunner
	commands []string
}

func (s *stageRecorder) RunPrivileged(ctx context.Context, command string) (domain.CommandResult, error) {
	s.commands = append(s.commands, command)
	if s.next == nil {
		return domain.CommandResult{}, &domain.OpError{
			Op:   "usecase.provision.run",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("no privileged runner configured"),
		}
	}
	return s.next.RunPrivileged(ctx, command)
}

func runAll(ctx context.Context, env edition.Env, stageName string, cmds []string) (bool, error) {
	if len(cmds) == 0 {
		return true, nil
	}
	for _, c := range cmds {
		if err := edition.RunChecked(ctx, env, "usecase.provision."+stageName, c); err != nil {
			return false, err
		}
	}
	return false, nil
}

// sourceCommands fills the codename into each line and appends the ones the
// sources file does not already contain.
func sourceCommands(env edition.Env, lines []domain.SourceLine) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(env.SourcesFile) == "" {
		return nil, &domain.OpError{
			Op:   "usecase.provision." + StageAptSources,
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("sources file is not set: %w", domain.ErrInvalidConfig),
		}
	}

	file := shellescape.Quote(env.SourcesFile)
	seen := map[string]bool{}
	var cmds []string
	for _, l := range lines {
		line, err := RenderSourceLine(l, env.Codename)
		if err != nil {
			return nil, err
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		q := shellescape.Quote(line)
		cmds = append(cmds, fmt.Sprintf("grep -qxF -- %s %s || printf '%%s\\n' %s >> %s", q, file, q, file))
	}
	return cmds, nil
}

// RenderSourceLine replaces the %s codename placeholder of a source line.
func RenderSourceLine(line domain.SourceLine, codename string) (string, error) {
	s := strings.TrimSpace(string(line))
	if !strings.Contains(s, "%s") {
		return s, nil
	}
	if strings.TrimSpace(codename) == "" {
		return "", &domain.OpError{
			Op:   "usecase.render_source",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("source %q needs distribution.codename: %w", s, domain.ErrInvalidConfig),
		}
	}
	return strings.ReplaceAll(s, "%s", strings.TrimSpace(codename)), nil
}

func automationCommands(entries []domain.AutomationAnswer) []string {
	var cmds []string
	for _, a := range entries {
		cmds = append(cmds, fmt.Sprintf("echo %s | debconf-set-selections", shellescape.Quote(string(a))))
	}
	return cmds
}

func keyCommands(entries []domain.KeyEntry) []string {
	var cmds []string
	for _, k := range entries {
		cmds = append(cmds, fmt.Sprintf("wget -q -O- %s | apt-key add -", shellescape.Quote(string(k))))
	}
	return cmds
}

func keyserverCommands(entries []domain.KeyserverEntry) []string {
	var cmds []string
	for _, ks := range entries {
		cmds = append(cmds, fmt.Sprintf("apt-key adv --keyserver %s --recv %s",
			shellescape.Quote(ks.Server), shellescape.Quote(ks.KeyID)))
	}
	return cmds
}
