package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/edition"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/dryrun"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/reportstore"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/shellrunner"
)

// --- fakes ---

// scriptedRunner fails the first command containing failOn.
type scriptedRunner struct {
	commands []string
	failOn   string
	err      error
}

func (r *scriptedRunner) RunPrivileged(_ context.Context, command string) (domain.CommandResult, error) {
	r.commands = append(r.commands, command)
	if r.failOn != "" && strings.Contains(command, r.failOn) {
		if r.err != nil {
			return domain.CommandResult{}, r.err
		}
		return domain.CommandResult{Command: command, ExitCode: 1, Stderr: "failed"}, nil
	}
	return domain.CommandResult{Command: command}, nil
}

type fakeStore struct {
	saved int
	last  domain.ProvisionReport
	err   error
}

func (s *fakeStore) SaveReport(rep domain.ProvisionReport) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved++
	s.last = rep
	return "report-1", nil
}

func testConfig(editionName string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Edition = editionName
	cfg.Distribution = domain.DistributionConfig{Version: "12", Codename: "bookworm"}
	cfg.Apt.SourcesFile = "/etc/apt/sources.list"
	cfg.Apt.Sources = []domain.SourceLine{"deb http://cran.example/bin/linux/debian %s-cran40/"}
	cfg.Apt.Automation = []domain.AutomationAnswer{"pkg shared/accepted boolean true"}
	cfg.Apt.Keys = []domain.KeyEntry{"http://cran.example/key.asc"}
	cfg.Apt.Keyservers = []domain.KeyserverEntry{{Server: "keyserver.ubuntu.com", KeyID: "E084DAB9"}}
	return cfg
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
}

func stepNames(rep domain.ProvisionReport) []string {
	var out []string
	for _, s := range rep.Steps {
		out = append(out, s.Name)
	}
	return out
}

func step(t *testing.T, rep domain.ProvisionReport, name string) domain.StepResult {
	t.Helper()
	for _, s := range rep.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("step %q not in report", name)
	return domain.StepResult{}
}

// --- tests ---

func TestProvision_BaseEditionRunsEveryStage(t *testing.T) {
	runner := &scriptedRunner{}
	store := &fakeStore{}
	uc := NewProvision(runner, WithStore(store), WithNow(fixedNow))

	rep, id, err := uc.Execute(context.Background(), testConfig("biolinux"))
	require.NoError(t, err)
	assert.Equal(t, "report-1", id)
	assert.Equal(t, 1, store.saved)

	assert.Equal(t, "biolinux", rep.Edition.ShortName)
	assert.Equal(t, "12", rep.Edition.Version)
	assert.Equal(t, []string{
		StageCheckPackagesSource, StageAptSources, StageAptAutomation, StageAptKeys,
		StageAptKeyserver, StageAptUpdate, StageUpgradeSystem, StagePostInstall,
	}, stepNames(rep))

	assert.Empty(t, step(t, rep, StageCheckPackagesSource).Commands)
	assert.Equal(t, []string{
		`grep -qxF -- 'deb http://cran.example/bin/linux/debian bookworm-cran40/' /etc/apt/sources.list || printf '%s\n' 'deb http://cran.example/bin/linux/debian bookworm-cran40/' >> /etc/apt/sources.list`,
	}, step(t, rep, StageAptSources).Commands)
	assert.Equal(t, []string{"echo 'pkg shared/accepted boolean true' | debconf-set-selections"}, step(t, rep, StageAptAutomation).Commands)
	assert.Equal(t, []string{"wget -q -O- http://cran.example/key.asc | apt-key add -"}, step(t, rep, StageAptKeys).Commands)
	assert.Equal(t, []string{"apt-key adv --keyserver keyserver.ubuntu.com --recv E084DAB9"}, step(t, rep, StageAptKeyserver).Commands)
	assert.Equal(t, []string{"apt-get update"}, step(t, rep, StageAptUpdate).Commands)
	assert.Equal(t, []string{edition.UpgradeCommand}, step(t, rep, StageUpgradeSystem).Commands)

	assert.Len(t, runner.commands, 6)
	assert.False(t, rep.Failed())
	assert.Equal(t, fixedNow(), rep.StartedAt)
}

func TestProvision_MinimalSkipsAptAndUpgrade(t *testing.T) {
	runner := &scriptedRunner{}

	rep, _, err := NewProvision(runner).Execute(context.Background(), testConfig("minimal"))
	require.NoError(t, err)

	assert.Equal(t, "minimal", rep.Edition.ShortName)
	assert.Empty(t, runner.commands)
	for _, name := range []string{StageAptSources, StageAptAutomation, StageAptKeys, StageAptKeyserver, StageAptUpdate} {
		assert.True(t, step(t, rep, name).Skipped, name)
	}
	assert.Empty(t, step(t, rep, StageUpgradeSystem).Commands)
}

func TestProvision_BioNodeClearsThenAddsMirror(t *testing.T) {
	runner := &scriptedRunner{}
	cfg := testConfig("bionode")
	cfg.Apt.DebianRepository = "http://mirror.example/debian/"

	rep, _, err := NewProvision(runner).Execute(context.Background(), cfg)
	require.NoError(t, err)

	require.NotEmpty(t, runner.commands)
	assert.Equal(t, "cat /dev/null > /etc/apt/sources.list", runner.commands[0])

	sources := step(t, rep, StageAptSources).Commands
	require.Len(t, sources, 3)
	assert.Contains(t, sources[1], "'deb http://mirror.example/debian/ bookworm main contrib non-free'")
	assert.Contains(t, sources[2], "'deb http://mirror.example/debian/ bookworm-updates main contrib non-free'")
}

func TestProvision_StageFailureAbortsAndKeepsPartialReport(t *testing.T) {
	runner := &scriptedRunner{failOn: "apt-get update"}
	store := &fakeStore{}

	rep, id, err := NewProvision(runner, WithStore(store)).Execute(context.Background(), testConfig("biolinux"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `stage "apt_update"`)
	assert.True(t, domain.IsKind(err, domain.KindExecution))

	assert.Equal(t, StageAptUpdate, rep.Steps[len(rep.Steps)-1].Name)
	assert.NotEmpty(t, rep.Steps[len(rep.Steps)-1].Error)
	assert.True(t, rep.Failed())
	assert.False(t, rep.EndedAt.IsZero())

	for _, c := range runner.commands {
		assert.NotEqual(t, edition.UpgradeCommand, c, "upgrade must not run after a failed stage")
	}

	assert.Equal(t, "report-1", id)
	assert.Equal(t, 1, store.saved)
	assert.True(t, store.last.Failed())
}

func TestProvision_RunnerErrorPropagates(t *testing.T) {
	boom := errors.New("sudo: a terminal is required")
	runner := &scriptedRunner{failOn: "cat /dev/null", err: boom}

	_, _, err := NewProvision(runner).Execute(context.Background(), testConfig("bionode"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), StageCheckPackagesSource)
}

func TestProvision_UnknownEditionFallsBack(t *testing.T) {
	rep, _, err := NewProvision(&scriptedRunner{}).Execute(context.Background(), testConfig("cloudman"))
	require.NoError(t, err)
	assert.Equal(t, "biolinux", rep.Edition.ShortName)
}

func TestProvision_UnknownEditionStrict(t *testing.T) {
	runner := &scriptedRunner{}
	cfg := testConfig("cloudman")
	cfg.StrictEdition = true

	rep, _, err := NewProvision(runner).Execute(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnknownEdition))
	assert.Empty(t, rep.Steps)
	assert.Empty(t, runner.commands)
}

func TestProvision_MissingCodename(t *testing.T) {
	cfg := testConfig("biolinux")
	cfg.Distribution.Codename = ""

	_, _, err := NewProvision(&scriptedRunner{}).Execute(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
	assert.Contains(t, err.Error(), StageAptSources)
}

func TestProvision_StopsOnContextCancel(t *testing.T) {
	runner := &scriptedRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, _, err := NewProvision(runner).Execute(ctx, testConfig("biolinux"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.commands)
	assert.Empty(t, rep.Steps)
	assert.False(t, rep.EndedAt.IsZero())
}

func TestProvision_DryRunNeverSaves(t *testing.T) {
	rec := dryrun.NewRecorder()
	store := &fakeStore{}

	rep, id, err := NewProvision(rec, WithDryRun(true), WithStore(store)).Execute(context.Background(), testConfig("bionode"))
	require.NoError(t, err)
	assert.True(t, rep.DryRun)
	assert.Empty(t, id)
	assert.Zero(t, store.saved)
	assert.Equal(t, rep.CommandCount(), len(rec.Commands()))
}

func TestProvision_StoreErrorReturnedOnSuccess(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}

	_, id, err := NewProvision(&scriptedRunner{}, WithStore(store)).Execute(context.Background(), testConfig("minimal"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, id)
}

func TestProvision_CustomRegistry(t *testing.T) {
	reg := edition.NewRegistry()
	require.NoError(t, reg.Register("cloudman", func(v string) edition.Edition { return edition.NewMinimal(v) }))

	rep, _, err := NewProvision(&scriptedRunner{}, WithRegistry(reg)).Execute(context.Background(), testConfig("cloudman"))
	require.NoError(t, err)
	assert.Equal(t, "minimal", rep.Edition.ShortName)
}

func TestProvision_DuplicateSourcesAppendedOnce(t *testing.T) {
	cfg := testConfig("biolinux")
	cfg.Apt.Sources = append(cfg.Apt.Sources, cfg.Apt.Sources[0])

	rep, _, err := NewProvision(&scriptedRunner{}).Execute(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, step(t, rep, StageAptSources).Commands, 1)
}

func TestProvision_AppendsSourcesOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.list")
	require.NoError(t, os.WriteFile(path, []byte("deb http://example/ stable main\n"), 0o644))

	cfg := testConfig("bionode")
	cfg.Apt.SourcesFile = path
	cfg.Apt.Automation = nil
	cfg.Apt.Keys = nil
	cfg.Apt.Keyservers = nil

	// Let everything except apt-get through to a real shell.
	real := shellrunner.New(shellrunner.WithPrivilege(nil))
	runner := &aptStub{next: real}

	_, _, err := NewProvision(runner).Execute(context.Background(), cfg)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"deb http://cran.example/bin/linux/debian bookworm-cran40/\n"+
			"deb http://ftp.us.debian.org/debian/ bookworm main contrib non-free\n"+
			"deb http://ftp.us.debian.org/debian/ bookworm-updates main contrib non-free\n",
		string(b))

	// A second run over the same file must not duplicate lines.
	cfg.Edition = "biolinux"
	cfg.Apt.Sources = []domain.SourceLine{"deb http://cran.example/bin/linux/debian %s-cran40/"}
	_, _, err = NewProvision(runner).Execute(context.Background(), cfg)
	require.NoError(t, err)

	b2, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(b2))
}

// aptStub answers apt-get commands itself and forwards the rest.
type aptStub struct {
	next *shellrunner.Runner
}

func (a *aptStub) RunPrivileged(ctx context.Context, command string) (domain.CommandResult, error) {
	if strings.Contains(command, "apt-get") {
		return domain.CommandResult{Command: command}, nil
	}
	return a.next.RunPrivileged(ctx, command)
}

func TestProvision_FailedCredentialAnswerNotSavedInClear(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig("biolinux")
	cfg.Apt.Automation = []domain.AutomationAnswer{"mysql-server mysql-server/root_password password hunter2"}

	runner := &scriptedRunner{failOn: "debconf-set-selections"}
	uc := NewProvision(runner, WithStore(reportstore.NewJSONStore(tmp, cfg)), WithNow(fixedNow))

	rep, id, err := uc.Execute(context.Background(), cfg)
	require.Error(t, err)
	require.NotEmpty(t, id)
	assert.NotContains(t, err.Error(), "hunter2")
	assert.NotEmpty(t, step(t, rep, StageAptAutomation).Error)

	b, err := os.ReadFile(filepath.Join(tmp, "reports", id+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hunter2")
}

func TestProvision_NilRunnerIsInvalidConfig(t *testing.T) {
	_, _, err := NewProvision(nil).Execute(context.Background(), testConfig("biolinux"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
	assert.Contains(t, err.Error(), StageAptSources)
}
