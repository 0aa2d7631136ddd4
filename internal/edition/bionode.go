package edition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
)

// DefaultDebianRepository is used when the environment names no mirror.
const DefaultDebianRepository = "http://ftp.us.debian.org/debian/"

// BioNode runs on plain Debian: it starts from an empty sources file and adds
// the main and -updates suites of a Debian mirror.
type BioNode struct {
	Base
}

var _ Edition = (*BioNode)(nil)

func NewBioNode(version string) *BioNode {
	return &BioNode{Base: Base{id: domain.EditionIdentity{
		Name:      "BioNode Edition",
		ShortName: "bionode",
		Version:   version,
	}}}
}

// CheckPackagesSource truncates env.SourcesFile. Nothing else may touch the
// file while this runs.
func (n *BioNode) CheckPackagesSource(ctx context.Context, env Env) error {
	path := strings.TrimSpace(env.SourcesFile)
	if path == "" {
		return &domain.OpError{
			Op:   "edition.bionode.check_packages_source",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("sources file is not set: %w", domain.ErrInvalidConfig),
		}
	}

	env.Log().Debug(fmt.Sprintf("Clearing %s", path), "edition", n.id.ShortName)

	err := RunChecked(ctx, env, "edition.bionode.check_packages_source", "cat /dev/null > "+shellescape.Quote(path))
	if err != nil {
		var oe *domain.OpError
		if errors.As(err, &oe) {
			oe.Path = path
		}
		return err
	}
	return nil
}

// RewriteAptSourcesList appends the mirror's main and -updates suites to sources.
func (n *BioNode) RewriteAptSourcesList(env Env, sources []domain.SourceLine) []domain.SourceLine {
	repo := strings.TrimSpace(env.DebianRepository)
	if repo == "" {
		repo = DefaultDebianRepository
	}

	out := make([]domain.SourceLine, 0, len(sources)+2)
	out = append(out, sources...)
	return append(out,
		domain.SourceLine(fmt.Sprintf("deb %s %%s main contrib non-free", repo)),
		domain.SourceLine(fmt.Sprintf("deb %s %%s-updates main contrib non-free", repo)),
	)
}
