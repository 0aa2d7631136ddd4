package edition

import (
	"context"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
)

// Minimal only uses the distribution's default packages: it drops every
// configured source, debconf answer and key, and never forces an upgrade.
type Minimal struct {
	Base
}

var _ Edition = (*Minimal)(nil)

func NewMinimal(version string) *Minimal {
	return &Minimal{Base: Base{id: domain.EditionIdentity{
		Name:      "Minimal Edition",
		ShortName: "minimal",
		Version:   version,
	}}}
}

func (m *Minimal) RewriteAptSourcesList(_ Env, _ []domain.SourceLine) []domain.SourceLine {
	return []domain.SourceLine{}
}

func (m *Minimal) RewriteAptAutomation(_ Env, _ []domain.AutomationAnswer) []domain.AutomationAnswer {
	return []domain.AutomationAnswer{}
}

func (m *Minimal) RewriteAptKeys(_ Env, _ []domain.KeyEntry) []domain.KeyEntry {
	return []domain.KeyEntry{}
}

func (m *Minimal) RewriteAptKeyserver(_ Env, _ []domain.KeyserverEntry) []domain.KeyserverEntry {
	return []domain.KeyserverEntry{}
}

func (m *Minimal) UpgradeSystem(_ context.Context, env Env) error {
	env.Log().Debug("Skipping forced system upgrade", "edition", m.id.ShortName)
	return nil
}
