package usecase

import (
	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/edition"
)

// EditionPreview shows what an edition's rewrite hooks make of the configured apt data.
type EditionPreview struct {
	Identity   domain.EditionIdentity
	Sources    []domain.SourceLine
	Automation []domain.AutomationAnswer
	Keys       []domain.KeyEntry
	Keyservers []domain.KeyserverEntry
}

type PreviewEdition struct {
	registry *edition.Registry
}

func NewPreviewEdition(r *edition.Registry) *PreviewEdition {
	if r == nil {
		r = edition.Default
	}
	return &PreviewEdition{registry: r}
}

// Execute runs only the pure rewrite hooks; nothing is executed on the system.
// Unknown names are always an error here, whatever cfg.StrictEdition says.
func (uc *PreviewEdition) Execute(name string, cfg domain.Config) (EditionPreview, error) {
	ed, err := uc.registry.Select(name, cfg.Distribution.Version, edition.WithStrict(true))
	if err != nil {
		return EditionPreview{}, err
	}

	env := edition.Env{Environment: cfg.Environment()}
	return EditionPreview{
		Identity:   ed.Identity(),
		Sources:    ed.RewriteAptSourcesList(env, cfg.Apt.Sources),
		Automation: ed.RewriteAptAutomation(env, cfg.Apt.Automation),
		Keys:       ed.RewriteAptKeys(env, cfg.Apt.Keys),
		Keyservers: ed.RewriteAptKeyserver(env, cfg.Apt.Keyservers),
	}, nil
}
