package config

import (
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
)

// MapConfig applies parsed values on top of domain.DefaultConfig and validates the result.
func MapConfig(path string, y YAMLConfig) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	if v := strings.TrimSpace(y.Edition); v != "" {
		cfg.Edition = v
	}
	if y.StrictEdition != nil {
		cfg.StrictEdition = *y.StrictEdition
	}

	cfg.Distribution.Version = strings.TrimSpace(y.Distribution.Version)
	cfg.Distribution.Codename = strings.TrimSpace(y.Distribution.Codename)

	if v := strings.TrimSpace(y.Apt.SourcesFile); v != "" {
		cfg.Apt.SourcesFile = v
	}
	cfg.Apt.DebianRepository = strings.TrimSpace(y.Apt.DebianRepository)

	for i, s := range y.Apt.Sources {
		if strings.TrimSpace(s) == "" {
			return domain.Config{}, invalidField(path, fmt.Sprintf("apt.sources[%d]", i), "source line is empty")
		}
		cfg.Apt.Sources = append(cfg.Apt.Sources, domain.SourceLine(strings.TrimSpace(s)))
	}
	for i, a := range y.Apt.Automation {
		if strings.TrimSpace(a) == "" {
			return domain.Config{}, invalidField(path, fmt.Sprintf("apt.automation[%d]", i), "answer is empty")
		}
		cfg.Apt.Automation = append(cfg.Apt.Automation, domain.AutomationAnswer(strings.TrimSpace(a)))
	}
	for i, k := range y.Apt.Keys {
		if strings.TrimSpace(k) == "" {
			return domain.Config{}, invalidField(path, fmt.Sprintf("apt.keys[%d]", i), "key is empty")
		}
		cfg.Apt.Keys = append(cfg.Apt.Keys, domain.KeyEntry(strings.TrimSpace(k)))
	}
	for i, ks := range y.Apt.Keyservers {
		prefix := fmt.Sprintf("apt.keyservers[%d]", i)
		if strings.TrimSpace(ks.Server) == "" {
			return domain.Config{}, invalidField(path, prefix+".server", "server is required")
		}
		if strings.TrimSpace(ks.ID) == "" {
			return domain.Config{}, invalidField(path, prefix+".id", "id is required")
		}
		cfg.Apt.Keyservers = append(cfg.Apt.Keyservers, domain.KeyserverEntry{
			Server: strings.TrimSpace(ks.Server),
			KeyID:  strings.TrimSpace(ks.ID),
		})
	}

	if y.Privilege.Command != nil {
		cfg.Privilege.Command = strings.TrimSpace(*y.Privilege.Command)
	}
	if _, err := shlex.Split(cfg.Privilege.Command); err != nil {
		return domain.Config{}, invalidField(path, "privilege.command", err.Error())
	}

	if v := strings.TrimSpace(y.Paths.ReportsDir); v != "" {
		cfg.Paths.ReportsDir = v
	}

	return cfg, nil
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "config.map",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
