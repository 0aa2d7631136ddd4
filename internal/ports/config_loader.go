package ports

import "github.com/SciLifeLab/cloudbiolinux/internal/domain"

// ConfigLoader loads the provisioning configuration from a source (e.g., filesystem).
type ConfigLoader interface {
	LoadConfig(path string) (domain.Config, error)
}
