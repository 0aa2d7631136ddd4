package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

// FileName is the configuration file looked up in a workspace.
const FileName = "cloudbio.yaml"

type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

var _ ports.ConfigLoader = (*Loader)(nil)

func (l *Loader) LoadConfig(path string) (domain.Config, error) {
	return Load(path)
}

// Load reads a cloudbio.yaml file and applies defaults.
func Load(path string) (domain.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y YAMLFile
	if err := yaml.Unmarshal(b, &y); err != nil {
		return domain.Config{}, &domain.OpError{
			Op:   "config.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	return MapConfig(path, y.CloudBio)
}
