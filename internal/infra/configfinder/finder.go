package configfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

// Finder locates the directory holding the provisioning config by searching upward.
type Finder struct {
	ConfigFile string // defaults to "cloudbio.yaml"
}

func NewFinder() *Finder {
	return &Finder{ConfigFile: "cloudbio.yaml"}
}

var _ ports.ConfigLocator = (*Finder)(nil)

func (f *Finder) FindRoot(startDir string) (string, error) {
	if startDir == "" {
		return "", &domain.OpError{
			Op:   "configfinder.findroot",
			Kind: domain.KindInvalidConfig,
			Err:  errors.New("startDir is empty"),
		}
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", &domain.OpError{
			Op:   "configfinder.findroot",
			Kind: domain.KindIO,
			Err:  err,
		}
	}

	if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for cur := filepath.Clean(abs); ; {
		if info, err := os.Stat(filepath.Join(cur, f.ConfigFile)); err == nil && !info.IsDir() {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", &domain.OpError{
				Op:   "configfinder.findroot",
				Kind: domain.KindNotFound,
				Err:  fmt.Errorf("%s above %s: %w", f.ConfigFile, abs, domain.ErrNotFound),
			}
		}
		cur = parent
	}
}

// Locate returns the full path of the config file found from startDir.
func (f *Finder) Locate(startDir string) (string, error) {
	root, err := f.FindRoot(startDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, f.ConfigFile), nil
}
