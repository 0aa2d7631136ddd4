package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/config"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/configfinder"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/logger"
)

type workspaceCtx struct {
	root       string
	configPath string
	cfg        domain.Config
}

// loadWorkspace resolves and loads cloudbio.yaml; a non-empty editionFlag overrides its edition.
func loadWorkspace(configFlag, editionFlag string) (*workspaceCtx, error) {
	path, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := config.NewLoader().LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if e := strings.TrimSpace(editionFlag); e != "" {
		cfg.Edition = e
	}

	return &workspaceCtx{
		root:       filepath.Dir(path),
		configPath: path,
		cfg:        cfg,
	}, nil
}

func resolveConfigPath(configFlag string) (string, error) {
	c := strings.TrimSpace(configFlag)
	if c != "" {
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", fmt.Errorf("invalid config path: %w", err)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	path, err := configfinder.NewFinder().Locate(wd)
	if err != nil {
		return "", fmt.Errorf("%s not found from %q (tip: run `cloudbio init`): %w", config.FileName, wd, err)
	}
	return path, nil
}

// setupLogging opens the log under root. Logging problems never stop a run.
func setupLogging(cmd *cobra.Command, root string) func() {
	debug, _ := cmd.Flags().GetBool("debug")

	cleanup, err := logger.Setup(logger.Config{
		Root:    root,
		Debug:   debug,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil || cleanup == nil {
		return func() {}
	}
	return func() { _ = cleanup() }
}
