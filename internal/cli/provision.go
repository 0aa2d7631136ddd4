package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/dryrun"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/logger"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/reportstore"
	"github.com/SciLifeLab/cloudbiolinux/internal/infra/shellrunner"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
	"github.com/SciLifeLab/cloudbiolinux/internal/usecase"
)

func provisionCmd() *cobra.Command {
	var configPath string
	var editionName string
	var noSave bool
	var format string

	c := &cobra.Command{
		Use:   "provision",
		Short: "Run the provisioning pipeline with the configured edition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(configPath, editionName)
			if err != nil {
				return err
			}

			cleanup := setupLogging(cmd, ws.root)
			defer cleanup()

			argv, err := shellrunner.ParsePrivilege(ws.cfg.Privilege.Command)
			if err != nil {
				return err
			}
			runner := shellrunner.New(
				shellrunner.WithPrivilege(argv),
				shellrunner.WithLogger(logger.L()),
			)

			opts := []usecase.ProvisionOption{usecase.WithLogger(logger.L())}
			if !noSave {
				opts = append(opts, usecase.WithStore(reportstore.NewJSONStore(ws.root, ws.cfg, reportstore.WithIndex(true))))
			}

			return runPipeline(cmd, ws, runner, format, opts...)
		},
	}

	c.Flags().StringVarP(&configPath, "config", "c", "", "Path to cloudbio.yaml (optional; autodetected if omitted)")
	c.Flags().StringVarP(&editionName, "edition", "e", "", "Edition short name (overrides the config)")
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save the report under reports/")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

func planCmd() *cobra.Command {
	var configPath string
	var editionName string
	var format string

	c := &cobra.Command{
		Use:   "plan",
		Short: "Show the commands provisioning would run, without running them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(configPath, editionName)
			if err != nil {
				return err
			}

			cleanup := setupLogging(cmd, ws.root)
			defer cleanup()

			return runPipeline(cmd, ws, dryrun.NewRecorder(), format,
				usecase.WithLogger(logger.L()),
				usecase.WithDryRun(true),
			)
		},
	}

	c.Flags().StringVarP(&configPath, "config", "c", "", "Path to cloudbio.yaml (optional; autodetected if omitted)")
	c.Flags().StringVarP(&editionName, "edition", "e", "", "Edition short name (overrides the config)")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

func runPipeline(cmd *cobra.Command, ws *workspaceCtx, runner ports.PrivilegedRunner, format string, opts ...usecase.ProvisionOption) error {
	uc := usecase.NewProvision(runner, opts...)

	rep, reportID, err := uc.Execute(cmd.Context(), ws.cfg)
	if perr := printReport(os.Stdout, rep, reportID, format); perr != nil && err == nil {
		return perr
	}
	return err
}

func printReport(w io.Writer, rep domain.ProvisionReport, reportID string, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		payload := map[string]any{
			"report_id": reportID,
			"report":    rep,
		}
		return enc.Encode(payload)
	case "pretty", "":
		printPrettyReport(w, rep, reportID)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func printPrettyReport(w io.Writer, rep domain.ProvisionReport, reportID string) {
	total := rep.EndedAt.Sub(rep.StartedAt)
	if rep.StartedAt.IsZero() || rep.EndedAt.IsZero() {
		total = 0
	}

	fmt.Fprintf(w, "Edition:    %s (%s)\n", rep.Edition.Name, rep.Edition.ShortName)
	fmt.Fprintf(w, "Version:    %s\n", rep.Edition.Version)
	fmt.Fprintf(w, "Sources:    %s\n", rep.Environment.SourcesFile)
	fmt.Fprintf(w, "Started:    %s\n", rep.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:   %s\n", total)
	if rep.DryRun {
		fmt.Fprintf(w, "Mode:       %s\n", color.YellowString("dry run"))
	}
	if reportID != "" {
		fmt.Fprintf(w, "Report ID:  %s\n", reportID)
	}
	fmt.Fprintln(w)

	for _, s := range rep.Steps {
		fmt.Fprintf(w, "- [%s] %s\n", stepStatus(s), s.Name)
		for _, c := range s.Commands {
			fmt.Fprintf(w, "    $ %s\n", c)
		}
		if s.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", s.Error)
		}
	}
}

func stepStatus(s domain.StepResult) string {
	switch {
	case s.Error != "":
		return color.RedString("FAIL")
	case s.Skipped:
		return color.HiBlackString("SKIP")
	default:
		return color.GreenString("OK")
	}
}
