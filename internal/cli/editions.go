package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/edition"
	"github.com/SciLifeLab/cloudbiolinux/internal/usecase"
)

func editionsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "editions",
		Short: "Inspect the available editions",
	}

	c.AddCommand(editionsListCmd(), editionsShowCmd())
	return c
}

func editionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List editions",
		RunE: func(_ *cobra.Command, _ []string) error {
			return printEditions(os.Stdout, edition.Default)
		},
	}
}

func printEditions(w io.Writer, r *edition.Registry) error {
	table := tablewriter.NewWriter(w)
	table.Header("Short name", "Edition", "Default")

	for _, name := range r.Names() {
		ed, err := r.Select(name, "", edition.WithStrict(true))
		if err != nil {
			return err
		}
		def := ""
		if name == edition.BaseName {
			def = "yes"
		}
		if err := table.Append([]string{name, ed.Identity().Name, def}); err != nil {
			return err
		}
	}
	return table.Render()
}

func editionsShowCmd() *cobra.Command {
	var configPath string

	c := &cobra.Command{
		Use:   "show <edition>",
		Short: "Show what an edition makes of the configured apt data",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := domain.DefaultConfig()
			if ws, err := loadWorkspace(configPath, ""); err == nil {
				cfg = ws.cfg
			} else if configPath != "" {
				return err
			}

			p, err := usecase.NewPreviewEdition(edition.Default).Execute(args[0], cfg)
			if err != nil {
				return err
			}
			printPreview(os.Stdout, p)
			return nil
		},
	}

	c.Flags().StringVarP(&configPath, "config", "c", "", "Path to cloudbio.yaml (optional; autodetected if omitted)")
	return c
}

func printPreview(w io.Writer, p usecase.EditionPreview) {
	fmt.Fprintf(w, "Edition:    %s (%s)\n", p.Identity.Name, p.Identity.ShortName)
	if p.Identity.Version != "" {
		fmt.Fprintf(w, "Version:    %s\n", p.Identity.Version)
	}

	fmt.Fprintf(w, "\nsources (%d):\n", len(p.Sources))
	for _, s := range p.Sources {
		fmt.Fprintf(w, "  %s\n", s)
	}
	fmt.Fprintf(w, "automation (%d):\n", len(p.Automation))
	for _, a := range p.Automation {
		fmt.Fprintf(w, "  %s\n", a)
	}
	fmt.Fprintf(w, "keys (%d):\n", len(p.Keys))
	for _, k := range p.Keys {
		fmt.Fprintf(w, "  %s\n", k)
	}
	fmt.Fprintf(w, "keyservers (%d):\n", len(p.Keyservers))
	for _, ks := range p.Keyservers {
		fmt.Fprintf(w, "  %s %s\n", ks.Server, ks.KeyID)
	}
}
