package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cloudbio",
		Short:        "cloudbio: provision CloudBioLinux editions on Debian/Ubuntu hosts",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "enable verbose logging to .cloudbio/logs/cloudbio.log")

	cmd.AddCommand(
		provisionCmd(),
		planCmd(),
		editionsCmd(),
		initCmd(),
		versionCmd(),
	)
	return cmd
}
