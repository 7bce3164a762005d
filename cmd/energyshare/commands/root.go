package commands

import (
	"os"

	"github.com/spf13/cobra"

	"energyshare/internal/config"
)

// Version is set at build time with -ldflags "-X ...commands.Version=".
var Version = "dev"

var (
	configPath string
	cfg        *config.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:          "energyshare",
		Short:        "Web API for the Power Loans energy lending platform",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("ENERGYSHARE_CONFIG")
			}
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath+", or $ENERGYSHARE_CONFIG)")

	root.AddCommand(serveCmd(), configCmd(), versionCmd())
	return root.Execute()
}
