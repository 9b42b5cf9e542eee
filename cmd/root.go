package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user/secmerge/pkg/config"
	"github.com/user/secmerge/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "secmerge",
	Short: "Aggregate C/C++ static analysis findings into one report",
	Long: `secmerge runs FlawFinder, CppCheck, Rats and optionally infer on C and C++
sources and merges their findings into a single table with a fixed schema.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(DebugMode)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var (
	DebugMode  bool
	configPath string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configPath)
}

func saveConfig(cfg *config.Config) error {
	return config.SaveConfig(configPath, cfg)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.secmerge/config.yaml)")
}
