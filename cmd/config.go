package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/secmerge/pkg/classify"
	"github.com/user/secmerge/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (tools, classifier, keys)",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		// keys are never printed
		masked := *cfg
		masked.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
		for name, p := range cfg.Providers {
			if p.APIKey != "" {
				p.APIKey = "********"
			}
			masked.Providers[name] = p
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(&masked); err != nil {
			fmt.Printf("Error encoding config: %v\n", err)
		}
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Manually set API key for a provider",
	Run: func(cmd *cobra.Command, args []string) {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")

		if key == "" {
			fmt.Println("Error: --key is required")
			return
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		cfg.SetAPIKey(strings.ToLower(provider), key)
		if err := saveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Printf("API key saved for provider: %s\n", provider)
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Set the model used to guess source languages",
	Run: func(cmd *cobra.Command, args []string) {
		model, _ := cmd.Flags().GetString("model")
		enable, _ := cmd.Flags().GetBool("enable")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		if model != "" {
			cfg.Classifier.Model = model
		}
		if cmd.Flags().Changed("enable") {
			cfg.Classifier.ApplyGuesslang = enable
		}

		if err := saveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Classifier updated: Provider=%s, Model=%s, Enabled=%t\n",
			cfg.Classifier.Provider, cfg.Classifier.Model, cfg.Classifier.ApplyGuesslang)
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the classifier provider",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Println("Error loading config:", err)
			return
		}

		provider := cfg.Classifier.Provider
		apiKey := cfg.GetAPIKey(provider)
		if apiKey == "" {
			fmt.Printf("No API key found for %s.\n", provider)
			return
		}

		fmt.Printf("Fetching models for %s...\n", provider)
		models, err := classify.ListModels(context.Background(), apiKey)
		if err != nil {
			fmt.Println("Error fetching models:", err)
			return
		}

		fmt.Printf("\nAvailable Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == cfg.Classifier.Model {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, m)
		}
	},
}

var setToolCmd = &cobra.Command{
	Use:   "set-tool <name>",
	Short: "Change how one analyzer is run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := updateTool(cfg, cmd, strings.ToLower(args[0])); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}
		tc := cfg.Tools[strings.ToLower(args[0])]
		fmt.Fprintf(cmd.OutOrStdout(), "%s: binary=%s timeout=%s disabled=%t\n", args[0], tc.Binary, tc.Timeout, tc.Disabled)
		return nil
	},
}

func updateTool(cfg *config.Config, cmd *cobra.Command, name string) error {
	tc, ok := cfg.Tools[name]
	if !ok {
		return fmt.Errorf("unknown tool %q (known: %s)", name, strings.Join(config.ToolNames, ", "))
	}
	flags := cmd.Flags()
	if flags.Changed("binary") {
		tc.Binary, _ = flags.GetString("binary")
	}
	if flags.Changed("timeout") {
		tc.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("compiler") {
		tc.Compiler, _ = flags.GetString("compiler")
	}
	if flags.Changed("enable") {
		enable, _ := flags.GetBool("enable")
		tc.Disabled = !enable
	}
	cfg.Tools[name] = tc
	return cfg.Validate()
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			fmt.Println(configPath)
			return
		}
		p, err := config.GetConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		fmt.Println(p)
	},
}

func init() {
	setKeyCmd.Flags().StringP("provider", "p", "gemini", "Provider")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("model", "m", "", "Model name")
	setModelCmd.Flags().Bool("enable", false, "Classify files by content instead of extension")

	setToolCmd.Flags().String("binary", "", "Executable name or path")
	setToolCmd.Flags().Duration("timeout", 0, "Per-run deadline, e.g. 30s")
	setToolCmd.Flags().String("compiler", "", "Compiler infer wraps")
	setToolCmd.Flags().Bool("enable", true, "Run this tool during scans")

	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(listModelsCmd)
	configCmd.AddCommand(setToolCmd)
	configCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(configCmd)
}
