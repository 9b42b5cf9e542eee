package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/secmerge/pkg/classify"
	"github.com/user/secmerge/pkg/config"
	"github.com/user/secmerge/pkg/wrappers"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		w := setupWizard{
			in:         bufio.NewScanner(os.Stdin),
			out:        cmd.OutOrStdout(),
			listModels: classify.ListModels,
		}
		if !w.run(context.Background(), cfg) {
			return
		}

		if err := saveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Fprintln(w.out, "---------------------------------")
		fmt.Fprintln(w.out, "Setup Complete!")
		fmt.Fprintf(w.out, "Tools:      %s\n", strings.Join(cfg.Enabled(), ", "))
		fmt.Fprintf(w.out, "Classifier: %s\n", classifierSummary(cfg))
		fmt.Fprintln(w.out, "You can now run 'secmerge scan <path>'")
	},
}

type setupWizard struct {
	in         *bufio.Scanner
	out        io.Writer
	listModels func(ctx context.Context, apiKey string) ([]string, error)
}

func (w setupWizard) ask(prompt string) string {
	fmt.Fprint(w.out, prompt)
	if !w.in.Scan() {
		return ""
	}
	return strings.TrimSpace(w.in.Text())
}

func (w setupWizard) yes(prompt string, def bool) bool {
	suffix := " [y/N] > "
	if def {
		suffix = " [Y/n] > "
	}
	switch strings.ToLower(w.ask(prompt + suffix)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return def
}

// run walks the user through tool selection and the classifier. It returns
// false when the wizard was aborted and nothing should be saved.
func (w setupWizard) run(ctx context.Context, cfg *config.Config) bool {
	fmt.Fprintln(w.out, "Welcome to the secmerge Setup Wizard")
	fmt.Fprintln(w.out, "---------------------------------")

	// 1. Tools
	fmt.Fprintln(w.out, "Step 1: Analyzers")
	for _, s := range wrappers.Available(cfg) {
		where := "not found on PATH"
		if s.Installed() {
			where = s.Path
		}
		fmt.Fprintf(w.out, "  %-10s %s\n", s.Name, where)

		tc := cfg.Tools[s.Name]
		tc.Disabled = !w.yes(fmt.Sprintf("Enable %s?", s.Name), s.Installed() && s.Enabled)
		cfg.Tools[s.Name] = tc
	}
	if len(cfg.Enabled()) == 0 {
		fmt.Fprintln(w.out, "No analyzer enabled. Aborting.")
		return false
	}

	// 2. Classifier
	fmt.Fprintln(w.out, "\nStep 2: Language detection")
	if !w.yes("Detect languages with Gemini instead of file extensions?", cfg.Classifier.ApplyGuesslang) {
		cfg.Classifier.ApplyGuesslang = false
		return true
	}

	apiKey := w.ask("Enter Gemini API Key > ")
	if apiKey == "" {
		fmt.Fprintln(w.out, "API Key cannot be empty.")
		return false
	}

	fmt.Fprintln(w.out, "\nStep 3: Validating key and fetching available models...")
	models, err := w.listModels(ctx, apiKey)
	var selected string
	switch {
	case err != nil || len(models) == 0:
		fmt.Fprintf(w.out, "Warning: Could not fetch models from API: %v\n", err)
		selected = w.ask("Please enter model name manually (e.g., 'gemini-1.5-flash') > ")
	default:
		fmt.Fprintf(w.out, "Successfully retrieved %d models.\n", len(models))
		for i, m := range models {
			fmt.Fprintf(w.out, "%d. %s\n", i+1, m)
		}
		idx, err := strconv.Atoi(w.ask("Select Model (number) > "))
		if err != nil || idx < 1 || idx > len(models) {
			fmt.Fprintln(w.out, "Invalid selection. Using first available model.")
			idx = 1
		}
		selected = models[idx-1]
	}

	cfg.Classifier.ApplyGuesslang = true
	cfg.Classifier.Provider = "gemini"
	if selected != "" {
		cfg.Classifier.Model = selected
	}
	cfg.SetAPIKey("gemini", apiKey)
	return true
}

func classifierSummary(cfg *config.Config) string {
	if !cfg.Classifier.ApplyGuesslang {
		return "file extensions"
	}
	return fmt.Sprintf("%s (%s)", cfg.Classifier.Provider, cfg.Classifier.Model)
}

func init() {
	configCmd.AddCommand(setupCmd)
}
