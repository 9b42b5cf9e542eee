package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/secmerge/pkg/baseline"
	"github.com/user/secmerge/pkg/classify"
	"github.com/user/secmerge/pkg/config"
	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/logging"
	"github.com/user/secmerge/pkg/render"
	"github.com/user/secmerge/pkg/runner"
	"github.com/user/secmerge/pkg/walk"
	"github.com/user/secmerge/pkg/wrappers"
)

type scanOptions struct {
	format       string
	output       string
	recursive    bool
	allFiles     bool
	workers      int
	tools        []string
	baselinePath string
	saveBaseline string
}

var scanOpts scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Run the analyzers on files or directories and print the merged report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := applyScanFlags(cfg, cmd, &scanOpts); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		runID := uuid.NewString()
		log := logging.With("run_id", runID)

		classifier := classify.New(ctx, cfg)
		if g, ok := classifier.(*classify.GeminiClassifier); ok {
			defer g.Close()
		}

		targets, err := collectTargets(ctx, args, scanOpts.recursive, cfg.Scan.COnly, classifier)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("no C or C++ sources found in %s", strings.Join(args, ", "))
		}

		analyzers := wrappers.FromConfig(cfg, runner.Exec{})
		if len(analyzers) == 0 {
			return fmt.Errorf("no analyzers enabled, check the tools section of the config")
		}
		eng := engine.New(engine.Options{Analyzers: analyzers, Logger: log})
		log.Infof("scanning %d targets with %s", len(targets), strings.Join(eng.Analyzers(), ", "))

		reports, diags := scanAll(ctx, eng, targets, cfg.Scan.Workers)
		if len(diags) > 0 {
			log.Warnf("%d analyzer runs failed, run with --debug for details", len(diags))
		}

		out := cmd.OutOrStdout()
		if scanOpts.output != "" {
			f, err := os.Create(scanOpts.output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := render.Write(out, scanOpts.format, reports); err != nil {
			return err
		}

		return handleBaseline(cmd.ErrOrStderr(), reports, scanOpts)
	},
}

func applyScanFlags(cfg *config.Config, cmd *cobra.Command, o *scanOptions) error {
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers = o.workers
	}
	if o.allFiles {
		cfg.Scan.COnly = false
	}
	if len(o.tools) > 0 {
		want := make(map[string]bool, len(o.tools))
		for _, t := range o.tools {
			name := strings.ToLower(strings.TrimSpace(t))
			if _, ok := cfg.Tools[name]; !ok {
				return fmt.Errorf("unknown tool %q (known: %s)", t, strings.Join(config.ToolNames, ", "))
			}
			want[name] = true
		}
		for name, tc := range cfg.Tools {
			tc.Disabled = !want[name]
			cfg.Tools[name] = tc
		}
	}
	return cfg.Validate()
}

// collectTargets expands the command line into scan targets. Directories are
// walked when recursive is set and scanned as a whole otherwise. With cOnly,
// files the classifier does not recognise as C or C++ are skipped.
func collectTargets(ctx context.Context, args []string, recursive, cOnly bool, c classify.Classifier) ([]string, error) {
	var targets []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		var files []string
		switch {
		case info.IsDir() && !recursive:
			targets = append(targets, arg)
			continue
		case info.IsDir():
			files, err = walk.Files(arg)
			if err != nil {
				return nil, err
			}
		default:
			files = []string{arg}
		}

		for _, f := range files {
			if cOnly {
				if lang := c.Language(ctx, f); !classify.IsC(lang) {
					logging.Debugf("skipping %s (language %s)", f, lang)
					continue
				}
			}
			targets = append(targets, f)
		}
	}
	return targets, nil
}

type scanner interface {
	Scan(ctx context.Context, target string) (engine.Report, []engine.Diagnostic)
}

// scanAll scans targets with at most workers concurrent scans. Reports keep
// the order of targets.
func scanAll(ctx context.Context, s scanner, targets []string, workers int) ([]engine.Report, []engine.Diagnostic) {
	reports := make([]engine.Report, len(targets))
	diags := make([][]engine.Diagnostic, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			reports[i], diags[i] = s.Scan(gctx, target)
			return nil
		})
	}
	_ = g.Wait()

	var all []engine.Diagnostic
	for _, d := range diags {
		all = append(all, d...)
	}
	return reports, all
}

func handleBaseline(w io.Writer, reports []engine.Report, o scanOptions) error {
	current := baseline.FromReports(reports)

	if o.baselinePath != "" {
		base, err := baseline.Load(o.baselinePath)
		if err != nil {
			return fmt.Errorf("load baseline: %w", err)
		}
		fmt.Fprintf(w, "\nComparison with %s:\n", o.baselinePath)
		fmt.Fprint(w, baseline.Compare(current, base).Summary(10))
	}
	if o.saveBaseline != "" {
		if err := baseline.Save(o.saveBaseline, current); err != nil {
			return fmt.Errorf("save baseline: %w", err)
		}
		fmt.Fprintf(w, "Saved %d findings to %s\n", len(current.Entries), o.saveBaseline)
	}
	return nil
}

func init() {
	f := scanCmd.Flags()
	f.StringVarP(&scanOpts.format, "format", "f", render.FormatTable, "Output format: "+strings.Join(render.Formats, ", "))
	f.StringVarP(&scanOpts.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.BoolVarP(&scanOpts.recursive, "recursive", "r", false, "Walk directories and scan each source file separately")
	f.BoolVar(&scanOpts.allFiles, "all-files", false, "Scan files even when they do not look like C or C++")
	f.IntVarP(&scanOpts.workers, "workers", "w", 4, "Files scanned concurrently")
	f.StringSliceVar(&scanOpts.tools, "tools", nil, "Only run these tools (flawfinder, cppcheck, rats, infer)")
	f.StringVar(&scanOpts.baselinePath, "baseline", "", "Compare findings with a saved baseline")
	f.StringVar(&scanOpts.saveBaseline, "save-baseline", "", "Save findings as a baseline file")
	rootCmd.AddCommand(scanCmd)
}
