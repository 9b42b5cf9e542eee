package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/logging"
	"github.com/user/secmerge/pkg/metrics"
	"github.com/user/secmerge/pkg/runner"
	"github.com/user/secmerge/pkg/server"
	"github.com/user/secmerge/pkg/wrappers"
)

var (
	serveAddr string
	serveRoot string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scans over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		if cmd.Flags().Changed("root") {
			cfg.Server.Root = serveRoot
		}
		if !DebugMode {
			gin.SetMode(gin.ReleaseMode)
		}

		collector := metrics.NewCollector()
		eng := engine.New(engine.Options{
			Analyzers: wrappers.FromConfig(cfg, runner.Exec{}),
			Observer:  collector,
			Logger:    logging.L(),
		})

		srv, err := server.New(cfg.Server.Root, cfg.Server.MaxResults, eng, collector, logging.With("component", "server"))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	serveCmd.Flags().StringVar(&serveRoot, "root", ".", "Only paths below this directory may be scanned")
	rootCmd.AddCommand(serveCmd)
}
