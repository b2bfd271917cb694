package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/parity/app"
	"github.com/kilianp07/parity/config"
	"github.com/kilianp07/parity/infra/logger"
	"github.com/kilianp07/parity/pkg/export"
)

var (
	cfgPath string
	regions []string
)

var rootCmd = &cobra.Command{
	Use:   "parity",
	Short: "Cost parity and displacement forecast service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringSliceVarP(&regions, "region", "r", nil, "restrict the run to these regions")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(regions) > 0 {
		cfg.Catalog.Regions = regions
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	results, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), results)
}
