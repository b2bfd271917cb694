package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/parity/app"
	"github.com/kilianp07/parity/pkg/export"
)

var tippingCmd = &cobra.Command{
	Use:   "tipping",
	Short: "Print the detected cost parity year per region",
	RunE:  tippingYears,
}

func init() {
	rootCmd.AddCommand(tippingCmd)
}

func tippingYears(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Publishing is pointless for a one-shot table.
	cfg.Publish.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	results, err := svc.Forecast(ctx)
	if err != nil {
		return err
	}
	return export.WriteTipping(cmd.OutOrStdout(), results)
}
