package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcalculate "kpicentral/command/calculate"
	cmdimport "kpicentral/command/import"
	cmdweb "kpicentral/command/web"
	cconfig "kpicentral/connectors/config"
	"kpicentral/connectors/logs"
	dconfig "kpicentral/domain/config"
)

// Facility work-order KPI pipeline.
// Usage:
//   kpicentral import   [--dsn ...] [--table wr_hwr]
//   kpicentral calculate [--input data/work_orders_raw.csv | --from-db] [--current-fy 2024] [--cutoff 2024-03-15]
//   kpicentral web      [--addr :8080]
// ENV: CONFIG_PATH points to a YAML config file (default ./config.yml); KPI_* variables override it.

func main() {
	var (
		cfgPath  string
		logLevel string
		cfg      *dconfig.Config
		closer   io.Closer
	)
	load := func() (*dconfig.Config, error) {
		if cfg == nil {
			return nil, fmt.Errorf("configuration not loaded")
		}
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:           "kpicentral",
		Short:         "Facility work-order on-time KPIs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := cconfig.Load(cconfig.Path(cfgPath))
			if err != nil {
				return err
			}
			if logLevel != "" {
				c.Log.Level = logLevel
			}
			_, cl, err := logs.New(logs.Options{Level: c.Log.Level, File: c.Log.File, Console: os.Stderr})
			if err != nil {
				return err
			}
			cfg, closer = c, cl
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file (default $CONFIG_PATH or ./config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(cmdimport.Cmd(load))
	rootCmd.AddCommand(cmdcalculate.Cmd(load))
	rootCmd.AddCommand(cmdweb.Cmd(load))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if closer != nil {
		closer.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
