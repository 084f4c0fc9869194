package cmdimport

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kpicentral/connectors/archibus"
	kcsv "kpicentral/connectors/csv"
	dconfig "kpicentral/domain/config"
)

// Flags override the configured source for one import.
type Flags struct {
	Driver string
	DSN    string
	Table  string
	Out    string
}

// Cmd returns the import command.
func Cmd(load func() (*dconfig.Config, error)) *cobra.Command {
	var f Flags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Export the work-request table from the database to CSV",
		Long: `Reads every row of the configured work-request table and writes it unchanged
to <data>/work_orders_raw.csv, the default input of calculate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return Run(ctx, cfg, f, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.Driver, "driver", "", "sqlite, postgres or mysql (default from config)")
	cmd.Flags().StringVar(&f.DSN, "dsn", "", "database DSN (default from config)")
	cmd.Flags().StringVar(&f.Table, "table", "", "work-request table (default from config)")
	cmd.Flags().StringVar(&f.Out, "out", "", "output CSV (default <data>/work_orders_raw.csv)")
	return cmd
}

// Run copies the table to CSV.
func Run(ctx context.Context, cfg *dconfig.Config, f Flags, out io.Writer) error {
	src := cfg.Source
	if f.Driver != "" {
		src.Driver = f.Driver
	}
	if f.DSN != "" {
		src.DSN = f.DSN
	}
	if f.Table != "" {
		src.Table = f.Table
	}
	if src.DSN == "" {
		log.Error().Str("reason", "missing dsn").Msg("import.validation.error")
		return fmt.Errorf("import: no database DSN; set source.dsn, KPI_SOURCE_DSN or --dsn")
	}
	path := f.Out
	if path == "" {
		path = filepath.Join(cfg.DataDir, kcsv.FileRaw)
	}

	log.Info().Str("driver", src.Driver).Str("table", src.Table).Msg("import.start")
	h, err := archibus.Open(src.Driver, src.DSN, src.Table)
	if err != nil {
		return err
	}
	defer h.Close()

	raw, err := h.Fetch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("import.fetch.error")
		return err
	}
	if err := kcsv.WriteTable(path, raw); err != nil {
		log.Error().Err(err).Str("path", path).Msg("phase.csv.write.error")
		return err
	}
	log.Info().Int("rows", len(raw.Rows)).Str("output", path).Msg("import.done")
	fmt.Fprintf(out, "%s %d rows to %s\n", color.New(color.FgGreen).Sprint("imported"), len(raw.Rows), path)
	return nil
}
