package calculate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	lo "github.com/samber/lo"
	"github.com/spf13/cobra"

	"kpicentral/connectors/archibus"
	kcsv "kpicentral/connectors/csv"
	"kpicentral/connectors/promfile"
	"kpicentral/connectors/watch"
	dconfig "kpicentral/domain/config"
	"kpicentral/domain/fiscal"
	"kpicentral/domain/kpi"
	"kpicentral/domain/pipeline"
	"kpicentral/domain/workorder"
)

// Flags are the command line overrides of the calculate command.
type Flags struct {
	Input     string
	FromDB    bool
	CurrentFY int
	Cutoff    string
	Selection string
	Watch     bool
}

// Cmd returns the calculate command. load supplies the resolved configuration.
func Cmd(load func() (*dconfig.Config, error)) *cobra.Command {
	var f Flags
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Normalize work orders and compute on-time KPI tables",
		Long: `Reads the raw work-request table (CSV export or database), normalizes it,
assigns fiscal years, classifies problem types and writes the KPI tables to
the data directory:

  kpi_fiscal_year.csv  pm_cm_fiscal_year.csv
  kpi_month.csv        pm_cm_month.csv
  kpi_category.csv     unclassified.csv  excluded.csv
  straddling.csv       work_orders.csv   run.json  kpi.prom`,
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
			out := cmd.OutOrStdout()
			if !f.Watch {
				_, err := Run(ctx, cfg, f, out)
				return err
			}
			if f.FromDB {
				return fmt.Errorf("calculate: --watch needs a CSV input")
			}
			if _, err := Run(ctx, cfg, f, out); err != nil {
				log.Error().Err(err).Msg("calculate.failed")
			}
			return watch.File(ctx, inputPath(cfg, f), watch.DefaultDebounce, func(ctx context.Context) error {
				_, err := Run(ctx, cfg, f, out)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&f.Input, "input", "", "raw work-order CSV (default <data>/work_orders_raw.csv)")
	cmd.Flags().BoolVar(&f.FromDB, "from-db", false, "read the work-request table from the configured database")
	cmd.Flags().IntVar(&f.CurrentFY, "current-fy", 0, "fiscal year of the monthly report (default: fiscal year of today)")
	cmd.Flags().StringVar(&f.Cutoff, "cutoff", "", "exclusive monthly cutoff, YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().StringVar(&f.Selection, "selection", "", "all, pm or cm")
	cmd.Flags().BoolVar(&f.Watch, "watch", false, "rerun whenever the input CSV changes")
	return cmd
}

func inputPath(cfg *dconfig.Config, f Flags) string {
	switch {
	case f.Input != "":
		return f.Input
	case cfg.Source.Input != "":
		return cfg.Source.Input
	default:
		return filepath.Join(cfg.DataDir, kcsv.FileRaw)
	}
}

func withFlags(cfg dconfig.Config, f Flags) dconfig.Config {
	if f.CurrentFY != 0 {
		cfg.Report.CurrentFiscalYear = f.CurrentFY
	}
	if f.Cutoff != "" {
		cfg.Report.Cutoff = f.Cutoff
	}
	if f.Selection != "" {
		cfg.Pipeline.Selection = f.Selection
	}
	return cfg
}

func source(cfg *dconfig.Config, f Flags) (workorder.Source, func() error, error) {
	if !f.FromDB {
		return kcsv.FileSource{Path: inputPath(cfg, f)}, func() error { return nil }, nil
	}
	h, err := archibus.Open(cfg.Source.Driver, cfg.Source.DSN, cfg.Source.Table)
	if err != nil {
		return nil, nil, err
	}
	return h, h.Close, nil
}

// Run executes one calculation and writes its outputs. A summary is printed to out.
func Run(ctx context.Context, base *dconfig.Config, f Flags, out io.Writer) (*pipeline.Result, error) {
	cfg := withFlags(*base, f)
	now := time.Now()
	opts, err := pipeline.FromConfig(cfg, now)
	if err != nil {
		return nil, err
	}

	src, closeSrc, err := source(&cfg, f)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	fyStart, fyEnd := fiscal.Bounds(opts.CurrentFY, time.UTC)
	log.Info().Bool("from_db", f.FromDB).Int("current_fy", opts.CurrentFY).
		Time("fy_start", fyStart).Time("fy_end", fyEnd).
		Str("cutoff", opts.Cutoff.Format(pipeline.CutoffLayout)).Str("selection", string(opts.Selection)).
		Msg("calculate.start")
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("calculate: read input: %w", err)
	}
	log.Info().Int("rows", len(raw.Rows)).Int("columns", len(raw.Columns)).Msg("phase.load.done")

	res, err := pipeline.Run(raw, opts, now)
	if err != nil {
		var dq *workorder.DataQualityError
		if errors.As(err, &dq) {
			log.Error().Int("row", dq.Row).Str("column", dq.Column).Str("value", dq.Value).Msg("phase.normalize.data_quality")
		}
		return nil, err
	}
	n := res.Normalize
	log.Info().Int("input", n.InputRows).Int("missing_required", n.MissingRequired).
		Int("test", n.ExcludedTest).Int("duplicate_ids", n.DuplicateIDs).Int("output", n.OutputRows).
		Msg("phase.normalize.done")
	if len(res.Gaps) > 0 {
		log.Warn().Int("gaps", len(res.Gaps)).Msg("phase.classify.gaps")
	}
	if res.RatioErr != nil {
		log.Warn().Err(res.RatioErr).Msg("phase.aggregate.ratio")
	}

	if err := writeOutputs(cfg, res); err != nil {
		return res, err
	}
	printSummary(out, res)
	log.Info().Str("run_id", res.RunID).Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).Msg("calculate.done")
	return res, nil
}

func writeOutputs(cfg dconfig.Config, res *pipeline.Result) error {
	dir := cfg.DataDir
	labels := kcsv.Labels{Percent: cfg.Report.Labels.Percent, Total: cfg.Report.Labels.Total}
	writes := []struct {
		file string
		fn   func(string) error
	}{
		{kcsv.FileKPIFiscalYear, func(p string) error { return kcsv.WriteSummaries(p, res.Yearly, labels, false) }},
		{kcsv.FilePMCMFiscalYear, func(p string) error { return kcsv.WriteSummaries(p, res.Yearly, labels, true) }},
		{kcsv.FileKPIMonth, func(p string) error { return kcsv.WriteSummaries(p, res.Monthly, labels, false) }},
		{kcsv.FilePMCMMonth, func(p string) error { return kcsv.WriteSummaries(p, res.Monthly, labels, true) }},
		{kcsv.FileKPICategory, func(p string) error { return kcsv.WriteSummaries(p, res.Categories, labels, false) }},
		{kcsv.FileUnclassified, func(p string) error { return kcsv.WriteExclusions(p, res.Unclassified()) }},
		{kcsv.FileExcluded, func(p string) error { return kcsv.WriteExclusions(p, res.Evaluation.Excluded) }},
		{kcsv.FileRecords, func(p string) error { return kcsv.WriteRecords(p, res.Records) }},
		{kcsv.FileRunManifest, func(p string) error { return writeManifest(p, res) }},
		{kcsv.FilePrometheusExport, func(p string) error { return promfile.Write(p, res) }},
	}
	if res.Partition == nil {
		path := filepath.Join(dir, kcsv.FileStraddling)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale %s: %w", path, err)
		}
	} else {
		writes = append(writes, struct {
			file string
			fn   func(string) error
		}{kcsv.FileStraddling, func(p string) error {
			return kcsv.WritePartition(p, *res.Partition, res.Options.StraddleFrom, res.Options.StraddleTo)
		}})
	}
	for _, w := range writes {
		path := filepath.Join(dir, w.file)
		if err := w.fn(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("phase.csv.write.error")
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// Manifest is the run.json document.
type Manifest struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	CurrentFY  int       `json:"current_fiscal_year"`
	FYStart    string    `json:"fiscal_year_start"`
	FYEnd      string    `json:"fiscal_year_end"`
	Cutoff     string    `json:"cutoff"`
	Selection  string    `json:"selection"`
	Anchor     string    `json:"anchor"`

	Normalize  any            `json:"normalize"`
	Reassembly any            `json:"reassembly"`
	Scored     int            `json:"scored"`
	Excluded   map[string]int `json:"excluded"`
	Straddling *int           `json:"straddling,omitempty"`
	RatioError string         `json:"ratio_error,omitempty"`
}

func manifest(res *pipeline.Result) Manifest {
	fyStart, fyEnd := fiscal.Bounds(res.Options.CurrentFY, time.UTC)
	m := Manifest{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt.UTC(),
		FinishedAt: res.FinishedAt.UTC(),
		CurrentFY:  res.Options.CurrentFY,
		FYStart:    fyStart.Format(pipeline.CutoffLayout),
		FYEnd:      fyEnd.AddDate(0, 0, -1).Format(pipeline.CutoffLayout),
		Cutoff:     res.Options.Cutoff.Format(pipeline.CutoffLayout),
		Selection:  string(res.Options.Selection),
		Anchor:     string(res.Options.Anchor),
		Normalize:  res.Normalize,
		Reassembly: res.Reassembly,
		Scored:     len(res.Evaluation.Scored),
		Excluded:   lo.CountValuesBy(res.Evaluation.Excluded, func(x kpi.Exclusion) string { return x.Reason }),
	}
	if res.Partition != nil {
		m.Straddling = lo.ToPtr(len(res.Partition.Straddling) + len(res.Partition.Undetermined))
	}
	if res.RatioErr != nil {
		m.RatioError = res.RatioErr.Error()
	}
	return m
}

func writeManifest(path string, res *pipeline.Result) error {
	b, err := json.MarshalIndent(manifest(res), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func printSummary(out io.Writer, res *pipeline.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintf(out, "Run %s\n", res.RunID)
	fmt.Fprintf(out, "  rows: %d in, %d normalized, %d scored\n",
		res.Normalize.InputRows, res.Normalize.OutputRows, len(res.Evaluation.Scored))
	for _, s := range res.Yearly.Rows {
		fmt.Fprintf(out, "  FY %s: %s on time (%d)\n", s.Group, green.Sprintf("%.2f%%", s.PercentOnTime), s.Total)
	}
	if n := len(res.Unclassified()); n > 0 {
		fmt.Fprintf(out, "  %s\n", yellow.Sprintf("%d unclassified work orders", n))
	}
	if res.RatioErr != nil {
		fmt.Fprintf(out, "  %s\n", yellow.Sprint("pm/cm ratio undefined for some groups"))
	}
}
