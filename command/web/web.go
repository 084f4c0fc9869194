package web

import (
	"encoding/csv"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	kcsv "kpicentral/connectors/csv"
	dconfig "kpicentral/domain/config"
)

// Cmd returns the web command.
//
// Endpoints:
//
//	GET /api/kpi/fiscal_year   -> <data>/kpi_fiscal_year.csv
//	GET /api/kpi/month         -> <data>/kpi_month.csv
//	GET /api/kpi/category      -> <data>/kpi_category.csv
//	GET /api/pm_cm/fiscal_year -> <data>/pm_cm_fiscal_year.csv
//	GET /api/pm_cm/month       -> <data>/pm_cm_month.csv
//	GET /api/unclassified      -> <data>/unclassified.csv
//	GET /api/straddling        -> <data>/straddling.csv (404 unless the single fiscal year policy ran)
//	GET /api/run               -> <data>/run.json
//	GET /metrics               -> <data>/kpi.prom
//
// When the UI directory holds a built app (index.html exists), static files are
// served at / and unknown routes fall back to index.html.
func Cmd(load func() (*dconfig.Config, error)) *cobra.Command {
	var addr, dataDir, uiDir string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the KPI tables as JSON and the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Web.Addr
			}
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			if uiDir == "" {
				uiDir = cfg.Web.UIDir
			}
			e := NewServer(dataDir, uiDir)
			log.Info().Str("addr", addr).Str("data", dataDir).Msg("web.start")
			return e.Start(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (default from config, :8080)")
	cmd.Flags().StringVar(&dataDir, "data", "", "directory containing the calculated files")
	cmd.Flags().StringVar(&uiDir, "ui", "", "directory containing the built UI")
	return cmd
}

// NewServer builds the echo instance serving dataDir.
func NewServer(dataDir, uiDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	missing := func(c echo.Context, path string, err error) error {
		if errors.Is(err, os.ErrNotExist) {
			return c.JSON(http.StatusNotFound, map[string]any{
				"error":   "file not found",
				"path":    path,
				"message": "run calculate first",
			})
		}
		log.Error().Err(err).Str("path", path).Msg("web.read.error")
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"path":    path,
			"message": "failed to read file",
		})
	}

	serveCSV := func(route string, filename string) {
		e.GET(route, func(c echo.Context) error {
			path := filepath.Join(dataDir, filename)
			rows, err := readCSV(path)
			if err != nil {
				return missing(c, path, err)
			}
			return c.JSON(http.StatusOK, rows)
		})
	}
	serveFile := func(route, filename, contentType string) {
		e.GET(route, func(c echo.Context) error {
			path := filepath.Join(dataDir, filename)
			b, err := os.ReadFile(path)
			if err != nil {
				return missing(c, path, err)
			}
			return c.Blob(http.StatusOK, contentType, b)
		})
	}

	serveCSV("/api/kpi/fiscal_year", kcsv.FileKPIFiscalYear)
	serveCSV("/api/kpi/month", kcsv.FileKPIMonth)
	serveCSV("/api/kpi/category", kcsv.FileKPICategory)
	serveCSV("/api/pm_cm/fiscal_year", kcsv.FilePMCMFiscalYear)
	serveCSV("/api/pm_cm/month", kcsv.FilePMCMMonth)
	serveCSV("/api/unclassified", kcsv.FileUnclassified)
	serveCSV("/api/straddling", kcsv.FileStraddling)
	serveFile("/api/run", kcsv.FileRunManifest, echo.MIMEApplicationJSON)
	serveFile("/metrics", kcsv.FilePrometheusExport, "text/plain; version=0.0.4; charset=utf-8")

	indexPath := filepath.Join(uiDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", uiDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Non-API 404s go to the SPA index.
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") && p != "/metrics" {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}

// readCSV loads a CSV file as objects keyed by header. Values stay strings.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := records[0]
	res := make([]map[string]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		obj := make(map[string]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			obj[headers[j]] = row[j]
		}
		res = append(res, obj)
	}
	return res, nil
}
