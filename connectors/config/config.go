package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	dconfig "kpicentral/domain/config"
)

// DefaultPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultPath = "./config.yml"

// Path resolves the configuration path: explicit value, then CONFIG_PATH, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load parses the YAML configuration file at path, applies environment
// overrides and fills defaults. A missing file is not an error.
func Load(path string) (*dconfig.Config, error) {
	var c dconfig.Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("config.loaded")
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("config.missing")
	default:
		return nil, err
	}

	if err := applyEnv(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyEnv(c *dconfig.Config) error {
	envOverride(&c.DataDir, "KPI_DATA_DIR")
	envOverride(&c.Log.Level, "KPI_LOG_LEVEL")
	envOverride(&c.Log.File, "KPI_LOG_FILE")
	envOverride(&c.Source.Driver, "KPI_SOURCE_DRIVER")
	envOverride(&c.Source.DSN, "KPI_SOURCE_DSN")
	envOverride(&c.Source.Table, "KPI_SOURCE_TABLE")
	envOverride(&c.Source.Input, "KPI_SOURCE_INPUT")
	envOverride(&c.Report.Cutoff, "KPI_CUTOFF")
	envOverride(&c.Pipeline.Anchor, "KPI_ANCHOR")
	envOverride(&c.Pipeline.Selection, "KPI_SELECTION")
	if v := strings.TrimSpace(os.Getenv("KPI_CURRENT_FY")); v != "" {
		fy, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KPI_CURRENT_FY: %w", err)
		}
		c.Report.CurrentFiscalYear = fy
	}
	return nil
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(c *dconfig.Config) {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Source.Driver == "" {
		c.Source.Driver = "sqlite"
	}
	if c.Source.Table == "" {
		c.Source.Table = "wr_hwr"
	}
	if c.Report.MonthGrouping == "" {
		c.Report.MonthGrouping = "closed"
	}
	if c.Report.Labels.Percent == "" {
		c.Report.Labels.Percent = "percent_on_time"
	}
	if c.Report.Labels.Total == "" {
		c.Report.Labels.Total = "total"
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Web.UIDir == "" {
		c.Web.UIDir = "./ui/dist"
	}
}
