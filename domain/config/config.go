package config

// Config represents the structure of config.yml used by the tool.
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Log      Log      `yaml:"log"`
	Source   Source   `yaml:"source"`
	Pipeline Pipeline `yaml:"pipeline"`
	Report   Report   `yaml:"report"`
	Web      Web      `yaml:"web"`
}

type Log struct {
	Level string `yaml:"level"` // zerolog level name
	File  string `yaml:"file"`  // optional JSON log file, appended to
}

// Source describes where raw work orders come from.
type Source struct {
	Driver string `yaml:"driver"` // sqlite | postgres | mysql
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
	Input  string `yaml:"input"` // raw CSV snapshot read by calculate
}

type Pipeline struct {
	Anchor       string `yaml:"anchor"` // milestone anchoring the fiscal year
	DurationFrom string `yaml:"duration_from"`
	DurationTo   string `yaml:"duration_to"`

	SingleFiscalYear struct {
		Enabled bool   `yaml:"enabled"`
		From    string `yaml:"from"`
		To      string `yaml:"to"`
	} `yaml:"single_fiscal_year"`

	Reassemble []Reassembly `yaml:"reassemble"`

	Selection           string         `yaml:"selection"` // all | pm | cm
	PreventiveTypes     []string       `yaml:"preventive_types"`
	PreventiveBenchmark int            `yaml:"preventive_benchmark"`
	Benchmarks          map[string]int `yaml:"benchmarks"` // overrides per category

	RequiredColumns []string `yaml:"required_columns"`
	IntColumns      []string `yaml:"int_columns"`
	BoolColumns     []string `yaml:"bool_columns"`
	RemovedStatuses []string `yaml:"removed_statuses"`
}

type Reassembly struct {
	Milestone  string `yaml:"milestone"`
	TimeColumn string `yaml:"time_column"`
}

type Report struct {
	CurrentFiscalYear int    `yaml:"current_fiscal_year"` // 0 means the fiscal year of today
	Cutoff            string `yaml:"cutoff"`              // YYYY-MM-DD, empty means first day of the current month
	MonthGrouping     string `yaml:"month_grouping"`      // milestone used for monthly buckets

	Labels struct {
		Percent string `yaml:"percent"`
		Total   string `yaml:"total"`
	} `yaml:"labels"`

	Categories struct {
		TopN    int `yaml:"top_n"`
		MinRows int `yaml:"min_rows"`
	} `yaml:"categories"`
}

type Web struct {
	Addr  string `yaml:"addr"`
	UIDir string `yaml:"ui_dir"`
}
