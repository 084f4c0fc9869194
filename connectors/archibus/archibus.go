// Package archibus loads the work-request table from the facility management
// database through gorm.
package archibus

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kpicentral/domain/workorder"
)

// DefaultTable is the historical work-request table.
const DefaultTable = "wr_hwr"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Handle is an open database connection bound to one table.
type Handle struct {
	DB    *gorm.DB
	Table string
}

// Open connects with the named driver: sqlite, postgres or mysql.
func Open(driver, dsn, table string) (*Handle, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("archibus: invalid table name %q", table)
	}
	var dial gorm.Dialector
	switch driver {
	case "sqlite", "":
		dial = sqlite.Open(dsn)
	case "postgres":
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("archibus: unknown driver %q", driver)
	}
	gdb, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("archibus: open %s: %w", driver, err)
	}
	return &Handle{DB: gdb, Table: table}, nil
}

// Close releases the underlying pool.
func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Fetch implements workorder.Source. Every column is read back as text.
func (h *Handle) Fetch(ctx context.Context) (workorder.RawTable, error) {
	rows, err := h.DB.WithContext(ctx).Raw("SELECT * FROM " + h.Table).Rows()
	if err != nil {
		return workorder.RawTable{}, fmt.Errorf("archibus: query %s: %w", h.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return workorder.RawTable{}, err
	}
	t := workorder.RawTable{Columns: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return workorder.RawTable{}, err
		}
		row := make([]sql.NullString, len(cols))
		for i, v := range vals {
			row[i] = toCell(v)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return workorder.RawTable{}, err
	}
	log.Info().Str("table", h.Table).Int("rows", len(t.Rows)).Msg("archibus.fetch.done")
	return t, nil
}

func toCell(v any) sql.NullString {
	switch x := v.(type) {
	case nil:
		return workorder.Null()
	case []byte:
		return workorder.Str(string(x))
	case string:
		return workorder.Str(x)
	case time.Time:
		return workorder.Str(x.Format("2006-01-02 15:04:05"))
	case int64:
		return workorder.Str(strconv.FormatInt(x, 10))
	case float64:
		return workorder.Str(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		return workorder.Str(strconv.FormatBool(x))
	default:
		return workorder.Str(fmt.Sprint(x))
	}
}
