package normalize

import (
	"strings"

	lo "github.com/samber/lo"

	"kpicentral/domain/workorder"
)

// CleanColumnName standardizes a column label.
func CleanColumnName(label string) string {
	c := strings.ToLower(strings.TrimSpace(label))
	c = strings.ReplaceAll(c, " ", "_")
	c = strings.ReplaceAll(c, "(", "")
	c = strings.ReplaceAll(c, ")", "")
	c = strings.ReplaceAll(c, "/", "_")
	for strings.Contains(c, "__") {
		c = strings.ReplaceAll(c, "__", "_")
	}
	return c
}

// isArtifact reports labels left behind by a parser, such as an exported index column.
func isArtifact(label string) bool {
	return label == "" || strings.HasPrefix(label, "unnamed")
}

// CleanColumns standardizes labels, drops parser artifacts, renames legacy aliases
// and removes duplicate columns (first occurrence wins). The input is not modified.
func CleanColumns(raw workorder.RawTable) workorder.RawTable {
	type col struct {
		label string
		pos   int
	}
	cols := make([]col, 0, len(raw.Columns))
	for i, c := range raw.Columns {
		label := CleanColumnName(c)
		if isArtifact(label) {
			continue
		}
		if alias, ok := workorder.LegacyAliases[label]; ok {
			label = alias
		}
		cols = append(cols, col{label: label, pos: i})
	}
	cols = lo.UniqBy(cols, func(c col) string { return c.label })

	out := workorder.RawTable{Columns: lo.Map(cols, func(c col, _ int) string { return c.label })}
	out.Rows = lo.Map(raw.Rows, func(r []workorderCell, _ int) []workorderCell {
		row := make([]workorderCell, len(cols))
		for j, c := range cols {
			if c.pos < len(r) {
				row[j] = r[c.pos]
			}
		}
		return row
	})
	return out
}
