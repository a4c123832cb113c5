package domain

import "strings"

// ColumnPolicy decides how many ';'-separated fields a data line must have.
type ColumnPolicy string

const (
	// ColumnsAtLeast accepts lines with five or more fields.
	ColumnsAtLeast ColumnPolicy = "at_least"
	// ColumnsExact accepts lines with exactly five fields.
	ColumnsExact ColumnPolicy = "exact"
)

// expectedColumns is the field count of a gauge export line:
// date;time;flag;value;quality.
const expectedColumns = 5

// ParseColumnPolicy maps a configuration string to a ColumnPolicy.
func ParseColumnPolicy(s string) (ColumnPolicy, bool) {
	switch ColumnPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case ColumnsAtLeast:
		return ColumnsAtLeast, true
	case ColumnsExact:
		return ColumnsExact, true
	default:
		return "", false
	}
}

func (p ColumnPolicy) accepts(n int) bool {
	if p == ColumnsExact {
		return n == expectedColumns
	}
	return n >= expectedColumns
}

// DataRow is a data line split into fields. Line is 1-based in the original input.
type DataRow struct {
	Line   int      `json:"line"`
	Fields []string `json:"fields"`
}

// ParsedInput holds the classified lines of one gauge file.
type ParsedInput struct {
	Headers []string
	Rows    []DataRow
}

// ParseLines classifies raw lines into header text and data rows.
//
// Blank lines are dropped. Lines starting with '#' are headers. Any other line is a
// data row when its field count satisfies policy and its first field contains
// exactly two '-'; lines that fail the shape test are kept as headers so nothing
// is lost. An empty policy means ColumnsAtLeast.
func ParseLines(lines []string, policy ColumnPolicy) ParsedInput {
	var out ParsedInput
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			out.Headers = append(out.Headers, line)
			continue
		}

		fields := strings.Split(line, ";")
		if policy.accepts(len(fields)) && strings.Count(fields[0], "-") == 2 {
			out.Rows = append(out.Rows, DataRow{Line: i + 1, Fields: fields})
			continue
		}
		out.Headers = append(out.Headers, line)
	}
	return out
}
