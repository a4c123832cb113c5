package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	dateField  = 0
	valueField = 3
)

var (
	errNotFinite  = errors.New("value is not finite")
	errNotDecimal = errors.New("value is not a decimal number")
)

// Normalize converts data rows into a Series, one observation per row in row order.
//
// A malformed date or value aborts the whole conversion with a *DateParseError or
// *ValueParseError; rows are never skipped. A value equal to MissingSentinel becomes
// a missing reading.
func Normalize(rows []DataRow) (Series, error) {
	obs := make([]Observation, 0, len(rows))
	for _, row := range rows {
		o, err := normalizeRow(row)
		if err != nil {
			return Series{}, err
		}
		obs = append(obs, o)
	}
	return Series{obs: obs}, nil
}

func normalizeRow(row DataRow) (Observation, error) {
	if len(row.Fields) <= valueField {
		return Observation{}, &ValueParseError{Line: row.Line, Err: errors.New("missing value field")}
	}

	date, err := time.Parse(dateLayout, row.Fields[dateField])
	if err != nil {
		return Observation{}, &DateParseError{Line: row.Line, Value: row.Fields[dateField], Err: err}
	}

	raw := strings.TrimSpace(row.Fields[valueField])
	if isHexLiteral(raw) {
		return Observation{}, &ValueParseError{Line: row.Line, Value: raw, Err: errNotDecimal}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Observation{}, &ValueParseError{Line: row.Line, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Observation{}, &ValueParseError{Line: row.Line, Value: raw, Err: errNotFinite}
	}

	if v == MissingSentinel {
		return Observation{Date: date, Reading: Missing()}, nil
	}
	return Observation{Date: date, Reading: Valid(v)}, nil
}

// isHexLiteral catches the hexadecimal floats ParseFloat would otherwise accept.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
