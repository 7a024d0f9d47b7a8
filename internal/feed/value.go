// Package feed reads the price and surcharge feeds exported from the
// manufacturer's spreadsheets. Both feeds arrive as CSV with an unknown
// delimiter or as XLSX workbooks.
package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrBadValue reports a cell that does not hold an amount.
var ErrBadValue = errors.New("not a number")

// Value is one normalized feed cell.
type Value struct {
	Amount decimal.Decimal
	// Percent marks values written with a % sign; Amount is then a fraction (15% = 0.15).
	Percent bool
}

var (
	blanks = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "")

	currencySuffix = regexp.MustCompile(`(?i)(kč|kc|czk|,-|\.-)$`)
)

// ParseValue normalizes a feed cell such as "1 500 Kč", "15 %", "0,91" or
// "1.234,50". An empty cell yields the zero Value and ok=false with a nil error.
// A single separator followed by exactly three digits is read as a thousands
// mark only when the cell carries a currency suffix; use ParseAmount for
// columns that always hold money.
func ParseValue(raw string) (Value, bool, error) {
	return parseValue(raw, false)
}

// ParseAmount is ParseValue for money columns: "160.000" is 160000 even
// without a currency suffix. "0,910" stays a fraction.
func ParseAmount(raw string) (Value, bool, error) {
	return parseValue(raw, true)
}

func parseValue(raw string, money bool) (v Value, ok bool, err error) {
	s := blanks.Replace(strings.TrimSpace(raw))
	for {
		trimmed := currencySuffix.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s, money = trimmed, true
	}
	if s == "" {
		return Value{}, false, nil
	}
	if strings.Contains(s, "%") {
		v.Percent = true
		money = false
		s = strings.ReplaceAll(s, "%", "")
	}

	amount, err := decimal.NewFromString(normalizeSeparators(s, money))
	if err != nil {
		return Value{}, false, fmt.Errorf("%q: %w", raw, ErrBadValue)
	}
	if v.Percent {
		amount = amount.Div(decimal.NewFromInt(100))
	}
	v.Amount = amount
	return v, true, nil
}

// normalizeSeparators rewrites decimal and thousands separators to plain
// dot-decimal notation. The last of '.' or ',' is the decimal mark when both
// appear; a mark that repeats is a thousands separator. With grouped set, a
// lone mark followed by exactly three digits is a thousands separator too,
// unless the integer part is zero.
func normalizeSeparators(s string, grouped bool) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 || grouped && thousandsMark(s, comma) {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0:
		if strings.Count(s, ".") > 1 || grouped && thousandsMark(s, dot) {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func thousandsMark(s string, at int) bool {
	if len(s)-at-1 != 3 {
		return false
	}
	whole := strings.TrimLeft(s[:at], "+-")
	return whole != "" && strings.Trim(whole, "0") != ""
}
