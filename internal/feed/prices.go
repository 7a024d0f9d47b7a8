package feed

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/poolquote/internal/pricing"
)

// breakpointLabel matches row labels like "do 3,25 m" or "up to 3.5m".
var breakpointLabel = regexp.MustCompile(`(?i)^(?:do|up\s+to)\s*([0-9]+(?:[.,][0-9]+)?)\s*(mm|m)?\.?$`)

// modelLabel matches a model header cell such as "PRACTIC" or "Dream".
var modelLabel = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 -]*$`)

// ParsePrices reads a CSV price feed. See ParsePriceRows for the layout.
func ParsePrices(r io.Reader) ([]pricing.PriceEntry, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return ParsePriceRows(rows)
}

// ParsePriceRows parses price feed rows. A model header row names the model
// in its first cell; the breakpoint rows that follow carry a width label and
// then a (price, height) pair for each module count from 2 to 7. Heights in
// metres are converted to millimetres. Cells with no price are skipped.
func ParsePriceRows(rows [][]string) ([]pricing.PriceEntry, error) {
	var (
		entries []pricing.PriceEntry
		model   string
	)
	for i, row := range rows {
		line := i + 1
		label := cell(row, 0)
		if label == "" || isEmptyRow(row) {
			continue
		}

		m := breakpointLabel.FindStringSubmatch(label)
		if m == nil {
			if modelLabel.MatchString(label) && !hasNumbers(row[1:]) {
				model = pricing.NormalizeModel(label)
			}
			continue
		}
		if model == "" {
			return nil, fmt.Errorf("line %d: breakpoint %q before any model header", line, label)
		}

		width, err := breakpointMm(m[1], m[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for modules := pricing.MinModules; modules <= pricing.MaxModules; modules++ {
			col := 1 + (modules-pricing.MinModules)*2
			price, ok, err := ParseAmount(cell(row, col))
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, col+1, err)
			}
			if !ok || !price.Amount.IsPositive() {
				continue
			}
			height, _, err := ParseValue(cell(row, col+1))
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, col+2, err)
			}
			entries = append(entries, pricing.PriceEntry{
				Model:    model,
				Modules:  modules,
				WidthMm:  width,
				Price:    price.Amount,
				HeightMm: heightMm(height.Amount),
			})
		}
	}
	if len(entries) == 0 {
		return nil, ErrEmptyFeed
	}
	return entries, nil
}

func breakpointMm(number, unit string) (int, error) {
	v, err := decimal.NewFromString(strings.Replace(number, ",", ".", 1))
	if err != nil {
		return 0, fmt.Errorf("breakpoint %q: %w", number, ErrBadValue)
	}
	if strings.EqualFold(unit, "mm") || v.GreaterThan(decimal.NewFromInt(100)) {
		return int(v.Round(0).IntPart()), nil
	}
	return int(v.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()), nil
}

// heightMm treats small values as metres.
func heightMm(v decimal.Decimal) decimal.Decimal {
	if v.IsPositive() && v.LessThan(decimal.NewFromInt(100)) {
		return v.Mul(decimal.NewFromInt(1000))
	}
	return v
}

func hasNumbers(cells []string) bool {
	for _, c := range cells {
		if _, ok, err := ParseValue(c); ok && err == nil {
			return true
		}
	}
	return false
}
