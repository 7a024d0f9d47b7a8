package feed

import (
	"fmt"
	"io"

	"github.com/Simplici0/poolquote/internal/pricing"
)

// ParseSurcharges reads a CSV surcharge feed. See ParseSurchargeRows.
func ParseSurcharges(r io.Reader) ([]pricing.SurchargeRule, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return ParseSurchargeRows(rows)
}

// ParseSurchargeRows parses rows of (name, standard, premium, fixed override).
// An empty premium cell copies the standard value. A non-empty override sets
// the fixed amount of both categories. A leading header row is skipped.
func ParseSurchargeRows(rows [][]string) ([]pricing.SurchargeRule, error) {
	var rules []pricing.SurchargeRule
	for i, row := range rows {
		line := i + 1
		name := cell(row, 0)
		if name == "" {
			continue
		}

		std, _, err := ParseAmount(cell(row, 1))
		if err != nil {
			if len(rules) == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d, standard: %w", line, err)
		}

		premium := std
		hasPremium := len(row) > 2
		if raw := cell(row, 2); raw != "" {
			if premium, _, err = ParseAmount(raw); err != nil {
				return nil, fmt.Errorf("line %d, premium: %w", line, err)
			}
		}

		override, hasOverride, err := ParseAmount(cell(row, 3))
		if err != nil {
			return nil, fmt.Errorf("line %d, fixed: %w", line, err)
		}

		stdRule := rule(name, std, pricing.CategoryStandard)
		premRule := rule(name, premium, pricing.CategoryPremium)
		if hasOverride {
			stdRule.Fixed = override.Amount
			premRule.Fixed = override.Amount
		}
		rules = append(rules, stdRule)
		if hasPremium {
			rules = append(rules, premRule)
		}
	}
	if len(rules) == 0 {
		return nil, ErrEmptyFeed
	}
	return rules, nil
}

func rule(name string, v Value, cat pricing.Category) pricing.SurchargeRule {
	r := pricing.SurchargeRule{Name: name, Category: cat}
	if v.Percent {
		r.Percent = v.Amount
	} else {
		r.Fixed = v.Amount
	}
	return r
}
