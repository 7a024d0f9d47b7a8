package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category selects the surcharge column. The premium variant has its own
// price column and falls back to the standard one.
type Category int

const (
	CategoryStandard Category = iota
	CategoryPremium
)

func (c Category) String() string {
	if c == CategoryPremium {
		return "premium"
	}
	return "standard"
}

// ParseCategory accepts "standard" and "premium" in any case. "rock" is an
// alias for premium.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return CategoryStandard, nil
	case "premium", "rock":
		return CategoryPremium, nil
	}
	return CategoryStandard, fmt.Errorf("unknown surcharge category %q", s)
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names understood by ParseCategory.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// PremiumModel is the model priced from the premium surcharge column.
const PremiumModel = "ROCK"

// IsPremiumModel reports whether model uses the premium surcharge category.
func IsPremiumModel(model string) bool {
	return NormalizeModel(model) == PremiumModel
}

// SurchargeRule is one named surcharge. Only one of Fixed and Percent is
// meaningful; Percent is a fraction (0.15 means 15%).
type SurchargeRule struct {
	Name     string          `json:"name"`
	Fixed    decimal.Decimal `json:"fixed"`
	Percent  decimal.Decimal `json:"percent"`
	Category Category        `json:"category"`
}

// SurchargeValue is the result of a surcharge search.
type SurchargeValue struct {
	Fixed   decimal.Decimal
	Percent decimal.Decimal
}

// SurchargeTable holds surcharge rules in import order.
type SurchargeTable struct {
	rules []SurchargeRule
}

// NewSurchargeTable copies rules into an immutable table.
func NewSurchargeTable(rules []SurchargeRule) *SurchargeTable {
	out := make([]SurchargeRule, 0, len(rules))
	for _, r := range rules {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			continue
		}
		out = append(out, r)
	}
	return &SurchargeTable{rules: out}
}

// Rules returns a copy of the rules.
func (t *SurchargeTable) Rules() []SurchargeRule {
	if t == nil {
		return nil
	}
	return append([]SurchargeRule(nil), t.rules...)
}

// Len reports the number of rules.
func (t *SurchargeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Lookup searches rule names for term (case-insensitive substring) within the
// requested category. A premium search that finds nothing retries in standard.
func (t *SurchargeTable) Lookup(term string, premium bool) (SurchargeValue, bool) {
	if t == nil {
		return SurchargeValue{}, false
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return SurchargeValue{}, false
	}

	if premium {
		if v, ok := t.search(needle, CategoryPremium); ok {
			return v, true
		}
	}
	return t.search(needle, CategoryStandard)
}

// Find is Lookup without the found flag; a miss yields the zero value.
func (t *SurchargeTable) Find(term string, premium bool) SurchargeValue {
	v, _ := t.Lookup(term, premium)
	return v
}

func (t *SurchargeTable) search(needle string, cat Category) (SurchargeValue, bool) {
	for _, r := range t.rules {
		if r.Category != cat {
			continue
		}
		if strings.Contains(strings.ToLower(r.Name), needle) {
			return SurchargeValue{Fixed: r.Fixed, Percent: r.Percent}, true
		}
	}
	return SurchargeValue{}, false
}
