package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinModules = 2
	MaxModules = 7
)

// PriceEntry is one published tier: the price and reference height valid for
// widths up to WidthMm (and above the previous breakpoint).
type PriceEntry struct {
	Model    string          `json:"model"`
	Modules  int             `json:"modules"`
	WidthMm  int             `json:"width_mm"`
	Price    decimal.Decimal `json:"price"`
	HeightMm decimal.Decimal `json:"height_mm"`
}

type tierKey struct {
	model   string
	modules int
}

// PriceTable is an immutable index of price entries keyed by (model, modules).
type PriceTable struct {
	tiers  map[tierKey][]PriceEntry
	models map[string]int
	size   int
}

// NormalizeModel returns the canonical spelling of a model name.
func NormalizeModel(model string) string {
	return strings.ToUpper(strings.TrimSpace(model))
}

// NewPriceTable validates entries and builds the breakpoint index.
func NewPriceTable(entries []PriceEntry) (*PriceTable, error) {
	t := &PriceTable{
		tiers:  make(map[tierKey][]PriceEntry),
		models: make(map[string]int),
	}

	for _, e := range entries {
		e.Model = NormalizeModel(e.Model)
		if e.Model == "" {
			return nil, fmt.Errorf("price entry without model")
		}
		if e.Modules < MinModules || e.Modules > MaxModules {
			return nil, fmt.Errorf("price entry %s: modules %d outside %d..%d", e.Model, e.Modules, MinModules, MaxModules)
		}
		if e.WidthMm <= 0 {
			return nil, fmt.Errorf("price entry %s/%d: width breakpoint must be positive", e.Model, e.Modules)
		}
		k := tierKey{model: e.Model, modules: e.Modules}
		t.tiers[k] = append(t.tiers[k], e)
		t.models[e.Model]++
		t.size++
	}

	for k, tier := range t.tiers {
		sort.Slice(tier, func(i, j int) bool { return tier[i].WidthMm < tier[j].WidthMm })
		for i := 1; i < len(tier); i++ {
			if tier[i].WidthMm == tier[i-1].WidthMm {
				return nil, fmt.Errorf("duplicate breakpoint %d mm for %s with %d modules", tier[i].WidthMm, k.model, k.modules)
			}
		}
	}

	return t, nil
}

// Lookup returns the entry of the first breakpoint at or above widthMm.
// Prices are never interpolated: a width between two tiers rounds up.
func (t *PriceTable) Lookup(model string, widthMm, modules int) (PriceEntry, error) {
	model = NormalizeModel(model)
	if t == nil || t.models[model] == 0 {
		return PriceEntry{}, fmt.Errorf("%s: %w", model, ErrPriceListEmpty)
	}

	tier := t.tiers[tierKey{model: model, modules: modules}]
	if len(tier) == 0 {
		return PriceEntry{}, &WidthOutOfRangeError{Model: model, Modules: modules, WidthMm: widthMm}
	}

	i := sort.Search(len(tier), func(i int) bool { return tier[i].WidthMm >= widthMm })
	if i == len(tier) {
		return PriceEntry{}, &WidthOutOfRangeError{
			Model:      model,
			Modules:    modules,
			WidthMm:    widthMm,
			MaxWidthMm: tier[len(tier)-1].WidthMm,
		}
	}
	return tier[i], nil
}

// Price returns the price published at exactly the given breakpoint.
func (t *PriceTable) Price(model string, modules, breakpointMm int) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	tier := t.tiers[tierKey{model: NormalizeModel(model), modules: modules}]
	i := sort.Search(len(tier), func(i int) bool { return tier[i].WidthMm >= breakpointMm })
	if i == len(tier) || tier[i].WidthMm != breakpointMm {
		return decimal.Zero, false
	}
	return tier[i].Price, true
}

// Breakpoints lists the published widths for (model, modules) in ascending order.
func (t *PriceTable) Breakpoints(model string, modules int) []int {
	if t == nil {
		return nil
	}
	tier := t.tiers[tierKey{model: NormalizeModel(model), modules: modules}]
	out := make([]int, len(tier))
	for i, e := range tier {
		out[i] = e.WidthMm
	}
	return out
}

// Models lists the models with at least one entry, sorted.
func (t *PriceTable) Models() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.models))
	for m := range t.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Entries returns a copy of all entries ordered by model, modules and width.
func (t *PriceTable) Entries() []PriceEntry {
	if t == nil {
		return nil
	}
	out := make([]PriceEntry, 0, t.size)
	for _, tier := range t.tiers {
		out = append(out, tier...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		if out[i].Modules != out[j].Modules {
			return out[i].Modules < out[j].Modules
		}
		return out[i].WidthMm < out[j].WidthMm
	})
	return out
}

// Len reports the number of entries.
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}
