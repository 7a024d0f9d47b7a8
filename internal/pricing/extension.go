package pricing

import (
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

const (
	// LengthToleranceMm is the deviation from the standard length that needs no adjustment.
	LengthToleranceMm = 10
	// StandardModuleLengthMm is the catalog length added by one more module.
	StandardModuleLengthMm = 2110
)

var standardLengths = map[int]int{
	2: 4336,
	3: 6446,
	4: 8556,
	5: 10666,
	6: 12776,
	7: 14886,
}

// StandardLengths returns a fresh copy of the catalog total length per module count.
func StandardLengths() map[int]int {
	return maps.Clone(standardLengths)
}

// StandardLength returns the catalog length for modules, estimating 2190 mm
// per module for counts outside the table.
func StandardLength(lengths map[int]int, modules int) int {
	if l, ok := lengths[modules]; ok {
		return l
	}
	return modules * 2190
}

// Adjustment is a priced deviation from the standard length.
type Adjustment struct {
	DeltaMm     int             `json:"delta_mm"`
	Lengthening bool            `json:"lengthening"`
	PerMeter    decimal.Decimal `json:"per_meter"`
	Fee         decimal.Decimal `json:"fee"`
	Amount      decimal.Decimal `json:"amount"`
	Basis       string          `json:"basis"`
}

// ExtensionPricer prices non-standard total lengths.
type ExtensionPricer struct {
	Prices   *PriceTable
	Rates    RateSet
	Lengths  map[int]int
	RailPerM map[int]decimal.Decimal
}

// NewExtensionPricer binds a pricer to snapshot data for one category.
func NewExtensionPricer(s *Snapshot, premium bool) ExtensionPricer {
	return ExtensionPricer{
		Prices:   s.Prices,
		Rates:    s.Rates.For(premium),
		Lengths:  s.StandardLengths,
		RailPerM: s.RailCostPerMeter,
	}
}

// Price returns the adjustment for actualMm, or false when the length is
// within tolerance of the standard. breakpointMm is the width tier the base
// price came from; the neighbouring module counts are read at the same tier.
func (p ExtensionPricer) Price(model string, breakpointMm, modules, actualMm int) (Adjustment, bool) {
	delta := actualMm - StandardLength(p.Lengths, modules)
	switch {
	case delta > LengthToleranceMm:
		return p.lengthen(model, breakpointMm, modules, delta), true
	case delta < -LengthToleranceMm:
		fee := p.Rates.Get(KeyShorteningFee)
		return Adjustment{DeltaMm: delta, Fee: fee, Amount: fee, Basis: "flat shortening fee"}, true
	default:
		return Adjustment{}, false
	}
}

func (p ExtensionPricer) lengthen(model string, breakpointMm, modules, delta int) Adjustment {
	moduleM := decimal.NewFromInt(StandardModuleLengthMm).Div(decimal.NewFromInt(1000))

	var structural decimal.Decimal
	var basis string
	cur, okCur := p.Prices.Price(model, modules, breakpointMm)
	next, okNext := p.Prices.Price(model, modules+1, breakpointMm)
	prev, okPrev := p.Prices.Price(model, modules-1, breakpointMm)
	switch {
	case okCur && okNext:
		structural = next.Sub(cur).Div(moduleM)
		basis = fmt.Sprintf("%d→%d modules", modules, modules+1)
	case okCur && okPrev:
		structural = cur.Sub(prev).Div(moduleM)
		basis = fmt.Sprintf("%d→%d modules", modules-1, modules)
	default:
		structural = p.Rates.Get(KeyLengtheningPerMeter)
		basis = "per-metre surcharge"
	}

	rail, ok := p.RailPerM[modules]
	if !ok {
		rail = decimal.Zero
	}
	perM := structural.Add(rail)
	fee := p.Rates.Get(KeyLengtheningFee).Mul(decimal.NewFromInt(int64(modules)))
	deltaM := decimal.NewFromInt(int64(delta)).Div(decimal.NewFromInt(1000))

	return Adjustment{
		DeltaMm:     delta,
		Lengthening: true,
		PerMeter:    perM.Round(2),
		Fee:         fee,
		Amount:      perM.Mul(deltaM).Add(fee).Round(2),
		Basis:       basis,
	}
}
