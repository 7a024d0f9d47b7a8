package pricing

import (
	"maps"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one immutable set of reference data. Builders read it without
// locking; a re-import builds a new Snapshot and swaps it in. Its maps are
// private copies and must not be modified after construction.
type Snapshot struct {
	Prices           *PriceTable
	Surcharges       *SurchargeTable
	Rates            Rates
	Params           map[string]ModelParams
	StandardLengths  map[int]int
	RailCostPerMeter map[int]decimal.Decimal
	SheetOverlapMm   float64
	LoadedAt         time.Time
}

var railCostPerMeter = map[int]decimal.Decimal{
	2: decimal.NewFromInt(440),
	3: decimal.NewFromInt(440),
	4: decimal.NewFromInt(660),
	5: decimal.NewFromInt(660),
	6: decimal.NewFromInt(880),
	7: decimal.NewFromInt(880),
}

// DefaultRailCostPerMeter returns a fresh copy of the rail cost per metre of
// lengthening, keyed by module count. It does not depend on width.
func DefaultRailCostPerMeter() map[int]decimal.Decimal {
	return maps.Clone(railCostPerMeter)
}

// NewSnapshot assembles reference data with the static defaults and resolves
// the surcharge catalog. The returned soft errors list surcharges that fell
// back to their defaults.
func NewSnapshot(prices *PriceTable, surcharges *SurchargeTable) (*Snapshot, []*SurchargeNotFoundError) {
	if surcharges == nil {
		surcharges = NewSurchargeTable(nil)
	}
	rates, missing := ResolveRates(surcharges)
	return &Snapshot{
		Prices:           prices,
		Surcharges:       surcharges,
		Rates:            rates,
		Params:           StaticModelParams(),
		StandardLengths:  StandardLengths(),
		RailCostPerMeter: DefaultRailCostPerMeter(),
		SheetOverlapMm:   DefaultSheetOverlapMm,
		LoadedAt:         time.Now().UTC(),
	}, missing
}

// Holder publishes the current Snapshot to concurrent readers.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a Holder serving s.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Load returns the snapshot current at the time of the call.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Swap replaces the snapshot and returns the previous one.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}
