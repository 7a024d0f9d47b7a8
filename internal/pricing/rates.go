package pricing

import (
	"github.com/shopspring/decimal"
)

// SurchargeKey names a surcharge the quote builder needs.
type SurchargeKey string

const (
	KeyRAL                 SurchargeKey = "ral"
	KeyBronzeAnodizing     SurchargeKey = "bronze_anodizing"
	KeyAnthraciteAnodizing SurchargeKey = "anthracite_anodizing"
	KeySilverRebate        SurchargeKey = "silver_rebate"
	KeyFullPolycarbonate   SurchargeKey = "full_polycarbonate_m2"
	KeyPolyRecolor         SurchargeKey = "polycarbonate_recolor"
	KeyHarshClimate        SurchargeKey = "harsh_climate"
	KeyFaceDoor            SurchargeKey = "face_door"
	KeySideEntry           SurchargeKey = "side_entry"
	KeyDoorLock            SurchargeKey = "door_lock"
	KeySegmentLock         SurchargeKey = "segment_lock"
	KeyVentFlap            SurchargeKey = "vent_flap"
	KeyWalkingRail         SurchargeKey = "walking_rail_m"
	KeyRailExtension       SurchargeKey = "rail_extension_m"
	KeyLengtheningFee      SurchargeKey = "lengthening_fee"
	KeyLengtheningPerMeter SurchargeKey = "lengthening_m"
	KeyShorteningFee       SurchargeKey = "shortening_fee"
	KeyAssembly            SurchargeKey = "assembly"
)

// RateKind says which column of a surcharge rule a key reads.
type RateKind int

const (
	RateFixed RateKind = iota
	RatePercent
)

// RateDef binds a key to the vendor's surcharge name and its default.
type RateDef struct {
	Key      SurchargeKey
	Term     string
	Kind     RateKind
	Fallback decimal.Decimal
	// Min rejects values below it; used where a percentage was typed into a per-m² field.
	Min decimal.Decimal
}

func fixed(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func pct(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// RateDefs lists every surcharge key with the search term used against the
// imported table and the default applied when the table has no usable value.
var RateDefs = []RateDef{
	{Key: KeyRAL, Term: "RAL", Kind: RatePercent, Fallback: pct("0.20")},
	{Key: KeyBronzeAnodizing, Term: "BR elox", Kind: RatePercent, Fallback: pct("0.05")},
	{Key: KeyAnthraciteAnodizing, Term: "antracit elox", Kind: RatePercent, Fallback: pct("0.05")},
	{Key: KeySilverRebate, Term: "Stříbrný elox", Kind: RateFixed, Fallback: fixed(10000)},
	{Key: KeyFullPolycarbonate, Term: "Plný polykarbonát", Kind: RateFixed, Fallback: fixed(1000), Min: fixed(10)},
	{Key: KeyPolyRecolor, Term: "barvy poly", Kind: RatePercent, Fallback: pct("0.07")},
	{Key: KeyHarshClimate, Term: "podhorskou", Kind: RatePercent, Fallback: pct("0.15")},
	{Key: KeyFaceDoor, Term: "Jednokřídlé dveře", Kind: RateFixed, Fallback: fixed(5000)},
	{Key: KeySideEntry, Term: "boční vstup", Kind: RateFixed, Fallback: fixed(7000)},
	{Key: KeyDoorLock, Term: "Uzamykání dveří", Kind: RateFixed, Fallback: fixed(800)},
	{Key: KeySegmentLock, Term: "Uzamykání segmentů", Kind: RateFixed, Fallback: fixed(1500)},
	{Key: KeyVentFlap, Term: "klapka", Kind: RateFixed, Fallback: fixed(7000)},
	{Key: KeyWalkingRail, Term: "Pochozí kolejnice", Kind: RateFixed, Fallback: fixed(330)},
	{Key: KeyRailExtension, Term: "Jeden metr koleje", Kind: RateFixed, Fallback: fixed(220)},
	{Key: KeyLengtheningFee, Term: "Prodloužení modulu", Kind: RateFixed, Fallback: fixed(3000)},
	{Key: KeyLengtheningPerMeter, Term: "za metr", Kind: RateFixed, Fallback: fixed(2000)},
	{Key: KeyShorteningFee, Term: "Zkrácení modulu", Kind: RateFixed, Fallback: fixed(1500)},
	{Key: KeyAssembly, Term: "Montáž zastřešení v ČR", Kind: RatePercent, Fallback: pct("0.08")},
}

// RateSet is the resolved value of every key for one category.
type RateSet map[SurchargeKey]decimal.Decimal

// Get returns the value for key; keys missing from the set use their fallback.
func (s RateSet) Get(key SurchargeKey) decimal.Decimal {
	if v, ok := s[key]; ok {
		return v
	}
	for _, d := range RateDefs {
		if d.Key == key {
			return d.Fallback
		}
	}
	return decimal.Zero
}

// Rates holds the resolved rate sets for both categories.
type Rates struct {
	Standard RateSet
	Premium  RateSet
}

// For returns the rate set of the category.
func (r Rates) For(premium bool) RateSet {
	if premium {
		return r.Premium
	}
	return r.Standard
}

// DefaultRates is the rate catalog built from fallbacks only.
func DefaultRates() Rates {
	r, _ := ResolveRates(nil)
	return r
}

// ResolveRates maps every key to a value once, at load time. Keys the table
// cannot serve fall back to their default and are reported as soft errors.
func ResolveRates(table *SurchargeTable) (Rates, []*SurchargeNotFoundError) {
	var missing []*SurchargeNotFoundError
	resolve := func(cat Category) RateSet {
		set := make(RateSet, len(RateDefs))
		for _, d := range RateDefs {
			v, ok := table.Lookup(d.Term, cat == CategoryPremium)
			val := v.Fixed
			if d.Kind == RatePercent {
				val = v.Percent
			}
			if !ok || !val.IsPositive() || (!d.Min.IsZero() && val.LessThan(d.Min)) {
				missing = append(missing, &SurchargeNotFoundError{Key: d.Key, Term: d.Term, Category: cat})
				val = d.Fallback
			}
			set[d.Key] = val
		}
		return set
	}

	return Rates{
		Standard: resolve(CategoryStandard),
		Premium:  resolve(CategoryPremium),
	}, missing
}
