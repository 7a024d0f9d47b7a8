// Package pricing turns an enclosure configuration into an itemized quote
// against an immutable snapshot of the price list and surcharge catalog.
package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// LineKind tags the evaluation step that produced a line item.
type LineKind string

const (
	KindBase          LineKind = "base"
	KindLength        LineKind = "length"
	KindFinish        LineKind = "finish"
	KindInfill        LineKind = "infill"
	KindRecolor       LineKind = "recolor"
	KindClimate       LineKind = "climate"
	KindDoor          LineKind = "door"
	KindLock          LineKind = "lock"
	KindAddon         LineKind = "addon"
	KindRail          LineKind = "rail"
	KindRailExtension LineKind = "rail_extension"
	KindAssembly      LineKind = "assembly"
	KindDiscount      LineKind = "discount"
	KindTransport     LineKind = "transport"
)

// LineItem is one row of a quote. Negative amounts are discounts or rebates.
type LineItem struct {
	Label  string          `json:"label"`
	Detail string          `json:"detail"`
	Amount decimal.Decimal `json:"amount"`
	Kind   LineKind        `json:"kind"`
}

// Quote is derived entirely from its line items.
type Quote struct {
	Model            string          `json:"model"`
	Items            []LineItem      `json:"items"`
	MaterialSubtotal decimal.Decimal `json:"material_subtotal"`
	SubtotalExVat    decimal.Decimal `json:"subtotal_ex_vat"`
	VatRate          decimal.Decimal `json:"vat_rate"`
	VatAmount        decimal.Decimal `json:"vat_amount"`
	TotalInclVat     decimal.Decimal `json:"total_incl_vat"`
	StandardLengthMm int             `json:"standard_length_mm"`
	LengthMm         int             `json:"length_mm"`
	ReferenceHeight  decimal.Decimal `json:"reference_height_mm"`
	Geometry         Geometry        `json:"geometry"`
	Warnings         []string        `json:"warnings,omitempty"`
}

const (
	DefaultVatRate   = 21
	DefaultRatePerKm = 18
)

// Builder turns configurations into quotes against one reference-data snapshot.
type Builder struct {
	snap      *Snapshot
	vatRate   decimal.Decimal
	ratePerKm decimal.Decimal
}

// Option customises a Builder.
type Option func(*Builder)

// WithVatRate sets the VAT percentage used when a Config does not carry one.
func WithVatRate(rate decimal.Decimal) Option {
	return func(b *Builder) { b.vatRate = rate }
}

// WithRatePerKm sets the transport rate used when a Config does not carry one.
func WithRatePerKm(rate decimal.Decimal) Option {
	return func(b *Builder) { b.ratePerKm = rate }
}

// NewBuilder returns a Builder reading snap.
func NewBuilder(snap *Snapshot, opts ...Option) *Builder {
	b := &Builder{
		snap:      snap,
		vatRate:   decimal.NewFromInt(DefaultVatRate),
		ratePerKm: decimal.NewFromInt(DefaultRatePerKm),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// quoteInput is everything the line-item steps read. Steps never modify it.
type quoteInput struct {
	cfg      Config
	model    string
	entry    PriceEntry
	lengthMm int
	stdLenMm int
	rates    RateSet
	geometry Geometry
	ext      ExtensionPricer
}

// Build computes the quote for cfg. A failed price lookup aborts before any
// line item exists; no partial quote is returned.
func (b *Builder) Build(cfg Config) (Quote, error) {
	if err := cfg.Validate(); err != nil {
		return Quote{}, err
	}
	if b.snap == nil {
		return Quote{}, fmt.Errorf("%s: %w", NormalizeModel(cfg.Model), ErrPriceListEmpty)
	}

	model := NormalizeModel(cfg.Model)
	entry, err := b.snap.Prices.Lookup(model, cfg.WidthMm, cfg.Modules)
	if err != nil {
		return Quote{}, err
	}

	premium := IsPremiumModel(model)
	stdLen := StandardLength(b.snap.StandardLengths, cfg.Modules)
	length := cfg.LengthMm
	if length == 0 {
		length = stdLen
	}

	in := quoteInput{
		cfg:      cfg,
		model:    model,
		entry:    entry,
		lengthMm: length,
		stdLenMm: stdLen,
		rates:    b.snap.Rates.For(premium),
		geometry: Canopy(
			ParamsFor(b.snap.Params, model),
			float64(cfg.WidthMm),
			entry.HeightMm.InexactFloat64(),
			cfg.Modules,
			length,
			b.snap.SheetOverlapMm,
		),
		ext: NewExtensionPricer(b.snap, premium),
	}

	material := collect(in,
		baseLine,
		lengthLines,
		finishLines,
		infillLines,
		recolorLines,
		climateLines,
		doorLines,
		lockLines,
		addonLines,
		railLines,
		railExtensionLines,
	)
	materialSubtotal := sum(material)

	items := append(material, assemblyLines(in, materialSubtotal)...)
	items = append(items, discountLines(in, sum(items))...)
	items = append(items, transportLines(in, b.ratePerKm)...)

	vatRate := b.vatRate
	if cfg.VatRate != nil {
		vatRate = *cfg.VatRate
	}
	subtotal := sum(items)
	vat := subtotal.Mul(vatRate).Div(hundred).Round(2)

	q := Quote{
		Model:            model,
		Items:            items,
		MaterialSubtotal: materialSubtotal,
		SubtotalExVat:    subtotal,
		VatRate:          vatRate,
		VatAmount:        vat,
		TotalInclVat:     subtotal.Add(vat),
		StandardLengthMm: stdLen,
		LengthMm:         length,
		ReferenceHeight:  entry.HeightMm,
		Geometry:         in.geometry,
	}
	if in.geometry.Degenerate() {
		q.Warnings = append(q.Warnings, ErrGeometryDegenerate.Error()+": flat-panel approximation used")
	}
	return q, nil
}

type step func(quoteInput) []LineItem

func collect(in quoteInput, steps ...step) []LineItem {
	var out []LineItem
	for _, s := range steps {
		out = append(out, s(in)...)
	}
	return out
}

func sum(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

func line(kind LineKind, label, detail string, amount decimal.Decimal) LineItem {
	return LineItem{Label: label, Detail: detail, Amount: amount.Round(2), Kind: kind}
}

func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate)
}

func fmtPct(rate decimal.Decimal) string {
	return rate.Mul(hundred).String() + "%"
}

func baseLine(in quoteInput) []LineItem {
	perModule := in.lengthMm / in.cfg.Modules
	detail := fmt.Sprintf("%d modules, W %d mm, L %d mm (%d mm/module)", in.cfg.Modules, in.cfg.WidthMm, in.lengthMm, perModule)
	return []LineItem{line(KindBase, "Enclosure "+in.model, detail, in.entry.Price)}
}

func lengthLines(in quoteInput) []LineItem {
	adj, ok := in.ext.Price(in.model, in.entry.WidthMm, in.cfg.Modules, in.lengthMm)
	if !ok {
		return nil
	}
	if adj.Lengthening {
		detail := fmt.Sprintf("+%d mm at %s/m (%s) + %s fee", adj.DeltaMm, adj.PerMeter.StringFixed(2), adj.Basis, adj.Fee.String())
		return []LineItem{line(KindLength, "Non-standard length (lengthening)", detail, adj.Amount)}
	}
	return []LineItem{line(KindLength, "Non-standard length (shortening)", fmt.Sprintf("%d mm", adj.DeltaMm), adj.Amount)}
}

func finishLines(in quoteInput) []LineItem {
	base := in.entry.Price
	switch in.cfg.Finish {
	case FinishRAL:
		r := in.rates.Get(KeyRAL)
		return []LineItem{line(KindFinish, "RAL coating surcharge", "+"+fmtPct(r), percentOf(base, r))}
	case FinishBronze:
		r := in.rates.Get(KeyBronzeAnodizing)
		return []LineItem{line(KindFinish, "Bronze anodizing surcharge", "+"+fmtPct(r), percentOf(base, r))}
	case FinishAnthracite:
		r := in.rates.Get(KeyAnthraciteAnodizing)
		return []LineItem{line(KindFinish, "Anthracite anodizing surcharge", "+"+fmtPct(r), percentOf(base, r))}
	case FinishSilver:
		rebate := in.rates.Get(KeySilverRebate)
		return []LineItem{line(KindFinish, "Silver anodizing rebate", "rebate", rebate.Neg())}
	}
	return nil
}

func infillLines(in quoteInput) []LineItem {
	rate := in.rates.Get(KeyFullPolycarbonate)
	area := func(label string, m2 float64) LineItem {
		a := decimal.NewFromFloat(m2)
		detail := fmt.Sprintf("%s m² × %s", a.StringFixed(1), rate.String())
		return line(KindInfill, label, detail, a.Mul(rate))
	}

	var out []LineItem
	if in.cfg.PolyRoof {
		out = append(out, area("Full polycarbonate (roof)", in.geometry.RoofAreaM2))
	}
	if in.cfg.PolySmallFace && !in.cfg.NoSmallFace {
		out = append(out, area("Full polycarbonate (small face)", in.geometry.SmallFaceAreaM2))
	}
	if in.cfg.PolyLargeFace && !in.cfg.NoLargeFace {
		out = append(out, area("Full polycarbonate (large face)", in.geometry.LargeFaceAreaM2))
	}
	return out
}

func recolorLines(in quoteInput) []LineItem {
	if !in.cfg.PolyRecolor {
		return nil
	}
	r := in.rates.Get(KeyPolyRecolor)
	return []LineItem{line(KindRecolor, "Polycarbonate colour change", "+"+fmtPct(r), percentOf(in.entry.Price, r))}
}

func climateLines(in quoteInput) []LineItem {
	if !in.cfg.HarshClimate {
		return nil
	}
	r := in.rates.Get(KeyHarshClimate)
	return []LineItem{line(KindClimate, "Reinforcement for harsh climate", "+"+fmtPct(r), percentOf(in.entry.Price, r))}
}

type door struct {
	label string
	price decimal.Decimal
}

// doorLines bills every requested door except the most expensive one, which is free.
func doorLines(in quoteInput) []LineItem {
	var doors []door
	for i := 0; i < in.cfg.FaceDoors; i++ {
		doors = append(doors, door{label: "Face door", price: in.rates.Get(KeyFaceDoor)})
	}
	for i := 0; i < in.cfg.SideEntries; i++ {
		doors = append(doors, door{label: "Side entry", price: in.rates.Get(KeySideEntry)})
	}
	if len(doors) == 0 {
		return nil
	}

	sort.SliceStable(doors, func(i, j int) bool { return doors[i].price.GreaterThan(doors[j].price) })

	out := make([]LineItem, 0, len(doors))
	out = append(out, line(KindDoor, doors[0].label+" (1st)", "free", decimal.Zero))
	for _, d := range doors[1:] {
		out = append(out, line(KindDoor, d.label, "additional", d.price))
	}
	return out
}

func lockLines(in quoteInput) []LineItem {
	n := in.cfg.FaceDoors + in.cfg.SideEntries
	if !in.cfg.DoorLock || n == 0 {
		return nil
	}
	unit := in.rates.Get(KeyDoorLock)
	detail := fmt.Sprintf("%d pcs × %s", n, unit.String())
	return []LineItem{line(KindLock, "Locking door handle", detail, unit.Mul(decimal.NewFromInt(int64(n))))}
}

func addonLines(in quoteInput) []LineItem {
	var out []LineItem
	if in.cfg.SegmentLock {
		out = append(out, line(KindAddon, "Segment lock", "", in.rates.Get(KeySegmentLock)))
	}
	if in.cfg.VentFlap {
		out = append(out, line(KindAddon, "Vent flap", "", in.rates.Get(KeyVentFlap)))
	}
	return out
}

func railLines(in quoteInput) []LineItem {
	var out []LineItem
	if in.cfg.IncludedRail {
		out = append(out, line(KindRail, "Standard rail", "included", decimal.Zero))
	}
	if in.cfg.WalkingRail {
		// Rails run along both sides of the enclosure.
		meters := decimal.NewFromInt(int64(in.lengthMm)).Div(decimal.NewFromInt(1000)).Mul(decimal.NewFromInt(2))
		if in.cfg.WalkingRailFree {
			out = append(out, line(KindRail, "Walking rail", meters.StringFixed(1)+" m (promotion)", decimal.Zero))
		} else {
			rate := in.rates.Get(KeyWalkingRail)
			out = append(out, line(KindRail, "Walking rail", meters.StringFixed(1)+" m × "+rate.String(), meters.Mul(rate)))
		}
	}
	return out
}

func railExtensionLines(in quoteInput) []LineItem {
	if !in.cfg.RailExtensionM.IsPositive() {
		return nil
	}
	rate := in.rates.Get(KeyRailExtension)
	detail := "+" + in.cfg.RailExtensionM.String() + " m × " + rate.String()
	return []LineItem{line(KindRailExtension, "Rail extension", detail, in.cfg.RailExtensionM.Mul(rate))}
}

func assemblyLines(in quoteInput, material decimal.Decimal) []LineItem {
	if !in.cfg.Assembly {
		return nil
	}
	r := in.rates.Get(KeyAssembly)
	return []LineItem{line(KindAssembly, "Assembly", fmtPct(r)+" of material", percentOf(material, r))}
}

func discountLines(in quoteInput, base decimal.Decimal) []LineItem {
	if !in.cfg.DiscountPct.IsPositive() {
		return nil
	}
	amount := base.Mul(in.cfg.DiscountPct).Div(hundred)
	detail := "-" + in.cfg.DiscountPct.String() + "% (excl. transport)"
	return []LineItem{line(KindDiscount, "Discount", detail, amount.Neg())}
}

func transportLines(in quoteInput, defaultRate decimal.Decimal) []LineItem {
	if !in.cfg.TransportKm.IsPositive() {
		return nil
	}
	rate := defaultRate
	if in.cfg.RatePerKm != nil {
		rate = *in.cfg.RatePerKm
	}
	detail := in.cfg.TransportKm.String() + " km × " + rate.String()
	return []LineItem{line(KindTransport, "Transport", detail, in.cfg.TransportKm.Mul(rate))}
}
