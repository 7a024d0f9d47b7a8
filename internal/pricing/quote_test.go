package pricing

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{Model: "PRACTIC", WidthMm: 3500, Modules: 3}
}

func kinds(q Quote) []LineKind {
	out := make([]LineKind, 0, len(q.Items))
	for _, it := range q.Items {
		out = append(out, it.Kind)
	}
	return out
}

func TestBuild_NoOptions(t *testing.T) {
	q, err := NewBuilder(testSnapshot(t)).Build(baseConfig())
	require.NoError(t, err)

	require.Len(t, q.Items, 1)
	assert.Equal(t, "Enclosure PRACTIC", q.Items[0].Label)
	requireAmount(t, "160000", q.MaterialSubtotal)
	requireAmount(t, "160000", q.SubtotalExVat)
	requireAmount(t, "33600", q.VatAmount)
	requireAmount(t, "193600", q.TotalInclVat)
	assert.Equal(t, 6446, q.LengthMm)
	assert.Equal(t, 6446, q.StandardLengthMm)
	requireAmount(t, "910", q.ReferenceHeight)
	assert.Empty(t, q.Warnings)
}

func TestBuild_RoundsWidthUpToNextBreakpoint(t *testing.T) {
	cfg := baseConfig()
	cfg.WidthMm = 3300

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)
	requireAmount(t, "160000", q.Items[0].Amount)
}

func TestBuild_Discount(t *testing.T) {
	cfg := baseConfig()
	cfg.DiscountPct = d("10")

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	require.Len(t, q.Items, 2)
	assert.Equal(t, KindDiscount, q.Items[1].Kind)
	requireAmount(t, "-16000", q.Items[1].Amount)
	requireAmount(t, "144000", q.SubtotalExVat)
	requireAmount(t, "30240", q.VatAmount)
	requireAmount(t, "174240", q.TotalInclVat)
}

func TestBuild_MostExpensiveDoorIsFree(t *testing.T) {
	cfg := baseConfig()
	cfg.FaceDoors = 2
	cfg.SideEntries = 1

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	var doors []LineItem
	for _, it := range q.Items {
		if it.Kind == KindDoor {
			doors = append(doors, it)
		}
	}
	require.Len(t, doors, 3)
	assert.Equal(t, "Side entry (1st)", doors[0].Label)
	assert.True(t, doors[0].Amount.IsZero())
	requireAmount(t, "5000", doors[1].Amount)
	requireAmount(t, "5000", doors[2].Amount)
	requireAmount(t, "170000", q.SubtotalExVat)
}

func TestBuild_DoorLockCountsEveryDoor(t *testing.T) {
	cfg := baseConfig()
	cfg.FaceDoors = 1
	cfg.SideEntries = 1
	cfg.DoorLock = true

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	var lock LineItem
	for _, it := range q.Items {
		if it.Kind == KindLock {
			lock = it
		}
	}
	requireAmount(t, "1600", lock.Amount)
	assert.Equal(t, "2 pcs × 800", lock.Detail)

	cfg.FaceDoors, cfg.SideEntries = 0, 0
	q, err = NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)
	assert.NotContains(t, kinds(q), KindLock)
}

func TestBuild_Finishes(t *testing.T) {
	cases := []struct {
		finish Finish
		want   string
	}{
		{FinishSilver, "-10000"},
		{FinishRAL, "32000"},
		{FinishBronze, "8000"},
		{FinishAnthracite, "8000"},
	}
	for _, tc := range cases {
		t.Run(string(tc.finish), func(t *testing.T) {
			cfg := baseConfig()
			cfg.Finish = tc.finish

			q, err := NewBuilder(testSnapshot(t)).Build(cfg)
			require.NoError(t, err)
			require.Len(t, q.Items, 2)
			assert.Equal(t, KindFinish, q.Items[1].Kind)
			requireAmount(t, tc.want, q.Items[1].Amount)
		})
	}
}

func TestBuild_CatalogOverridesFallbacks(t *testing.T) {
	snap := testSnapshot(t,
		SurchargeRule{Name: "Příplatek RAL", Percent: d("0.25"), Category: CategoryStandard},
		SurchargeRule{Name: "Jednokřídlé dveře", Fixed: d("6000"), Category: CategoryStandard},
	)
	cfg := baseConfig()
	cfg.Finish = FinishRAL
	cfg.FaceDoors = 2

	q, err := NewBuilder(snap).Build(cfg)
	require.NoError(t, err)
	requireAmount(t, "40000", q.Items[1].Amount)
	requireAmount(t, "6000", q.Items[3].Amount)
}

func TestBuild_InfillPricesUnroundedAreas(t *testing.T) {
	snap := testSnapshot(t)
	cfg := baseConfig()
	cfg.PolyRoof = true
	cfg.PolySmallFace = true
	cfg.PolyLargeFace = true
	cfg.NoLargeFace = true

	q, err := NewBuilder(snap).Build(cfg)
	require.NoError(t, err)

	require.Len(t, q.Items, 3)
	roof := decimal.NewFromFloat(q.Geometry.RoofAreaM2).Mul(d("1000"))
	small := decimal.NewFromFloat(q.Geometry.SmallFaceAreaM2).Mul(d("1000"))
	assert.Equal(t, "Full polycarbonate (roof)", q.Items[1].Label)
	requireAmount(t, roof.Round(2).String(), q.Items[1].Amount)
	assert.Equal(t, "Full polycarbonate (small face)", q.Items[2].Label)
	requireAmount(t, small.Round(2).String(), q.Items[2].Amount)
	assert.True(t, q.Items[1].Amount.GreaterThan(q.Items[2].Amount))
	assert.Contains(t, q.Items[2].Detail, decimal.NewFromFloat(q.Geometry.SmallFaceAreaM2).StringFixed(1)+" m² × 1000")
}

func TestBuild_InfillDoesNotRoundAreaFirst(t *testing.T) {
	const m2 = 1.2345
	in := quoteInput{
		cfg:      Config{PolyRoof: true},
		rates:    RateSet{KeyFullPolycarbonate: d("1000")},
		geometry: Geometry{RoofAreaM2: m2},
	}
	items := infillLines(in)
	require.Len(t, items, 1)
	requireAmount(t, "1234.5", items[0].Amount)
	assert.Equal(t, "1.2 m² × 1000", items[0].Detail)
}

func TestBuild_Rails(t *testing.T) {
	cfg := baseConfig()
	cfg.IncludedRail = true
	cfg.WalkingRail = true
	cfg.RailExtensionM = d("1.5")

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	require.Equal(t, []LineKind{KindBase, KindRail, KindRail, KindRailExtension}, kinds(q))
	assert.True(t, q.Items[1].Amount.IsZero())
	// 6.446 m on both sides × 330
	requireAmount(t, "4254.36", q.Items[2].Amount)
	requireAmount(t, "330", q.Items[3].Amount)

	cfg.WalkingRailFree = true
	q, err = NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)
	assert.True(t, q.Items[2].Amount.IsZero())
	assert.Contains(t, q.Items[2].Detail, "promotion")
}

func TestBuild_Lengthening(t *testing.T) {
	cfg := baseConfig()
	cfg.LengthMm = 6446 + 1000

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	require.Equal(t, []LineKind{KindBase, KindLength}, kinds(q))
	requireAmount(t, "23658.01", q.Items[1].Amount)
	assert.Equal(t, 7446, q.LengthMm)
}

func TestBuild_AssemblyDiscountTransportOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.Finish = FinishRAL
	cfg.Assembly = true
	cfg.DiscountPct = d("10")
	cfg.TransportKm = d("100")

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	require.Equal(t, []LineKind{KindBase, KindFinish, KindAssembly, KindDiscount, KindTransport}, kinds(q))
	requireAmount(t, "192000", q.MaterialSubtotal)
	// 8 % of 192000
	requireAmount(t, "15360", q.Items[2].Amount)
	// 10 % of 207360, transport excluded
	requireAmount(t, "-20736", q.Items[3].Amount)
	requireAmount(t, "1800", q.Items[4].Amount)
	requireAmount(t, "188424", q.SubtotalExVat)
	requireAmount(t, "39569.04", q.VatAmount)
	requireAmount(t, "227993.04", q.TotalInclVat)
}

func TestBuild_FullLineOrder(t *testing.T) {
	cfg := Config{
		Model: "PRACTIC", WidthMm: 3500, Modules: 3, LengthMm: 6000,
		Finish: FinishBronze, PolyRoof: true, PolyRecolor: true, HarshClimate: true,
		FaceDoors: 1, DoorLock: true, SegmentLock: true, VentFlap: true,
		WalkingRail: true, RailExtensionM: d("1"), Assembly: true,
		DiscountPct: d("5"), TransportKm: d("10"),
	}

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, []LineKind{
		KindBase, KindLength, KindFinish, KindInfill, KindRecolor, KindClimate,
		KindDoor, KindLock, KindAddon, KindAddon, KindRail, KindRailExtension,
		KindAssembly, KindDiscount, KindTransport,
	}, kinds(q))
}

func TestBuild_TotalsAreDerivedFromItems(t *testing.T) {
	cfg := baseConfig()
	cfg.Finish = FinishAnthracite
	cfg.HarshClimate = true
	cfg.SideEntries = 2
	cfg.Assembly = true
	cfg.DiscountPct = d("3.5")
	cfg.TransportKm = d("42")
	cfg.VatRate = dp("12")

	q, err := NewBuilder(testSnapshot(t)).Build(cfg)
	require.NoError(t, err)

	requireAmount(t, sum(q.Items).String(), q.SubtotalExVat)
	requireAmount(t, "12", q.VatRate)
	requireAmount(t, q.SubtotalExVat.Mul(d("0.12")).Round(2).String(), q.VatAmount)
	requireAmount(t, q.SubtotalExVat.Add(q.VatAmount).String(), q.TotalInclVat)
	for _, it := range q.Items {
		assert.Equal(t, it.Amount.Round(2).String(), it.Amount.String(), it.Label)
	}
}

func TestBuild_BuilderOptions(t *testing.T) {
	cfg := baseConfig()
	cfg.TransportKm = d("10")

	q, err := NewBuilder(testSnapshot(t), WithVatRate(d("0")), WithRatePerKm(d("25"))).Build(cfg)
	require.NoError(t, err)
	requireAmount(t, "250", q.Items[1].Amount)
	assert.True(t, q.VatAmount.IsZero())

	cfg.RatePerKm = dp("30")
	q, err = NewBuilder(testSnapshot(t), WithRatePerKm(d("25"))).Build(cfg)
	require.NoError(t, err)
	requireAmount(t, "300", q.Items[1].Amount)
}

func TestBuild_IsIdempotent(t *testing.T) {
	b := NewBuilder(testSnapshot(t))
	cfg := baseConfig()
	cfg.Finish = FinishRAL
	cfg.PolyRoof = true
	cfg.FaceDoors = 2
	cfg.DiscountPct = d("7")

	first, err := b.Build(cfg)
	require.NoError(t, err)
	second, err := b.Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_FatalLookupReturnsNoQuote(t *testing.T) {
	b := NewBuilder(testSnapshot(t))

	cfg := baseConfig()
	cfg.WidthMm = 5000
	q, err := b.Build(cfg)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	var wide *WidthOutOfRangeError
	require.True(t, errors.As(err, &wide))
	assert.Equal(t, 3750, wide.MaxWidthMm)
	assert.Empty(t, q.Items)

	cfg = baseConfig()
	cfg.Model = "WAVE"
	q, err = b.Build(cfg)
	assert.ErrorIs(t, err, ErrPriceListEmpty)
	assert.Empty(t, q.Items)

	q, err = NewBuilder(nil).Build(baseConfig())
	assert.ErrorIs(t, err, ErrPriceListEmpty)
	assert.Empty(t, q.Items)
}

func TestBuild_InvalidConfig(t *testing.T) {
	_, err := NewBuilder(testSnapshot(t)).Build(Config{Model: "PRACTIC", WidthMm: 3500, Modules: 9})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.True(t, IsFatal(err))
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(*Config){
		"missing model":     func(c *Config) { c.Model = " " },
		"zero width":        func(c *Config) { c.WidthMm = 0 },
		"one module":        func(c *Config) { c.Modules = 1 },
		"negative length":   func(c *Config) { c.LengthMm = -1 },
		"three face doors":  func(c *Config) { c.FaceDoors = 3 },
		"five side entries": func(c *Config) { c.SideEntries = 5 },
		"negative rail":     func(c *Config) { c.RailExtensionM = d("-1") },
		"discount over 100": func(c *Config) { c.DiscountPct = d("100.5") },
		"negative km":       func(c *Config) { c.TransportKm = d("-3") },
		"negative km rate":  func(c *Config) { c.RatePerKm = dp("-1") },
		"vat over 100":      func(c *Config) { c.VatRate = dp("101") },
		"unknown finish":    func(c *Config) { c.Finish = "gold" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, baseConfig().Validate())
}

func TestBuild_ConcurrentWithSnapshotSwap(t *testing.T) {
	old := testSnapshot(t)
	entries := practicEntries()
	for i := range entries {
		entries[i].Price = entries[i].Price.Add(d("1000"))
	}
	table, err := NewPriceTable(entries)
	require.NoError(t, err)
	next, _ := NewSnapshot(table, nil)

	h := NewHolder(old)
	var wg sync.WaitGroup
	results := make(chan decimal.Decimal, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 100 {
				h.Swap(next)
			}
			q, err := NewBuilder(h.Load()).Build(baseConfig())
			if err != nil {
				t.Error(err)
				return
			}
			results <- q.SubtotalExVat
		}(i)
	}
	wg.Wait()
	close(results)

	for total := range results {
		ok := total.Equal(d("160000")) || total.Equal(d("161000"))
		assert.True(t, ok, "unexpected subtotal %s", total)
	}
	assert.Same(t, next, h.Load())
}
