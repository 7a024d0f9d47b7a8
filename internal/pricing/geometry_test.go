package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_KnownModule(t *testing.T) {
	seg := Segment(3500, 910)

	require.False(t, seg.Flat)
	// R = (3500²/4 + 910²) / (2·910)
	assert.InDelta(t, 3890600.0/1820.0, seg.RadiusMm, 1e-9)
	assert.Greater(t, seg.ArcMm, 3500.0, "arc is longer than its chord")
	assert.Greater(t, seg.AreaMm2, 0.0)
	assert.Less(t, seg.AreaMm2, 3500.0*910.0, "segment fits in its bounding box")
	// A circular segment is larger than the inscribed triangle.
	assert.Greater(t, seg.AreaMm2, 0.5*3500.0*910.0)
}

func TestSegment_MonotonicInWidth(t *testing.T) {
	prev := Segment(2000, 910)
	for w := 2100.0; w <= 8000; w += 100 {
		cur := Segment(w, 910)
		assert.Greater(t, cur.ArcMm, prev.ArcMm, "arc at width %.0f", w)
		assert.Greater(t, cur.AreaMm2, prev.AreaMm2, "area at width %.0f", w)
		prev = cur
	}
}

func TestSegment_SemicircleWhenHeightIsHalfWidth(t *testing.T) {
	seg := Segment(2000, 1000)
	assert.InDelta(t, 1000, seg.RadiusMm, 1e-9)
	assert.InDelta(t, math.Pi*1000, seg.ArcMm, 1e-6)
	assert.InDelta(t, math.Pi*1000*1000/2, seg.AreaMm2, 1e-3)
}

func TestSegment_ClampsHeightAndHandlesDegenerateInput(t *testing.T) {
	assert.Equal(t, Segment(3000, 1), Segment(3000, 0))
	assert.Equal(t, Segment(3000, 1), Segment(3000, -50))

	assert.Equal(t, SegmentGeometry{}, Segment(0, 900))
	assert.Equal(t, SegmentGeometry{}, Segment(-10, 900))

	flat := Segment(math.NaN(), 900)
	assert.True(t, flat.Flat)
	assert.Zero(t, flat.AreaMm2)
}

func TestCanopy_TelescopingModules(t *testing.T) {
	p := ModelParams{Model: "PRACTIC", StepWidthMm: 100, StepHeightMm: 50}
	g := Canopy(p, 3500, 910, 3, 6000, 0)

	require.Len(t, g.Modules, 3)
	assert.Equal(t, 3700.0, g.Modules[2].WidthMm)
	assert.Equal(t, 1010.0, g.Modules[2].HeightMm)
	assert.InDelta(t, Segment(3500, 910).AreaMm2/1e6, g.SmallFaceAreaM2, 1e-12)
	assert.InDelta(t, Segment(3700, 1010).AreaMm2/1e6, g.LargeFaceAreaM2, 1e-12)
	assert.Greater(t, g.LargeFaceAreaM2, g.SmallFaceAreaM2)

	var roof float64
	for i := 0; i < 3; i++ {
		w := 3500 + float64(i)*100
		h := 910 + float64(i)*50
		roof += Segment(w, h).ArcMm / 1000 * 2.0
	}
	assert.InDelta(t, roof, g.RoofAreaM2, 1e-9)
	assert.False(t, g.Degenerate())
}

func TestCanopy_SheetOverlapIncreasesRoofArea(t *testing.T) {
	p := ParamsFor(StaticModelParams(), "dream")
	assert.Equal(t, 130, p.StepWidthMm)

	without := Canopy(p, 3500, 910, 3, 6000, 0)
	with := Canopy(p, 3500, 910, 3, 6000, DefaultSheetOverlapMm)

	var arcs float64
	for _, m := range with.Modules {
		arcs += m.ArcM
	}
	assert.InDelta(t, arcs*DefaultSheetOverlapMm/1000, with.RoofAreaM2-without.RoofAreaM2, 1e-9)
	assert.Equal(t, without.SmallFaceAreaM2, with.SmallFaceAreaM2)
}

func TestParamsFor_UnknownModelUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultModelParams, ParamsFor(StaticModelParams(), "WAVE"))
	assert.Equal(t, Geometry{}, Canopy(DefaultModelParams, 3500, 910, 0, 6000, 0))
}
