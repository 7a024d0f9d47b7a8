package pricing

import (
	"maps"
	"math"
)

// DefaultSheetOverlapMm is added to every roof sheet length; neighbouring
// sheets overlap and are bought with the overlap included.
const DefaultSheetOverlapMm = 100.0

// ModelParams describes how much wider and taller each successive module is.
type ModelParams struct {
	Model        string `json:"model"`
	StepWidthMm  int    `json:"step_width_mm"`
	StepHeightMm int    `json:"step_height_mm"`
}

// DefaultModelParams is used for models missing from the parameter table.
var DefaultModelParams = ModelParams{Model: "DEFAULT", StepWidthMm: 100, StepHeightMm: 50}

var staticModelParams = map[string]ModelParams{
	"PRACTIC":  {Model: "PRACTIC", StepWidthMm: 100, StepHeightMm: 50},
	"DREAM":    {Model: "DREAM", StepWidthMm: 130, StepHeightMm: 65},
	"HARMONY":  {Model: "HARMONY", StepWidthMm: 130, StepHeightMm: 65},
	"ROCK":     {Model: "ROCK", StepWidthMm: 130, StepHeightMm: 65},
	"TERRACE":  {Model: "TERRACE", StepWidthMm: 71, StepHeightMm: 65},
	"HORIZONT": {Model: "HORIZONT", StepWidthMm: 130, StepHeightMm: 65},
	"STAR":     {Model: "STAR", StepWidthMm: 130, StepHeightMm: 65},
}

// StaticModelParams returns a fresh copy of the per-model taper steps of the
// product line.
func StaticModelParams() map[string]ModelParams {
	return maps.Clone(staticModelParams)
}

// ParamsFor returns the taper parameters of model, or the defaults.
func ParamsFor(params map[string]ModelParams, model string) ModelParams {
	if p, ok := params[NormalizeModel(model)]; ok {
		return p
	}
	return DefaultModelParams
}

// SegmentGeometry is a canopy cross-section treated as a circular segment.
// All values are in millimetres.
type SegmentGeometry struct {
	RadiusMm float64 `json:"radius_mm"`
	ArcMm    float64 `json:"arc_mm"`
	AreaMm2  float64 `json:"area_mm2"`
	Flat     bool    `json:"flat,omitempty"`
}

// Segment computes arc length and area of the circular segment with chord
// widthMm and sagitta heightMm. Heights below 1 mm are clamped to 1 mm. When
// no valid radius exists the panel is treated as flat (arc equals chord).
func Segment(widthMm, heightMm float64) SegmentGeometry {
	if widthMm <= 0 {
		return SegmentGeometry{}
	}
	h := heightMm
	if h < 1 {
		h = 1
	}

	r := (widthMm*widthMm/4 + h*h) / (2 * h)
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return SegmentGeometry{ArcMm: widthMm, Flat: true}
	}

	ratio := widthMm / (2 * r)
	ratio = math.Max(-1, math.Min(1, ratio))
	alpha := 2 * math.Asin(ratio)

	return SegmentGeometry{
		RadiusMm: r,
		ArcMm:    alpha * r,
		AreaMm2:  0.5 * r * r * (alpha - math.Sin(alpha)),
	}
}

// ModuleGeometry is one module of a telescoping canopy (index 0 is innermost).
type ModuleGeometry struct {
	Index       int     `json:"index"`
	WidthMm     float64 `json:"width_mm"`
	HeightMm    float64 `json:"height_mm"`
	ArcM        float64 `json:"arc_m"`
	SheetLength float64 `json:"sheet_length_m"`
	RoofAreaM2  float64 `json:"roof_area_m2"`
	Flat        bool    `json:"flat,omitempty"`
}

// Geometry summarises the areas used to price polycarbonate infill.
type Geometry struct {
	Modules         []ModuleGeometry `json:"modules"`
	RoofAreaM2      float64          `json:"roof_area_m2"`
	SmallFaceAreaM2 float64          `json:"small_face_area_m2"`
	LargeFaceAreaM2 float64          `json:"large_face_area_m2"`
	SmallFaceArcM   float64          `json:"small_face_arc_m"`
	LargeFaceArcM   float64          `json:"large_face_arc_m"`
}

// Degenerate reports whether any module fell back to the flat approximation.
func (g Geometry) Degenerate() bool {
	for _, m := range g.Modules {
		if m.Flat {
			return true
		}
	}
	return false
}

// Canopy computes the geometry of a telescoping canopy whose innermost module
// has the given width and height. Module i is wider by i*StepWidthMm and taller
// by i*StepHeightMm. Roof area sums arc length times sheet length over all
// modules; each sheet is totalLength/modules plus overlapMm long.
func Canopy(p ModelParams, widthMm, heightMm float64, modules, totalLengthMm int, overlapMm float64) Geometry {
	if modules <= 0 {
		return Geometry{}
	}

	sheetM := (float64(totalLengthMm)/float64(modules) + overlapMm) / 1000
	g := Geometry{Modules: make([]ModuleGeometry, 0, modules)}

	var small, large SegmentGeometry
	for i := 0; i < modules; i++ {
		w := widthMm + float64(i*p.StepWidthMm)
		h := heightMm + float64(i*p.StepHeightMm)
		seg := Segment(w, h)
		if i == 0 {
			small = seg
		}
		if i == modules-1 {
			large = seg
		}

		arcM := seg.ArcMm / 1000
		m := ModuleGeometry{
			Index:       i,
			WidthMm:     w,
			HeightMm:    h,
			ArcM:        arcM,
			SheetLength: sheetM,
			RoofAreaM2:  arcM * sheetM,
			Flat:        seg.Flat,
		}
		g.Modules = append(g.Modules, m)
		g.RoofAreaM2 += m.RoofAreaM2
	}

	g.SmallFaceAreaM2 = small.AreaMm2 / 1e6
	g.LargeFaceAreaM2 = large.AreaMm2 / 1e6
	g.SmallFaceArcM = small.ArcMm / 1000
	g.LargeFaceArcM = large.ArcMm / 1000
	return g
}
