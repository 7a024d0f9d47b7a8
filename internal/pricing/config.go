package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Finish is the construction finish. Silver anodizing is the stock finish and
// earns a rebate; an empty Finish means no finish line at all.
type Finish string

const (
	FinishSilver     Finish = "silver"
	FinishBronze     Finish = "bronze"
	FinishAnthracite Finish = "anthracite"
	FinishRAL        Finish = "ral"
)

const (
	MaxFaceDoors   = 2
	MaxSideEntries = 4
)

// Config is one customer configuration. A zero LengthMm means the standard
// length for the module count.
type Config struct {
	Model    string `json:"model"`
	WidthMm  int    `json:"width_mm"`
	Modules  int    `json:"modules"`
	LengthMm int    `json:"length_mm,omitempty"`

	Finish Finish `json:"finish,omitempty"`

	PolyRoof      bool `json:"poly_roof,omitempty"`
	PolySmallFace bool `json:"poly_small_face,omitempty"`
	PolyLargeFace bool `json:"poly_large_face,omitempty"`
	NoSmallFace   bool `json:"no_small_face,omitempty"`
	NoLargeFace   bool `json:"no_large_face,omitempty"`
	PolyRecolor   bool `json:"poly_recolor,omitempty"`
	HarshClimate  bool `json:"harsh_climate,omitempty"`

	FaceDoors   int  `json:"face_doors,omitempty"`
	SideEntries int  `json:"side_entries,omitempty"`
	DoorLock    bool `json:"door_lock,omitempty"`
	SegmentLock bool `json:"segment_lock,omitempty"`
	VentFlap    bool `json:"vent_flap,omitempty"`

	IncludedRail    bool            `json:"included_rail,omitempty"`
	WalkingRail     bool            `json:"walking_rail,omitempty"`
	WalkingRailFree bool            `json:"walking_rail_free,omitempty"`
	RailExtensionM  decimal.Decimal `json:"rail_extension_m"`

	Assembly    bool             `json:"assembly,omitempty"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
	TransportKm decimal.Decimal  `json:"transport_km"`
	RatePerKm   *decimal.Decimal `json:"rate_per_km,omitempty"`
	VatRate     *decimal.Decimal `json:"vat_rate,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks ranges; it does not consult reference data.
func (c Config) Validate() error {
	switch {
	case NormalizeModel(c.Model) == "":
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	case c.WidthMm <= 0:
		return fmt.Errorf("%w: width must be positive", ErrInvalidConfig)
	case c.Modules < MinModules || c.Modules > MaxModules:
		return fmt.Errorf("%w: modules must be between %d and %d", ErrInvalidConfig, MinModules, MaxModules)
	case c.LengthMm < 0:
		return fmt.Errorf("%w: length must not be negative", ErrInvalidConfig)
	case c.FaceDoors < 0 || c.FaceDoors > MaxFaceDoors:
		return fmt.Errorf("%w: face doors must be between 0 and %d", ErrInvalidConfig, MaxFaceDoors)
	case c.SideEntries < 0 || c.SideEntries > MaxSideEntries:
		return fmt.Errorf("%w: side entries must be between 0 and %d", ErrInvalidConfig, MaxSideEntries)
	case c.RailExtensionM.IsNegative():
		return fmt.Errorf("%w: rail extension must not be negative", ErrInvalidConfig)
	case c.DiscountPct.IsNegative() || c.DiscountPct.GreaterThan(hundred):
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidConfig)
	case c.TransportKm.IsNegative():
		return fmt.Errorf("%w: transport distance must not be negative", ErrInvalidConfig)
	case c.RatePerKm != nil && c.RatePerKm.IsNegative():
		return fmt.Errorf("%w: rate per km must not be negative", ErrInvalidConfig)
	case c.VatRate != nil && (c.VatRate.IsNegative() || c.VatRate.GreaterThan(hundred)):
		return fmt.Errorf("%w: VAT rate must be between 0 and 100", ErrInvalidConfig)
	}

	switch c.Finish {
	case "", FinishSilver, FinishBronze, FinishAnthracite, FinishRAL:
	default:
		return fmt.Errorf("%w: unknown finish %q", ErrInvalidConfig, c.Finish)
	}
	return nil
}
