package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrPriceListEmpty reports that a model has no price entries at all.
	ErrPriceListEmpty = errors.New("price list is empty")
	// ErrGeometryDegenerate marks geometry that fell back to the flat-panel approximation.
	ErrGeometryDegenerate = errors.New("degenerate canopy geometry")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// WidthOutOfRangeError reports a width above the largest published breakpoint.
// MaxWidthMm is zero when the model has no entries for the requested module count.
type WidthOutOfRangeError struct {
	Model      string
	Modules    int
	WidthMm    int
	MaxWidthMm int
}

func (e *WidthOutOfRangeError) Error() string {
	if e.MaxWidthMm == 0 {
		return fmt.Sprintf("no prices published for %s with %d modules", e.Model, e.Modules)
	}
	return fmt.Sprintf("width %d mm out of range (max for %s with %d modules is %d mm)", e.WidthMm, e.Model, e.Modules, e.MaxWidthMm)
}

// SurchargeNotFoundError is a soft error: the surcharge fell back to its default value.
type SurchargeNotFoundError struct {
	Key      SurchargeKey
	Term     string
	Category Category
}

func (e *SurchargeNotFoundError) Error() string {
	return fmt.Sprintf("surcharge %q (%s) not found in %s table, using default", e.Term, e.Key, e.Category)
}

// IsFatal reports whether err must abort a quote computation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var oor *WidthOutOfRangeError
	return errors.Is(err, ErrPriceListEmpty) || errors.As(err, &oor) || errors.Is(err, ErrInvalidConfig)
}
