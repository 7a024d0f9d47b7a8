package pricing

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func requireAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	msg := fmt.Sprintf("want %s, got %s", want, got.String())
	if len(msgAndArgs) > 0 {
		if format, ok := msgAndArgs[0].(string); ok {
			msg += ": " + fmt.Sprintf(format, msgAndArgs[1:]...)
		}
	}
	require.True(t, d(want).Equal(got), msg)
}

// practicEntries is a small PRACTIC/ROCK price list used across tests.
func practicEntries() []PriceEntry {
	e := func(model string, modules, width int, price string) PriceEntry {
		return PriceEntry{Model: model, Modules: modules, WidthMm: width, Price: d(price), HeightMm: d("910")}
	}
	return []PriceEntry{
		e("PRACTIC", 2, 3250, "110000"),
		e("PRACTIC", 2, 3500, "120000"),
		e("PRACTIC", 3, 3250, "150000"),
		e("PRACTIC", 3, 3500, "160000"),
		e("PRACTIC", 3, 3750, "170000"),
		e("PRACTIC", 4, 3500, "190000"),
		e("ROCK", 3, 3500, "200000"),
		e("ROCK", 4, 3500, "240000"),
		e("TERRACE", 2, 2000, "90000"),
	}
}

func testSnapshot(t *testing.T, rules ...SurchargeRule) *Snapshot {
	t.Helper()
	table, err := NewPriceTable(practicEntries())
	require.NoError(t, err)
	snap, _ := NewSnapshot(table, NewSurchargeTable(rules))
	return snap
}
