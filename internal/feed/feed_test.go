package feed

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/poolquote/internal/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseValue(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		percent bool
	}{
		{"1 500 Kč", "1500", false},
		{"1 500,50 Kč", "1500.5", false},
		{"110 000 CZK", "110000", false},
		{"2 000,-", "2000", false},
		{"1.234,50", "1234.5", false},
		{"1,234.50", "1234.5", false},
		{"1.234.567", "1234567", false},
		{"0,91", "0.91", false},
		{"15%", "0.15", true},
		{"7,5 %", "0.075", true},
		{"-10000", "-10000", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			v, ok, err := ParseValue(tc.in)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, d(tc.want).Equal(v.Amount), "got %s", v.Amount)
			assert.Equal(t, tc.percent, v.Percent)
		})
	}

	_, ok, err := ParseValue("  ")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseValue("na dotaz")
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestParseValue_ThousandsMark(t *testing.T) {
	cases := []struct {
		in    string
		money bool
		want  string
	}{
		{"160.000 Kč", false, "160000"},
		{"1.500 Kč", false, "1500"},
		{"1,500 CZK", false, "1500"},
		{"7.000,-", false, "7000"},
		{"0,910", false, "0.91"},
		{"1.500", false, "1.5"},
		{"1.500", true, "1500"},
		{"160.000", true, "160000"},
		{"0,910", true, "0.91"},
		{"1,25", true, "1.25"},
		{"12,5 %", true, "0.125"},
	}
	for _, tc := range cases {
		parse := ParseValue
		if tc.money {
			parse = ParseAmount
		}
		v, ok, err := parse(tc.in)
		require.NoError(t, err, tc.in)
		require.True(t, ok, tc.in)
		assert.True(t, d(tc.want).Equal(v.Amount), "%s (money=%v): got %s", tc.in, tc.money, v.Amount)
	}
}

func TestParsePriceRows_DotGroupedPrices(t *testing.T) {
	rows := [][]string{
		{"PRACTIC"},
		{"do 3,5 m", "", "", "160.000 Kč", "0,910"},
		{"do 4 m", "", "", "175.000", "0,96"},
	}
	entries, err := ParsePriceRows(rows)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, d("160000").Equal(entries[0].Price), "got %s", entries[0].Price)
	assert.True(t, d("910").Equal(entries[0].HeightMm), "got %s", entries[0].HeightMm)
	assert.True(t, d("175000").Equal(entries[1].Price), "got %s", entries[1].Price)
}

func TestParseSurcharges_DotGroupedAmounts(t *testing.T) {
	rules, err := ParseSurcharges(strings.NewReader("Uzamykání dveří;1.500 Kč\nJednokřídlé dveře;5.000\n"))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.True(t, d("1500").Equal(rules[0].Fixed), "got %s", rules[0].Fixed)
	assert.True(t, d("5000").Equal(rules[1].Fixed), "got %s", rules[1].Fixed)

	rates, _ := pricing.ResolveRates(pricing.NewSurchargeTable(rules))
	assert.True(t, d("1500").Equal(rates.For(false).Get(pricing.KeyDoorLock)))
}

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{in: "PRACTIC;;\ndo 3,25 m;110 000;0,91\ndo 3,5 m;120 000;0,93\n", want: ';'},
		{in: "a,b,c\n1,2,3\n4,5,6\n", want: ','},
		{in: "a\tb\tc\n1\t2\t3\n", want: '\t'},
		{in: "a|b|c\n1|2|3\n4|5|6\n", want: '|'},
		{in: "PRACTIC\ndo 3.25 m\n", want: ';'},
	}
	for _, tc := range cases {
		assert.Equal(t, string(tc.want), string(DetectDelimiter([]byte(tc.in))), tc.in)
	}
}

const priceCSV = "\xef\xbb\xbfCeník 2025;;;;\n" +
	"PRACTIC;2 moduly;;3 moduly;\n" +
	"do 3,25 m;110 000 Kč;0,91;150 000 Kč;0,96\n" +
	"do 3,5 m;120 000 Kč;0,93;160 000 Kč;0,98\n" +
	";;;;\n" +
	"ROCK;;;;\n" +
	"up to 3.5 m;;;200 000;1010\n"

func TestParsePrices(t *testing.T) {
	entries, err := ParsePrices(strings.NewReader(priceCSV))
	require.NoError(t, err)
	require.Len(t, entries, 5)

	assert.Equal(t, "PRACTIC", entries[0].Model)
	assert.Equal(t, 3250, entries[0].WidthMm)
	assert.Equal(t, 2, entries[0].Modules)
	assert.True(t, d("110000").Equal(entries[0].Price))
	assert.True(t, d("910").Equal(entries[0].HeightMm))

	assert.Equal(t, 3, entries[1].Modules)
	assert.True(t, d("960").Equal(entries[1].HeightMm))

	rock := entries[4]
	assert.Equal(t, "ROCK", rock.Model)
	assert.Equal(t, 3, rock.Modules)
	assert.Equal(t, 3500, rock.WidthMm)
	assert.True(t, d("1010").Equal(rock.HeightMm))

	table, err := pricing.NewPriceTable(entries)
	require.NoError(t, err)
	entry, err := table.Lookup("PRACTIC", 3300, 3)
	require.NoError(t, err)
	assert.True(t, d("160000").Equal(entry.Price))
}

func TestParsePrices_Errors(t *testing.T) {
	_, err := ParsePrices(strings.NewReader("do 3,25 m;110 000;0,91\n"))
	assert.ErrorContains(t, err, "before any model header")

	_, err = ParsePrices(strings.NewReader("PRACTIC;;\ndo 3,25 m;cena;0,91\n"))
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = ParsePrices(strings.NewReader("PRACTIC;;\n;;\n"))
	assert.ErrorIs(t, err, ErrEmptyFeed)

	_, err = ParsePrices(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestParseSurcharges(t *testing.T) {
	in := "Název;Standard;Rock;Fix\n" +
		"Příplatek RAL;20%;25%\n" +
		"Jednokřídlé dveře;5 000 Kč;;\n" +
		"Stříbrný elox;;;10 000\n" +
		";;;\n"

	rules, err := ParseSurcharges(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rules, 6)

	assert.Equal(t, "Příplatek RAL", rules[0].Name)
	assert.Equal(t, pricing.CategoryStandard, rules[0].Category)
	assert.True(t, d("0.2").Equal(rules[0].Percent))
	assert.True(t, rules[0].Fixed.IsZero())
	assert.Equal(t, pricing.CategoryPremium, rules[1].Category)
	assert.True(t, d("0.25").Equal(rules[1].Percent))

	assert.True(t, d("5000").Equal(rules[3].Fixed), "empty premium copies standard")
	assert.True(t, d("10000").Equal(rules[4].Fixed))
	assert.True(t, d("10000").Equal(rules[5].Fixed))

	table := pricing.NewSurchargeTable(rules)
	v, ok := table.Lookup("ral", true)
	require.True(t, ok)
	assert.True(t, d("0.25").Equal(v.Percent))
}

func TestParseSurcharges_StandardOnly(t *testing.T) {
	rules, err := ParseSurcharges(strings.NewReader("klapka;7000\nRAL;20%\n"))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	for _, r := range rules {
		assert.Equal(t, pricing.CategoryStandard, r.Category)
	}
}

func TestParseSurcharges_BadValue(t *testing.T) {
	_, err := ParseSurcharges(strings.NewReader("klapka;7000\nRAL;dvacet\n"))
	assert.ErrorIs(t, err, ErrBadValue)
	assert.ErrorContains(t, err, "line 2")
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"PRACTIC"},
		{"do 3,25 m", "110 000 Kč", "0,91"},
		{"do 3,5 m", 120000, 0.93},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	got, err := ReadXLSX(&buf)
	require.NoError(t, err)
	entries, err := ParsePriceRows(got)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, d("120000").Equal(entries[1].Price))
	assert.True(t, d("930").Equal(entries[1].HeightMm))
}

func TestReadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "priplatky.csv")
	require.NoError(t, os.WriteFile(path, []byte("klapka,7000\nRAL,20%\n"), 0o644))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"klapka", "7000"}, rows[0])

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestReadBytes_SniffsWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]any{"klapka", 7000}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rows, err := ReadBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"klapka", "7000"}}, rows)

	rows, err = ReadBytes([]byte("klapka;7000\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"klapka", "7000"}}, rows)
}
