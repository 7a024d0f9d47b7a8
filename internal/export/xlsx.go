package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxSheet     = "Quote"
	czkNumFmt     = `#,##0.00 "Kč"`
	xlsxFirstItem = 9
)

// XLSX writes the offer as a single-sheet workbook with numeric price cells.
func XLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}
	for col, width := range map[string]float64{"A": 42, "B": 44, "C": 18} {
		if err := f.SetColWidth(xlsxSheet, col, col, width); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	q, o := doc.Quote, doc.Offer
	set := func(ref string, v any) error {
		return f.SetCellValue(xlsxSheet, ref, v)
	}

	header := [][2]string{
		{"A1", "PRICE QUOTE"},
		{"A2", "Supplier: " + joinNonEmpty(", ", doc.Supplier.Name, doc.Supplier.Address)},
		{"A3", "Customer: " + joinNonEmpty(", ", o.Customer, o.Address, o.Phone, o.Email)},
		{"A4", "Prepared by: " + o.PreparedBy},
		{"A6", fmt.Sprintf("Model %s, length %d mm (standard %d mm)", q.Model, q.LengthMm, q.StandardLengthMm)},
	}
	if !o.IssueDate.IsZero() {
		header = append(header, [2]string{"A5", "Issued " + formatDate(o.IssueDate) + ", valid until " + formatDate(o.ValidUntil())})
	}
	for _, h := range header {
		if err := set(h[0], h[1]); err != nil {
			return fmt.Errorf("write %s: %w", h[0], err)
		}
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "A1", styles.title); err != nil {
		return fmt.Errorf("style title: %w", err)
	}

	headRow := xlsxFirstItem - 1
	for i, title := range []string{"Item", "Detail", "Price"} {
		ref, _ := excelize.CoordinatesToCellName(i+1, headRow)
		if err := set(ref, title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(xlsxSheet, fmt.Sprintf("A%d", headRow), fmt.Sprintf("C%d", headRow), styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := xlsxFirstItem
	for _, it := range q.Items {
		if err := set(fmt.Sprintf("A%d", row), it.Label); err != nil {
			return fmt.Errorf("write item: %w", err)
		}
		if err := set(fmt.Sprintf("B%d", row), it.Detail); err != nil {
			return fmt.Errorf("write item: %w", err)
		}
		if err := set(fmt.Sprintf("C%d", row), it.Amount.InexactFloat64()); err != nil {
			return fmt.Errorf("write item: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), styles.money); err != nil {
			return fmt.Errorf("style item: %w", err)
		}
		row++
	}

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal excl. VAT", q.SubtotalExVat.InexactFloat64()},
		{"VAT " + FormatPercent(q.VatRate), q.VatAmount.InexactFloat64()},
		{"TOTAL", q.TotalInclVat.InexactFloat64()},
	}
	for _, t := range totals {
		if err := set(fmt.Sprintf("B%d", row), t.label); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
		if err := set(fmt.Sprintf("C%d", row), t.value); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("C%d", row), styles.total); err != nil {
			return fmt.Errorf("style totals: %w", err)
		}
		row++
	}

	if o.DeliveryTerm != "" {
		row++
		if err := set(fmt.Sprintf("A%d", row), "Delivery term: "+o.DeliveryTerm); err != nil {
			return fmt.Errorf("write delivery term: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

type xlsxStyles struct {
	title, header, money, total int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	numFmt := czkNumFmt

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "#004B96"},
	}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#004B96"}, Pattern: 1},
		Border: thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	if s.money, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Border:       thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create money style: %w", err)
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &numFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, fmt.Errorf("create total style: %w", err)
	}
	return s, nil
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#CCCCCC", Style: 1}
	}
	return borders
}
