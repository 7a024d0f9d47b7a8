package export

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Page layout constants (A4 portrait in mm).
const (
	pdfPageWidth   = 210.0
	pdfMargin      = 18.0
	pdfContent     = pdfPageWidth - 2*pdfMargin
	pdfLineHeight  = 6.0
	pdfItemWidth   = pdfContent * 0.45
	pdfDetailWidth = pdfContent * 0.35
	pdfPriceWidth  = pdfContent - pdfItemWidth - pdfDetailWidth
)

var (
	brandBlue   = [3]int{0, 75, 150}
	brandOrange = [3]int{240, 120, 0}
)

// PDF writes the offer as a one-page A4 document.
func PDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Price quote "+doc.Quote.Model, true)
	pdf.AddPage()

	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	txt := func(s string) string { return cp1252(latin(s)) }

	renderPDFHeader(pdf, doc, txt)
	renderPDFItems(pdf, doc, txt)
	renderPDFTotals(pdf, doc, txt)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func renderPDFHeader(pdf *fpdf.Fpdf, doc Document, txt func(string) string) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(brandBlue[0], brandBlue[1], brandBlue[2])
	pdf.CellFormat(pdfContent, 12, txt("PRICE QUOTE"), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(brandOrange[0], brandOrange[1], brandOrange[2])
	pdf.SetLineWidth(1)
	pdf.Line(pdfMargin, pdf.GetY()+1, pdfPageWidth-pdfMargin, pdf.GetY()+1)
	pdf.Ln(6)

	s, o := doc.Supplier, doc.Offer
	left := []string{s.Name, s.Address, s.TaxID, s.Phone, s.Email, s.Web}
	if o.PreparedBy != "" {
		left = append(left, "Prepared by: "+o.PreparedBy)
	}
	right := []string{o.Customer, o.Address, o.Phone, o.Email}
	if !o.IssueDate.IsZero() {
		right = append(right, "Issued: "+formatDate(o.IssueDate), "Valid until: "+formatDate(o.ValidUntil()))
	}

	half := pdfContent / 2
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(half, pdfLineHeight, txt("SUPPLIER"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(half, pdfLineHeight, txt("CUSTOMER"), "B", 1, "L", false, 0, "")
	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Helvetica", "", 10)

	left, right = compact(left), compact(right)
	for i := 0; i < len(left) || i < len(right); i++ {
		pdf.CellFormat(half, 5, txt(at(left, i)), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 5, txt(at(right, i)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func renderPDFItems(pdf *fpdf.Fpdf, doc Document, txt func(string) string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(brandBlue[0], brandBlue[1], brandBlue[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(pdfItemWidth, 8, txt("Item"), "", 0, "L", true, 0, "")
	pdf.CellFormat(pdfDetailWidth, 8, txt("Detail"), "", 0, "L", true, 0, "")
	pdf.CellFormat(pdfPriceWidth, 8, txt("Price"), "", 1, "R", true, 0, "")

	pdf.SetTextColor(40, 40, 40)
	pdf.SetDrawColor(230, 230, 230)
	pdf.SetLineWidth(0.2)
	for i, it := range doc.Quote.Items {
		fill := i%2 == 1
		pdf.SetFillColor(248, 248, 248)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(pdfItemWidth, 7, txt(it.Label), "B", 0, "L", fill, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(pdfDetailWidth, 7, txt(it.Detail), "B", 0, "L", fill, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(pdfPriceWidth, 7, txt(FormatCZK(it.Amount)), "B", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)
}

func renderPDFTotals(pdf *fpdf.Fpdf, doc Document, txt func(string) string) {
	q := doc.Quote
	labelX := pdfMargin + pdfItemWidth
	row := func(label, value string) {
		pdf.SetX(labelX)
		pdf.CellFormat(pdfDetailWidth, pdfLineHeight, txt(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(pdfPriceWidth, pdfLineHeight, txt(value), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	row("Subtotal excl. VAT:", FormatCZK(q.SubtotalExVat))
	row("VAT "+FormatPercent(q.VatRate)+":", FormatCZK(q.VatAmount))

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(brandOrange[0], brandOrange[1], brandOrange[2])
	row("TOTAL:", FormatCZK(q.TotalInclVat))
	pdf.SetTextColor(40, 40, 40)
	pdf.Ln(8)

	o := doc.Offer
	pdf.SetFont("Helvetica", "I", 9)
	if o.DeliveryTerm != "" {
		pdf.MultiCell(pdfContent, 5, txt("Delivery term: "+o.DeliveryTerm), "", "L", false)
	}
	if o.Note != "" {
		pdf.MultiCell(pdfContent, 5, txt(o.Note), "", "L", false)
	}
	for _, warn := range q.Warnings {
		pdf.MultiCell(pdfContent, 5, txt("Note: "+warn), "", "L", false)
	}
}

// latin folds text onto the core-font character set: diacritics are dropped
// and arrows spelled out.
func latin(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return arrows.Replace(out)
}

var arrows = strings.NewReplacer("→", "->", "←", "<-")

func compact(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
