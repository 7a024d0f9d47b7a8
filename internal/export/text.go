package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Text writes a plain-text offer, suitable for terminals and e-mail bodies.
func Text(w io.Writer, doc Document) error {
	q := doc.Quote
	o := doc.Offer

	var b strings.Builder
	b.WriteString("PRICE QUOTE\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if doc.Supplier.Name != "" {
		fmt.Fprintf(&b, "Supplier:     %s\n", joinNonEmpty(", ", doc.Supplier.Name, doc.Supplier.Address))
	}
	if o.Customer != "" {
		fmt.Fprintf(&b, "Customer:     %s\n", joinNonEmpty(", ", o.Customer, o.Address, o.Phone, o.Email))
	}
	if !o.IssueDate.IsZero() {
		fmt.Fprintf(&b, "Issued:       %s, valid until %s\n", formatDate(o.IssueDate), formatDate(o.ValidUntil()))
	}
	if o.PreparedBy != "" {
		fmt.Fprintf(&b, "Prepared by:  %s\n", o.PreparedBy)
	}
	fmt.Fprintf(&b, "Model:        %s, length %d mm (standard %d mm)\n\n", q.Model, q.LengthMm, q.StandardLengthMm)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Item\tDetail\tPrice\t")
	for _, it := range q.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", it.Label, it.Detail, FormatCZK(it.Amount))
	}
	fmt.Fprintln(tw, "\t\t\t")
	fmt.Fprintf(tw, "Subtotal excl. VAT\t\t%s\t\n", FormatCZK(q.SubtotalExVat))
	fmt.Fprintf(tw, "VAT %s\t\t%s\t\n", FormatPercent(q.VatRate), FormatCZK(q.VatAmount))
	fmt.Fprintf(tw, "TOTAL\t\t%s\t\n", FormatCZK(q.TotalInclVat))
	if err := tw.Flush(); err != nil {
		return err
	}

	b.Reset()
	if o.DeliveryTerm != "" {
		fmt.Fprintf(&b, "\nDelivery term: %s\n", o.DeliveryTerm)
	}
	if o.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", o.Note)
	}
	for _, warn := range q.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warn)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
