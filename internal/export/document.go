// Package export renders quotes as customer-facing offers: plain text, PDF and
// Excel workbooks.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/poolquote/internal/pricing"
)

const (
	DefaultValidityDays = 10
	DefaultDeliveryTerm = "by agreement (approx. 6-8 weeks)"
	dateLayout          = "02.01.2006"
)

// Supplier is the company issuing the offer.
type Supplier struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Web     string `json:"web,omitempty"`
}

// Offer carries the customer and commercial details printed around a quote.
type Offer struct {
	Customer     string    `json:"customer"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	PreparedBy   string    `json:"prepared_by,omitempty"`
	IssueDate    time.Time `json:"issue_date"`
	ValidityDays int       `json:"validity_days,omitempty"`
	DeliveryTerm string    `json:"delivery_term,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// WithDefaults fills the validity, delivery term and issue date when unset.
func (o Offer) WithDefaults(now time.Time) Offer {
	if o.IssueDate.IsZero() {
		o.IssueDate = now
	}
	if o.ValidityDays <= 0 {
		o.ValidityDays = DefaultValidityDays
	}
	if strings.TrimSpace(o.DeliveryTerm) == "" {
		o.DeliveryTerm = DefaultDeliveryTerm
	}
	return o
}

// ValidUntil is the last day the offer holds.
func (o Offer) ValidUntil() time.Time {
	days := o.ValidityDays
	if days <= 0 {
		days = DefaultValidityDays
	}
	return o.IssueDate.AddDate(0, 0, days)
}

// Document is everything a renderer needs.
type Document struct {
	Supplier Supplier
	Offer    Offer
	Quote    pricing.Quote
}

// FormatCZK formats an amount as "12 345 Kč", or "12 345,50 Kč" when it has
// a fractional part.
func FormatCZK(amount decimal.Decimal) string {
	amount = amount.Round(2)
	neg := amount.IsNegative()
	amount = amount.Abs()

	whole := amount.Truncate(0)
	frac := amount.Sub(whole)
	digits := whole.String()

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if !frac.IsZero() {
		fmt.Fprintf(&b, ",%02d", frac.Shift(2).IntPart())
	}
	b.WriteString(" Kč")
	return b.String()
}

// FormatPercent formats a VAT-style percentage such as 21 or 12.5.
func FormatPercent(rate decimal.Decimal) string {
	return strings.Replace(rate.String(), ".", ",", 1) + " %"
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
