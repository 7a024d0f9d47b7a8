package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/poolquote/internal/export"
	"github.com/Simplici0/poolquote/internal/pricing"
)

const defaultListLimit = 100

// timeLayout sorts lexically, unlike RFC3339Nano.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SavedQuote is a quote frozen at the time it was saved. Reopening it never
// recalculates against newer reference data.
type SavedQuote struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Offer     export.Offer   `json:"offer"`
	Config    pricing.Config `json:"config"`
	Quote     pricing.Quote  `json:"quote"`
}

// Document returns the printable form of the saved quote.
func (q SavedQuote) Document(supplier export.Supplier) export.Document {
	return export.Document{Supplier: supplier, Offer: q.Offer, Quote: q.Quote}
}

// QuoteSummary is one row of the quote history.
type QuoteSummary struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Customer     string          `json:"customer"`
	Model        string          `json:"model"`
	TotalInclVat decimal.Decimal `json:"total_incl_vat"`
}

// SaveQuote stores q under a new ID and returns it with ID and CreatedAt set.
func (s *Store) SaveQuote(ctx context.Context, q SavedQuote) (SavedQuote, error) {
	q.ID = uuid.NewString()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	q.CreatedAt = q.CreatedAt.UTC()

	configJSON, err := json.Marshal(q.Config)
	if err != nil {
		return SavedQuote{}, fmt.Errorf("encode config: %w", err)
	}
	quoteJSON, err := json.Marshal(q.Quote)
	if err != nil {
		return SavedQuote{}, fmt.Errorf("encode quote: %w", err)
	}
	offerJSON, err := json.Marshal(q.Offer)
	if err != nil {
		return SavedQuote{}, fmt.Errorf("encode offer: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (id, created_at, customer, model, total_incl_vat, config_json, quote_json, offer_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID,
		q.CreatedAt.UTC().Format(timeLayout),
		strings.TrimSpace(q.Offer.Customer),
		q.Quote.Model,
		q.Quote.TotalInclVat.String(),
		string(configJSON),
		string(quoteJSON),
		string(offerJSON),
	); err != nil {
		return SavedQuote{}, fmt.Errorf("insert quote: %w", err)
	}

	return q, nil
}

// ListQuotes returns saved quotes newest first. A non-empty query filters by
// customer or model.
func (s *Store) ListQuotes(ctx context.Context, query string, limit int) ([]QuoteSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	sqlQuery := `
		SELECT id, created_at, customer, model, total_incl_vat
		FROM quotes
	`
	args := []any{}
	if query = strings.TrimSpace(query); query != "" {
		sqlQuery += ` WHERE customer LIKE ? OR model LIKE ?`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	sqlQuery += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]QuoteSummary, 0)
	for rows.Next() {
		var (
			q                QuoteSummary
			createdAt, total string
		)
		if err := rows.Scan(&q.ID, &createdAt, &q.Customer, &q.Model, &total); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		if q.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("quote %s created_at: %w", q.ID, err)
		}
		if q.TotalInclVat, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("quote %s total: %w", q.ID, err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

// GetQuote loads a saved quote by ID.
func (s *Store) GetQuote(ctx context.Context, id string) (SavedQuote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SavedQuote{}, ErrNotFound
	}

	var (
		q                                           SavedQuote
		createdAt, configJSON, quoteJSON, offerJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, config_json, quote_json, offer_json
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &createdAt, &configJSON, &quoteJSON, &offerJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuote{}, ErrNotFound
	}
	if err != nil {
		return SavedQuote{}, fmt.Errorf("query quote %s: %w", id, err)
	}

	if q.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return SavedQuote{}, fmt.Errorf("quote %s created_at: %w", id, err)
	}
	if err := json.Unmarshal([]byte(configJSON), &q.Config); err != nil {
		return SavedQuote{}, fmt.Errorf("decode quote %s config: %w", id, err)
	}
	if err := json.Unmarshal([]byte(quoteJSON), &q.Quote); err != nil {
		return SavedQuote{}, fmt.Errorf("decode quote %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(offerJSON), &q.Offer); err != nil {
		return SavedQuote{}, fmt.Errorf("decode quote %s offer: %w", id, err)
	}

	return q, nil
}

// DeleteQuote removes a saved quote.
func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
