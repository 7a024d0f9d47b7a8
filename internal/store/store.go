// Package store persists reference data and saved quotes in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/poolquote/internal/pricing"
)

// ErrNotFound is returned when a saved quote does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a migrated database.
type Store struct {
	db *sql.DB
}

// New returns a Store on db. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// PriceEntries returns every stored price entry.
func (s *Store) PriceEntries(ctx context.Context) ([]pricing.PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, modules, width_mm, price, height_mm
		FROM price_entries
		ORDER BY model, modules, width_mm
	`)
	if err != nil {
		return nil, fmt.Errorf("query price entries: %w", err)
	}
	defer rows.Close()

	entries := make([]pricing.PriceEntry, 0)
	for rows.Next() {
		var (
			e             pricing.PriceEntry
			price, height string
		)
		if err := rows.Scan(&e.Model, &e.Modules, &e.WidthMm, &price, &height); err != nil {
			return nil, fmt.Errorf("scan price entry: %w", err)
		}
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("price entry %s/%d/%d: %w", e.Model, e.Modules, e.WidthMm, err)
		}
		if e.HeightMm, err = decimal.NewFromString(height); err != nil {
			return nil, fmt.Errorf("price entry %s/%d/%d height: %w", e.Model, e.Modules, e.WidthMm, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price entries: %w", err)
	}

	return entries, nil
}

// SurchargeRules returns the surcharge catalog in import order.
func (s *Store) SurchargeRules(ctx context.Context) ([]pricing.SurchargeRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, fixed, percent, category
		FROM surcharges
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query surcharges: %w", err)
	}
	defer rows.Close()

	rules := make([]pricing.SurchargeRule, 0)
	for rows.Next() {
		var (
			r                        pricing.SurchargeRule
			fixed, percent, category string
		)
		if err := rows.Scan(&r.Name, &fixed, &percent, &category); err != nil {
			return nil, fmt.Errorf("scan surcharge: %w", err)
		}
		if r.Fixed, err = decimal.NewFromString(fixed); err != nil {
			return nil, fmt.Errorf("surcharge %q fixed: %w", r.Name, err)
		}
		if r.Percent, err = decimal.NewFromString(percent); err != nil {
			return nil, fmt.Errorf("surcharge %q percent: %w", r.Name, err)
		}
		if r.Category, err = pricing.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("surcharge %q: %w", r.Name, err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surcharges: %w", err)
	}

	return rules, nil
}

// LoadSnapshot builds a pricing snapshot from the stored reference data. The
// soft errors name surcharges that fell back to their defaults.
func (s *Store) LoadSnapshot(ctx context.Context) (*pricing.Snapshot, []*pricing.SurchargeNotFoundError, error) {
	entries, err := s.PriceEntries(ctx)
	if err != nil {
		return nil, nil, err
	}
	rules, err := s.SurchargeRules(ctx)
	if err != nil {
		return nil, nil, err
	}

	prices, err := pricing.NewPriceTable(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("build price table: %w", err)
	}
	snap, missing := pricing.NewSnapshot(prices, pricing.NewSurchargeTable(rules))
	return snap, missing, nil
}

// ReplacePrices swaps the whole price list for entries in one transaction.
// Entries are validated before anything is written.
func (s *Store) ReplacePrices(ctx context.Context, entries []pricing.PriceEntry) (int, error) {
	table, err := pricing.NewPriceTable(entries)
	if err != nil {
		return 0, fmt.Errorf("validate price entries: %w", err)
	}
	entries = table.Entries()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM price_entries`); err != nil {
			return fmt.Errorf("clear price entries: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO price_entries (model, modules, width_mm, price, height_mm)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare price insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Model, e.Modules, e.WidthMm, e.Price.String(), e.HeightMm.String()); err != nil {
				return fmt.Errorf("insert price entry %s/%d/%d: %w", e.Model, e.Modules, e.WidthMm, err)
			}
		}
		return recordImport(ctx, tx, "prices", len(entries))
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ReplaceSurcharges swaps the whole surcharge catalog in one transaction.
// Rules without a name are dropped.
func (s *Store) ReplaceSurcharges(ctx context.Context, rules []pricing.SurchargeRule) (int, error) {
	rules = pricing.NewSurchargeTable(rules).Rules()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM surcharges`); err != nil {
			return fmt.Errorf("clear surcharges: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO surcharges (name, fixed, percent, category)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare surcharge insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rules {
			if _, err := stmt.ExecContext(ctx, r.Name, r.Fixed.String(), r.Percent.String(), r.Category.String()); err != nil {
				return fmt.Errorf("insert surcharge %q: %w", r.Name, err)
			}
		}
		return recordImport(ctx, tx, "surcharges", len(rules))
	})
	if err != nil {
		return 0, err
	}
	return len(rules), nil
}

func recordImport(ctx context.Context, tx *sql.Tx, kind string, n int) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO feed_imports (kind, row_count) VALUES (?, ?)`, kind, n); err != nil {
		return fmt.Errorf("record %s import: %w", kind, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
