// Package seed writes the startup data a fresh database needs: the admin
// user and a surcharge catalog holding the built-in defaults.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/poolquote/internal/auth"
	"github.com/Simplici0/poolquote/internal/pricing"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSurcharges(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var stored string
	err := tx.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, auth.HashPassword(password)); err != nil {
			return fmt.Errorf("insert admin user: %w", err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check admin user existence: %w", err)
	}

	// A changed ADMIN_PASSWORD takes effect on the next start.
	if auth.CheckPassword(stored, password) {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE email = ?`, auth.HashPassword(password), email); err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	stats.Updates++
	return nil
}

// ensureSurcharges fills an empty catalog with one standard rule per rate.
// An imported catalog is never touched.
func ensureSurcharges(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM surcharges LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check surcharge catalog existence: %w", err)
	}
	if exists {
		return nil
	}

	for _, def := range pricing.RateDefs {
		fixed, percent := def.Fallback, decimal.Zero
		if def.Kind == pricing.RatePercent {
			fixed, percent = decimal.Zero, def.Fallback
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO surcharges (name, fixed, percent, category)
			VALUES (?, ?, ?, ?)
		`, def.Term, fixed.String(), percent.String(), pricing.CategoryStandard.String()); err != nil {
			return fmt.Errorf("insert default surcharge %q: %w", def.Term, err)
		}
		stats.Inserts++
	}
	return nil
}
