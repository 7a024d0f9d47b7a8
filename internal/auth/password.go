// Package auth holds the credential checks shared by the seed and the admin
// endpoints.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// HashPassword returns the stored form of password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares password against a stored hash. Plain-text values
// written by hand into the users table are accepted too.
func CheckPassword(stored, password string) bool {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(HashPassword(password))) == 1 {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// ValidateCredentials reports whether email and password match a user.
func ValidateCredentials(ctx context.Context, db *sql.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	var stored string
	err := db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user credentials: %w", err)
	}

	return CheckPassword(stored, password), nil
}
