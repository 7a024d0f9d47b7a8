package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/poolquote/internal/db"
	"github.com/Simplici0/poolquote/internal/migrations"
)

func TestCheckPassword(t *testing.T) {
	hash := HashPassword("s3cret")
	assert.Len(t, hash, 64)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "other"))
	assert.True(t, CheckPassword("legacy", "legacy"))
}

func TestValidateCredentials(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, migrations.Up(database))

	_, err = database.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, "admin@example.cz", HashPassword("pw"))
	require.NoError(t, err)

	ok, err := ValidateCredentials(ctx, database, "admin@example.cz", "pw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ValidateCredentials(ctx, database, "admin@example.cz", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ValidateCredentials(ctx, database, "ghost@example.cz", "pw")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessions(t *testing.T) {
	s := NewSessions("secret")
	value := s.Sign("admin@example.cz")

	email, ok := s.Verify(value)
	assert.True(t, ok)
	assert.Equal(t, "admin@example.cz", email)

	_, ok = NewSessions("other").Verify(value)
	assert.False(t, ok, "foreign secret")

	tampered := strings.Replace(value, value[:2], "xx", 1)
	_, ok = s.Verify(tampered)
	assert.False(t, ok)

	for _, bad := range []string{"", "abc", "a.b.c", "." + strings.Split(value, ".")[1]} {
		_, ok := s.Verify(bad)
		assert.False(t, ok, bad)
	}
}
