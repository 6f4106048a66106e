package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGet_MissingKeysAreAbsent(t *testing.T) {
	db := openTestDB(t)

	got, err := db.Get(context.Background(), "catHealth", "dailyStats")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_NoKeys(t *testing.T) {
	db := openTestDB(t)

	got, err := db.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSetAndGet_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, map[string][]byte{
		"catHealth":    []byte("88.5"),
		"catHappiness": []byte("70"),
	}))

	got, err := db.Get(ctx, "catHealth", "catHappiness", "mutedUntil")
	require.NoError(t, err)
	assert.Equal(t, "88.5", string(got["catHealth"]))
	assert.Equal(t, "70", string(got["catHappiness"]))
	_, ok := got["mutedUntil"]
	assert.False(t, ok)
}

func TestSet_Overwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, map[string][]byte{"lastResetDate": []byte(`"2026-03-01"`)}))
	require.NoError(t, db.Set(ctx, map[string][]byte{"lastResetDate": []byte(`"2026-03-02"`)}))

	got, err := db.Get(ctx, "lastResetDate")
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-02"`, string(got["lastResetDate"]))

	ts, err := db.UpdatedAt(ctx, "lastResetDate")
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestSet_CancelledContextWritesNothing(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.Set(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	require.Error(t, err)

	got, err := db.Get(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteAndKeys(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, map[string][]byte{
		"b": []byte("2"), "a": []byte("1"), "c": []byte("3"),
	}))
	require.NoError(t, db.Delete(ctx, "b"))

	keys, err := db.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys)

	ts, err := db.UpdatedAt(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestOpen_CreatesFileAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "purrwatch.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, map[string][]byte{"catHealth": []byte("42")}))
	require.NoError(t, db.Close())

	// Migrations must be idempotent on reopen.
	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := db.Get(ctx, "catHealth")
	require.NoError(t, err)
	assert.Equal(t, "42", string(got["catHealth"]))
}
