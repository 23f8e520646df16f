package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens")
	store := NewFile(path, "test-passphrase")
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	rec := &Record{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		Provider:     "postgrest",
		SavedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.AccessToken, got.AccessToken)
	assert.Equal(t, rec.RefreshToken, got.RefreshToken)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, rec.Provider, got.Provider)
}

func TestFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens")
	ctx := context.Background()

	require.NoError(t, NewFile(path, "right").Save(ctx, &Record{AccessToken: "a"}))

	_, err := NewFile(path, "wrong").Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecrypt))
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens")
	store := NewFile(path, "pass")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{AccessToken: "a"}))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing an already-empty store is not an error.
	assert.NoError(t, store.Clear(ctx))
}

func TestFileStoreTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens")
	store := NewFile(path, "pass")
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	rec := &Record{AccessToken: "a", RefreshToken: "r"}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)

	// Mutating the returned record must not affect the stored copy.
	got.AccessToken = "mutated"
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again.AccessToken)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
