package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pribylovaa/clinicare/internal/storage"
	"github.com/pribylovaa/clinicare/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, path, profile string) *Store {
	t.Helper()
	s, err := New(context.Background(), path, profile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return open(t, filepath.Join(t.TempDir(), "profile.db"), "default")
	})
}

// Значения переживают переоткрытие файла — "durable across reloads".
func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.db")
	ctx := context.Background()

	s, err := New(ctx, path, "default")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A1", storage.KeyRefresh: "R1"}))
	require.NoError(t, s.Close())

	s2 := open(t, path, "default")
	creds, err := storage.LoadCredentials(ctx, s2)
	require.NoError(t, err)
	require.Equal(t, "A1", creds.AccessToken)
	require.Equal(t, "R1", creds.RefreshToken)
}

// Профили изолированы друг от друга в одном файле.
func TestStore_ProfilesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.db")
	ctx := context.Background()

	a := open(t, path, "alice")
	b := open(t, path, "bob")

	require.NoError(t, a.Put(ctx, map[string]string{storage.KeyAccess: "A-alice"}))
	require.NoError(t, b.Clear(ctx))

	v, err := a.Get(ctx, storage.KeyAccess)
	require.NoError(t, err)
	require.Equal(t, "A-alice", v)

	_, err = b.Get(ctx, storage.KeyAccess)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
