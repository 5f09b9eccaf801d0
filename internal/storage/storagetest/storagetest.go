// storagetest — общий набор проверок контракта storage.Store,
// прогоняемый для каждой реализации.
package storagetest

import (
	"context"
	"testing"

	"github.com/pribylovaa/clinicare/internal/models"
	"github.com/pribylovaa/clinicare/internal/storage"
	"github.com/stretchr/testify/require"
)

// Run прогоняет контракт. newStore должен возвращать пустое хранилище
// (закрытие — забота вызывающего через t.Cleanup).
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("get_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), storage.KeyAccess)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put_then_get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A1", storage.KeyRefresh: "R1"}))

		v, err := s.Get(ctx, storage.KeyAccess)
		require.NoError(t, err)
		require.Equal(t, "A1", v)

		v, err = s.Get(ctx, storage.KeyRefresh)
		require.NoError(t, err)
		require.Equal(t, "R1", v)
	})

	t.Run("put_overwrites_only_given_keys", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A1", storage.KeyRefresh: "R1"}))
		require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A2"}))

		creds, err := storage.LoadCredentials(ctx, s)
		require.NoError(t, err)
		require.Equal(t, models.Credentials{AccessToken: "A2", RefreshToken: "R1"}, creds)
	})

	t.Run("delete_is_idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A1"}))
		require.NoError(t, s.Delete(ctx, storage.KeyAccess))
		require.NoError(t, s.Delete(ctx, storage.KeyAccess))

		_, err := s.Get(ctx, storage.KeyAccess)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("clear_removes_everything", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A1", storage.KeyRefresh: "R1", "theme": "dark"}))
		require.NoError(t, s.Clear(ctx))

		for _, key := range []string{storage.KeyAccess, storage.KeyRefresh, "theme"} {
			_, err := s.Get(ctx, key)
			require.ErrorIs(t, err, storage.ErrNotFound, key)
		}
	})

	t.Run("delete_credentials_keeps_other_keys", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, map[string]string{storage.KeyAccess: "A1", storage.KeyRefresh: "R1", "theme": "dark"}))
		require.NoError(t, storage.DeleteCredentials(ctx, s))

		creds, err := storage.LoadCredentials(ctx, s)
		require.NoError(t, err)
		require.True(t, creds.Empty())

		v, err := s.Get(ctx, "theme")
		require.NoError(t, err)
		require.Equal(t, "dark", v)
	})
}
