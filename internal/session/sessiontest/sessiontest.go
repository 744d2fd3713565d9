// Package sessiontest holds the behaviour every session.Backend must share.
package sessiontest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smhassan90/salaahManager/internal/session"
)

// RunBackendTests exercises b. newBackend must return an empty backend.
func RunBackendTests(t *testing.T, newBackend func(t *testing.T) session.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		b := newBackend(t)
		v, ok, err := b.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("SetGet", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", "v1"))
		require.NoError(t, b.Set(ctx, "k", "v2"))

		v, ok, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", v)
	})

	t.Run("EmptyValueIsPresent", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", ""))

		_, ok, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("SetMany", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "a", "old"))
		require.NoError(t, b.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))

		for k, want := range map[string]string{"a": "1", "b": "2"} {
			v, ok, err := b.Get(ctx, k)
			require.NoError(t, err)
			assert.True(t, ok, k)
			assert.Equal(t, want, v, k)
		}
		require.NoError(t, b.SetMany(ctx, nil))
	})

	t.Run("Remove", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.SetMany(ctx, map[string]string{"a": "1", "b": "2", "c": "3"}))
		require.NoError(t, b.Remove(ctx, "a", "b", "never-set"))

		_, ok, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = b.Get(ctx, "b")
		require.NoError(t, err)
		assert.False(t, ok)
		v, ok, err := b.Get(ctx, "c")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "3", v)

		require.NoError(t, b.Remove(ctx))
	})

	t.Run("StoreClearSessionKeepsLanguage", func(t *testing.T) {
		store := session.NewStore(newBackend(t))
		require.NoError(t, store.SetTokens(ctx, "a", "r"))
		require.NoError(t, store.SetDefaultMasjidID(ctx, "m1"))
		require.NoError(t, store.MarkRead(ctx, "n1"))
		require.NoError(t, store.SetLanguage(ctx, "ur"))

		require.NoError(t, store.ClearSession(ctx))

		access, err := store.AccessToken(ctx)
		require.NoError(t, err)
		assert.Empty(t, access)
		ids, err := store.ReadNotificationIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
		lang, err := store.Language(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ur", string(lang))
	})
}
