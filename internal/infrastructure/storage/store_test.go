package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]ArtifactStore {
	t.Helper()
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return map[string]ArtifactStore{
		"local":  local,
		"memory": NewMemoryStore(),
	}
}

func TestArtifactStore(t *testing.T) {
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("put then get round-trips", func(t *testing.T) {
				n, err := store.Put(ctx, "exports/a.xlsx", strings.NewReader("workbook-bytes"))
				require.NoError(t, err)
				assert.Equal(t, int64(14), n)

				rc, err := store.Get(ctx, "exports/a.xlsx")
				require.NoError(t, err)
				defer rc.Close()

				data, err := io.ReadAll(rc)
				require.NoError(t, err)
				assert.Equal(t, "workbook-bytes", string(data))

				ok, err := store.Exists(ctx, "exports/a.xlsx")
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("get of a missing key is not found", func(t *testing.T) {
				_, err := store.Get(ctx, "exports/missing.xlsx")
				assert.ErrorIs(t, err, shared.ErrNotFound)
			})

			t.Run("put overwrites existing content", func(t *testing.T) {
				_, err := store.Put(ctx, "exports/b.xlsx", strings.NewReader("v1"))
				require.NoError(t, err)
				_, err = store.Put(ctx, "exports/b.xlsx", strings.NewReader("v2-longer"))
				require.NoError(t, err)

				rc, err := store.Get(ctx, "exports/b.xlsx")
				require.NoError(t, err)
				defer rc.Close()
				data, err := io.ReadAll(rc)
				require.NoError(t, err)
				assert.Equal(t, "v2-longer", string(data))
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				_, err := store.Put(ctx, "exports/c.xlsx", strings.NewReader("x"))
				require.NoError(t, err)
				require.NoError(t, store.Delete(ctx, "exports/c.xlsx"))
				require.NoError(t, store.Delete(ctx, "exports/c.xlsx"))

				ok, err := store.Exists(ctx, "exports/c.xlsx")
				require.NoError(t, err)
				assert.False(t, ok)
			})
		})
	}
}

func TestLocalStore_RejectsPathEscape(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.xlsx", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.Put(context.Background(), "/abs.xlsx", strings.NewReader("x"))
	assert.Error(t, err)
}
