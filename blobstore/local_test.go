package blobstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/bitdex/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_Layout(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()
	store := NewLocalStore(root)

	require.NoError(t, store.Put(ctx, "prices/0001.bdx", []byte("data")))

	got, err := os.ReadFile(filepath.Join(root, "prices", "0001.bdx"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	entries, err := os.ReadDir(filepath.Join(root, "prices"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be renamed away")
}

func TestLocalStore_Mappable(t *testing.T) {
	ctx := t.Context()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "blob", []byte("mapped")))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	m, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "mapped", string(data))

	require.NoError(t, blob.Close())
	_, err = m.Bytes()
	assert.Error(t, err)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_ListSkipsTemporary(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()
	store := NewLocalStore(root)

	require.NoError(t, store.Put(ctx, "blob", []byte("x")))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tmp-blob-123"), []byte("partial"), 0o600))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"blob"}, names)
}

func TestLocalStore_PutFailureKeepsPrevious(t *testing.T) {
	faults := map[string]fs.Fault{
		"Write":  {FailAfterBytes: 2},
		"Sync":   {FailAfterBytes: -1, FailOnSync: true},
		"Close":  {FailAfterBytes: -1, FailOnClose: true},
		"Rename": {FailAfterBytes: -1, FailOnRename: true},
	}

	for name, fault := range faults {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			root := t.TempDir()
			store := NewLocalStore(root)
			require.NoError(t, store.Put(ctx, "prices", []byte("v1")))

			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("prices", fault)
			store.fsys = ffs

			err := store.Put(ctx, "prices", []byte("version two"))
			require.ErrorIs(t, err, fs.ErrInjected)

			got, err := Get(ctx, store, "prices")
			require.NoError(t, err)
			assert.Equal(t, "v1", string(got))

			entries, err := os.ReadDir(root)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary file must be removed")
		})
	}
}
