package snapshot_test

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/hupe1980/bitdex"
	"github.com/hupe1980/bitdex/blobstore"
	"github.com/hupe1980/bitdex/coder"
	"github.com/hupe1980/bitdex/resource"
	"github.com/hupe1980/bitdex/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(t *testing.T, n int) *bitdex.Index[int64] {
	t.Helper()
	idx := bitdex.NewRange[int64](nil)
	for i := range n {
		require.NoError(t, idx.PushBack(int64(i%17)))
	}
	return idx
}

func TestStore_SaveLoad(t *testing.T) {
	for _, c := range []snapshot.Compression{snapshot.None, snapshot.LZ4, snapshot.ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := t.Context()
			store := snapshot.NewStore(blobstore.NewMemoryStore(), snapshot.WithCompression(c))

			idx := prices(t, 1000)
			require.NoError(t, store.Save(ctx, "prices", idx))

			got := bitdex.NewRange[int64](nil)
			require.NoError(t, store.Load(ctx, "prices", got))
			assert.True(t, idx.Equal(got))

			rows, err := got.Lookup(coder.OpLessThan, 3)
			require.NoError(t, err)
			want, err := idx.Lookup(coder.OpLessThan, 3)
			require.NoError(t, err)
			assert.True(t, want.Equal(&rows))
		})
	}
}

func TestStore_LocalRoundTrip(t *testing.T) {
	ctx := t.Context()
	store := snapshot.NewStore(blobstore.NewLocalStore(t.TempDir()), snapshot.WithPrefix("trades/"))

	idx := prices(t, 200)
	require.NoError(t, store.Save(ctx, "prices", idx))

	info, err := store.Stat(ctx, "prices")
	require.NoError(t, err)
	assert.Equal(t, "prices", info.Name)
	assert.Equal(t, uint8(snapshot.Version), info.Version)
	assert.Positive(t, info.Size)

	raw, err := idx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(raw)), info.RawSize)

	loaded := bitdex.NewRange[int64](nil)
	require.NoError(t, store.Load(ctx, "prices", loaded))
	assert.True(t, idx.Equal(loaded))
}

func TestStore_ListDelete(t *testing.T) {
	ctx := t.Context()
	blobs := blobstore.NewMemoryStore()
	store := snapshot.NewStore(blobs, snapshot.WithPrefix("t/"))

	for _, name := range []string{"volume", "price", "flag"} {
		require.NoError(t, store.Save(ctx, name, prices(t, 10)))
	}
	require.NoError(t, blobs.Put(ctx, "t/readme.txt", []byte("x")))
	require.NoError(t, blobs.Put(ctx, "other.bdx", []byte("x")))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "price", "volume"}, names)

	require.NoError(t, store.Delete(ctx, "price"))
	require.NoError(t, store.Delete(ctx, "price"))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "volume"}, names)

	err = store.Load(ctx, "price", bitdex.NewRange[int64](nil))
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_InvalidName(t *testing.T) {
	ctx := t.Context()
	store := snapshot.NewStore(blobstore.NewMemoryStore())

	for _, name := range []string{"", "a/b", ".."} {
		assert.ErrorIs(t, store.Save(ctx, name, prices(t, 1)), blobstore.ErrInvalidName, name)
	}
}

func TestStore_Corrupt(t *testing.T) {
	ctx := t.Context()
	blobs := blobstore.NewMemoryStore()
	store := snapshot.NewStore(blobs)

	require.NoError(t, store.Save(ctx, "prices", prices(t, 100)))
	data, err := blobstore.Get(ctx, blobs, "prices.bdx")
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, blobs.Put(ctx, "prices.bdx", data))

	idx := prices(t, 3)
	before := idx.Clone()
	err = store.Load(ctx, "prices", idx)
	require.Error(t, err)
	assert.ErrorIs(t, err, bitdex.ErrFormat)
	assert.True(t, before.Equal(idx))
}

func TestStore_SaveAllLoadAll(t *testing.T) {
	ctx := t.Context()
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:     64,
		MaxBackgroundWorkers: 2,
		IOLimitBytesPerSec:   1 << 30,
	})
	store := snapshot.NewStore(blobstore.NewMemoryStore(), snapshot.WithResources(rc))

	want := make(map[string]*bitdex.Index[int64])
	save := make(map[string]encoding.BinaryMarshaler)
	for i := range 8 {
		name := fmt.Sprintf("col%02d", i)
		want[name] = prices(t, 100*(i+1))
		save[name] = want[name]
	}
	require.NoError(t, store.SaveAll(ctx, save))
	assert.Zero(t, rc.MemoryUsage())

	got := make(map[string]*bitdex.Index[int64])
	load := make(map[string]encoding.BinaryUnmarshaler)
	for name := range want {
		got[name] = bitdex.NewRange[int64](nil)
		load[name] = got[name]
	}
	require.NoError(t, store.LoadAll(ctx, load))
	assert.Zero(t, rc.MemoryUsage())

	for name, idx := range want {
		assert.True(t, idx.Equal(got[name]), name)
	}
}

func TestStore_LoadAllFailure(t *testing.T) {
	ctx := t.Context()
	store := snapshot.NewStore(blobstore.NewMemoryStore())
	require.NoError(t, store.Save(ctx, "a", prices(t, 10)))

	err := store.LoadAll(ctx, map[string]encoding.BinaryUnmarshaler{
		"a":       bitdex.NewRange[int64](nil),
		"missing": bitdex.NewRange[int64](nil),
	})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	store := snapshot.NewStore(blobstore.NewMemoryStore())
	err := store.SaveAll(ctx, map[string]encoding.BinaryMarshaler{"a": prices(t, 10)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Logging(t *testing.T) {
	ctx := t.Context()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := snapshot.NewStore(blobstore.NewMemoryStore(), snapshot.WithLogger(logger))

	require.NoError(t, store.Save(ctx, "prices", prices(t, 500)))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot saved", entry["msg"])
	assert.Equal(t, "prices", entry["name"])
	assert.Contains(t, []any{"zstd", "none"}, entry["compression"])
	assert.Positive(t, entry["bytes"])

	buf.Reset()
	require.Error(t, store.Load(ctx, "missing", bitdex.NewRange[int64](nil)))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot load failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
}
