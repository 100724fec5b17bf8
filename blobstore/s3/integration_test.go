package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/bitdex/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test-bitdex-%d/", time.Now().UnixNano())
	store, err := New(ctx, bucket, WithPrefix(prefix), WithRegion(os.Getenv("AWS_REGION")))
	require.NoError(t, err)

	t.Run("PutAndRead", func(t *testing.T) {
		name := "test.blob"
		data := make([]byte, 12*1024*1024)
		_, _ = rand.Read(data)

		require.NoError(t, store.Put(ctx, name, data))

		// List
		blobs, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, blobs, name)

		// Open
		r, err := store.Open(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), r.Size())

		// ReadAt
		buf := make([]byte, 100)
		n2, err := r.ReadAt(ctx, buf, 0)
		require.NoError(t, err)
		assert.Equal(t, 100, n2)
		assert.Equal(t, data[:100], buf)

		// ReadAt Offset
		n3, err := r.ReadAt(ctx, buf, 1024)
		require.NoError(t, err)
		assert.Equal(t, 100, n3)
		assert.Equal(t, data[1024:1124], buf)

		// Clean up
		require.NoError(t, store.Delete(ctx, name))
		require.NoError(t, r.Close())
	})

	t.Run("SmallBlob", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "small.blob", []byte("bitdex")))
		got, err := blobstore.Get(ctx, store, "small.blob")
		require.NoError(t, err)
		assert.Equal(t, "bitdex", string(got))
		require.NoError(t, store.Delete(ctx, "small.blob"))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "nonexistent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
