package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	memorystorage "github.com/tendant/simple-slots/pkg/simpleslots/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "slots/objects/ab/cdef"
	testData := "== Heading ==\nSome [[Color::red]] text."

	t.Run("Upload", func(t *testing.T) {
		err := backend.Upload(ctx, testKey, strings.NewReader(testData))
		assert.NoError(t, err)
		assert.Equal(t, 1, backend.Len())
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testKey, meta.Key)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.False(t, meta.UpdatedAt.IsZero())
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, testKey, strings.NewReader("new")))
		meta, err := backend.GetObjectMeta(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, int64(3), meta.Size)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.GetObjectMeta(ctx, testKey)
		assert.ErrorIs(t, err, simpleslots.ErrBlobNotFound)
		_, err = backend.Download(ctx, testKey)
		assert.ErrorIs(t, err, simpleslots.ErrBlobNotFound)
		assert.ErrorIs(t, backend.Delete(ctx, testKey), simpleslots.ErrBlobNotFound)
	})
}
