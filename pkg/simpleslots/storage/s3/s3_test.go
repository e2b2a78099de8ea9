package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-slots/pkg/simpleslots"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("InvalidSSEAlgorithm", func(t *testing.T) {
		_, err := New(Config{Bucket: "test-bucket", EnableSSE: true, SSEAlgorithm: "rot13"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid SSE algorithm")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.NotNil(t, backend.uploader)
	})
}

func TestS3Backend_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{prefix: "", expected: "slots/objects/ab/cd"},
		{prefix: "wiki", expected: "wiki/slots/objects/ab/cd"},
		{prefix: "wiki/", expected: "wiki/slots/objects/ab/cd"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			b := &Backend{config: Config{Prefix: tt.prefix}}
			assert.Equal(t, tt.expected, b.objectKey("slots/objects/ab/cd"))
		})
	}
}

func TestMapError(t *testing.T) {
	t.Run("NoSuchKey", func(t *testing.T) {
		err := mapError("download", "k", &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"})
		assert.ErrorIs(t, err, simpleslots.ErrBlobNotFound)

		var storageErr *simpleslots.StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "s3", storageErr.Backend)
		assert.Equal(t, "download", storageErr.Op)
	})

	t.Run("AccessDenied", func(t *testing.T) {
		apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
		err := mapError("upload", "k", apiErr)
		assert.NotErrorIs(t, err, simpleslots.ErrBlobNotFound)
		assert.ErrorIs(t, err, apiErr)
	})

	t.Run("NotAnAPIError", func(t *testing.T) {
		assert.Equal(t, "", errorCode(errors.New("boom")))
	})
}

// TestS3Backend_Integration runs against a real S3-compatible endpoint
// when S3_TEST_ENDPOINT is set, e.g. a local MinIO.
func TestS3Backend_Integration(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_TEST_ENDPOINT not set")
	}

	backend, err := New(Config{
		Region:                 "us-east-1",
		Bucket:                 "simple-slots-test",
		AccessKeyID:            os.Getenv("S3_TEST_ACCESS_KEY"),
		SecretAccessKey:        os.Getenv("S3_TEST_SECRET_KEY"),
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)

	ctx := context.Background()
	key := "test/" + uuid.NewString()
	data := []byte("[[Color::red]]")

	require.NoError(t, backend.Upload(ctx, key, bytes.NewReader(data)))

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.Size)

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, data, got)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = backend.GetObjectMeta(ctx, key)
	assert.ErrorIs(t, err, simpleslots.ErrBlobNotFound)
}
