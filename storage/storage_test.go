package storage

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// backends returns every storage system that can run here. The S3 backend needs an S3
// compatible endpoint (localstack, minio) named by FREETIME_S3_ENDPOINT with an existing
// "test" bucket.
func backends(t *testing.T) map[string]System {
	t.Helper()
	systems := map[string]System{
		"memory": NewMemoryStorage(),
		"disk":   NewDiskStorage(t.TempDir()),
	}

	endpoint := os.Getenv("FREETIME_S3_ENDPOINT")
	if endpoint == "" {
		return systems
	}
	cfg, err := s3config.LoadDefaultConfig(context.TODO(),
		s3config.WithRegion("us-east-1"),
		s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	systems["s3"] = NewS3Storage(client, "test")
	return systems
}

func TestStreamWrite(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "test_stream"

			stream, err := store.BeginStream(ctx, key)
			require.NoError(t, err)
			n, err := stream.Write([]byte("hello "))
			require.NoError(t, err)
			require.Equal(t, 6, n)
			require.NoError(t, stream.Close())

			stream, err = store.BeginStream(ctx, key)
			require.NoError(t, err)
			_, err = stream.Write([]byte("world"))
			require.NoError(t, err)
			require.NoError(t, stream.Close())

			data, err := store.Read(ctx, key)
			require.NoError(t, err)
			require.Equal(t, []byte("hello world"), data)
		})
	}
}

func TestReadWriteDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Read(ctx, "days/2026-10-17/current")
			require.True(t, errors.Is(err, ErrDoesNotExist))

			require.NoError(t, store.Write(ctx, "days/2026-10-17/current", []byte("a")))
			require.NoError(t, store.Write(ctx, "days/2026-10-17/current", []byte("b")))
			require.NoError(t, store.Write(ctx, "days/2026-10-18/current", []byte("c")))
			require.NoError(t, store.Write(ctx, "other", []byte("d")))

			data, err := store.Read(ctx, "days/2026-10-17/current")
			require.NoError(t, err)
			require.Equal(t, []byte("b"), data)

			keys, err := store.GetKeysWithPrefix(ctx, "days/")
			require.NoError(t, err)
			require.Equal(t, []string{"days/2026-10-17/current", "days/2026-10-18/current"}, keys)

			require.NoError(t, store.Delete(ctx, "days/2026-10-17/current"))
			require.NoError(t, store.Delete(ctx, "days/2026-10-17/current"))
			_, err = store.Read(ctx, "days/2026-10-17/current")
			require.True(t, errors.Is(err, ErrDoesNotExist))
		})
	}
}

func TestMemoryStorageCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	data := []byte("abc")
	require.NoError(t, store.Write(ctx, "k", data))
	data[0] = 'z'

	got, err := store.Read(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
}

func TestDiskStorageMissingBaseDir(t *testing.T) {
	store := NewDiskStorage(t.TempDir() + "/not/there")
	keys, err := store.GetKeysWithPrefix(context.Background(), "days/")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestDiskStorageHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewDiskStorage(t.TempDir())
	require.ErrorIs(t, store.Write(ctx, "k", []byte("x")), context.Canceled)
	_, err := store.Read(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}
