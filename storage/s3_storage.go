package storage

import (
	"bytes"
	"context"
	"io"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"
)

type s3Storage struct {
	Client     *s3.Client
	BucketName string
}

// NewS3Storage keeps every key as an object in bucketName.
func NewS3Storage(client *s3.Client, bucketName string) System {
	return &s3Storage{Client: client, BucketName: bucketName}
}

func (s *s3Storage) GetKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	matched := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.BucketName),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list s3 objects under %s", prefix)
		}
		for _, obj := range page.Contents {
			matched = append(matched, aws.ToString(obj.Key))
		}
	}
	slices.Sort(matched)

	return matched, nil
}

func (s *s3Storage) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.BucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
		ACL:    types.ObjectCannedACLPrivate,
	})
	return errors.Wrapf(err, "can not put %s", key)
}

// s3StreamWriter buffers appended data and uploads the whole object on Close. S3 has no
// append, so the existing object is read first and the new data is added to it.
type s3StreamWriter struct {
	ctx     context.Context
	storage *s3Storage
	key     string
	buf     bytes.Buffer
	closed  bool
}

func (w *s3StreamWriter) Write(data []byte) (int, error) {
	if w.closed {
		return 0, errors.Newf("stream %s is closed", w.key)
	}
	return w.buf.Write(data)
}

func (w *s3StreamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	existing, err := w.storage.Read(w.ctx, w.key)
	if err != nil && !errors.Is(err, ErrDoesNotExist) {
		return err
	}

	_, err = w.storage.Client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.storage.BucketName),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(append(existing, w.buf.Bytes()...)),
	})

	return errors.Wrapf(err, "s3 upload of %s failed", w.key)
}

func (s *s3Storage) BeginStream(ctx context.Context, key string) (StreamWriter, error) {
	return &s3StreamWriter{
		ctx:     ctx,
		storage: s,
		key:     key,
	}, nil
}

func (s *s3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, errors.Wrap(ErrDoesNotExist, key)
		}
		return nil, errors.Wrapf(err, "failed to get object %s", key)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "can not read object %s", key)
	}
	return data, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return errors.Wrapf(err, "can not delete %s", key)
	}
	return nil
}
