package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
	"github.com/johnquangdev/meeting-segmenter/pkg/runcontext"
)

// MinIOStore keeps checkpoints as objects in a MinIO bucket
type MinIOStore struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ CheckpointStore = (*MinIOStore)(nil)

// NewMinIOStore creates a new MinIO-backed checkpoint store
func NewMinIOStore(ctx context.Context, cfg *config.StorageConfig) (*MinIOStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOStore{
		client: minioClient,
		bucket: cfg.BucketName,
		prefix: cfg.Dir,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

// ensureBucket ensures the bucket exists
func (m *MinIOStore) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (m *MinIOStore) object(key string) string {
	return path.Join(m.prefix, key)
}

func (m *MinIOStore) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !runcontext.IsTransientError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

// Exists stats the object
func (m *MinIOStore) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := m.retry(ctx, func() error {
		_, err := m.client.StatObject(ctx, m.bucket, m.object(key), minio.StatObjectOptions{})
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				found = false
				return nil
			}
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Get downloads a checkpoint, decompressing .zst keys
func (m *MinIOStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := m.retry(ctx, func() error {
		obj, err := m.client.GetObject(ctx, m.bucket, m.object(key), minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer obj.Close()

		b, err := io.ReadAll(obj)
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				return ErrNotFound
			}
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if isCompressed(key) {
		return decompress(bytes.NewReader(data))
	}
	return data, nil
}

// Put uploads a checkpoint, compressing .zst keys
func (m *MinIOStore) Put(ctx context.Context, key string, data []byte) error {
	if isCompressed(key) {
		var err error
		if data, err = compress(data); err != nil {
			return err
		}
	}
	contentType := "application/json"
	if isCompressed(key) {
		contentType = "application/zstd"
	}

	return m.retry(ctx, func() error {
		_, err := m.client.PutObject(ctx, m.bucket, m.object(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return fmt.Errorf("failed to upload checkpoint: %w", err)
		}
		return nil
	})
}
