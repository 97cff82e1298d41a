package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"fileforge/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioGateway struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       logger.Logger
}

func NewMinioGateway(ctx context.Context, config config.Config) (*MinioGateway, error) {
	log := logger.New("storage").Function("NewMinioGateway")

	if config.StorageEndpoint == "" {
		return nil, log.Error("storage endpoint is empty")
	}
	if config.StorageBucket == "" {
		return nil, log.Error("storage bucket is empty")
	}

	client, err := minio.New(config.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.StorageAccessKey, config.StorageSecretKey, ""),
		Secure: config.StorageUseSSL,
	})
	if err != nil {
		return nil, log.Err("failed to initialize MinIO client", err, "endpoint", config.StorageEndpoint)
	}

	gateway := &MinioGateway{
		client:    client,
		bucket:    config.StorageBucket,
		publicURL: publicBaseURL(config),
		log:       logger.New("minioGateway"),
	}

	if err := gateway.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("Storage gateway ready", "endpoint", config.StorageEndpoint, "bucket", config.StorageBucket)
	return gateway, nil
}

func publicBaseURL(config config.Config) string {
	if config.StoragePublicURL != "" {
		return strings.TrimRight(config.StoragePublicURL, "/")
	}

	scheme := "http"
	if config.StorageUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, config.StorageEndpoint, config.StorageBucket)
}

func (g *MinioGateway) EnsureBucket(ctx context.Context) error {
	log := g.log.Function("EnsureBucket")

	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return log.Err("failed to check bucket existence", err, "bucket", g.bucket)
	}

	if !exists {
		if err := g.client.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{}); err != nil {
			return log.Err("failed to create bucket", err, "bucket", g.bucket)
		}
		log.Info("Created bucket", "bucket", g.bucket)
	}

	return nil
}

func (g *MinioGateway) Put(
	ctx context.Context,
	key string,
	body io.Reader,
	size int64,
	contentType string,
) error {
	log := g.log.Function("Put")

	_, err := g.client.PutObject(ctx, g.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return log.Err("failed to put object", err, "key", key)
	}

	return nil
}

func (g *MinioGateway) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return g.publicURL + "/" + strings.Join(segments, "/")
}

// Remove deletes every key in a single multi-object request.
func (g *MinioGateway) Remove(ctx context.Context, keys []string) error {
	log := g.log.Function("Remove")

	if len(keys) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for _, key := range keys {
			select {
			case objectsCh <- minio.ObjectInfo{Key: key}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var failed []string
	var firstErr error
	for removeErr := range g.client.RemoveObjects(ctx, g.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil {
			failed = append(failed, removeErr.ObjectName)
			if firstErr == nil {
				firstErr = removeErr.Err
			}
		}
	}

	if firstErr != nil {
		return log.Err("failed to remove objects", firstErr, "failedCount", len(failed), "keys", failed)
	}

	if err := ctx.Err(); err != nil {
		return log.Err("object removal interrupted", err, "keyCount", len(keys))
	}

	return nil
}

// Move copies the object to newKey and removes the source. Storage has no
// rename primitive, so a failure after the copy leaves both keys present.
func (g *MinioGateway) Move(ctx context.Context, oldKey string, newKey string) (string, error) {
	log := g.log.Function("Move")

	if oldKey == newKey {
		return newKey, nil
	}

	_, err := g.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: g.bucket, Object: newKey},
		minio.CopySrcOptions{Bucket: g.bucket, Object: oldKey},
	)
	if err != nil {
		return "", log.Err("failed to copy object", err, "oldKey", oldKey, "newKey", newKey)
	}

	if err := g.client.RemoveObject(ctx, g.bucket, oldKey, minio.RemoveObjectOptions{}); err != nil {
		return "", log.Err("failed to remove moved object source", err, "oldKey", oldKey)
	}

	return newKey, nil
}

func (g *MinioGateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, g.log.Function("Exists").Err("failed to stat object", err, "key", key)
}
