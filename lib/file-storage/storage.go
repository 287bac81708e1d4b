package filestorage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	log "github.com/sirupsen/logrus"

	"onboarding-backend/config"
	"onboarding-backend/models"
)

const opTimeout = 10 * time.Second

// Provider is the document blob store: store bytes, retrieve bytes.
// Calls are synchronous with a bounded timeout and a single retry;
// on failure the caller gets ErrExternalServiceUnavailable and no
// partial state.
type Provider interface {
	Upload(ctx context.Context, key string, body []byte) error
	GetFile(ctx context.Context, key string) ([]byte, error)
	EnsureBucket(ctx context.Context) error
}

var Instance Provider

func NewInstance(s3client *minio.Client) {
	Instance = &impl{
		s3client: s3client,
		bucket:   config.Conf.S3.BucketName,
	}
}

type impl struct {
	s3client *minio.Client
	bucket   string
}

func (i impl) Upload(ctx context.Context, key string, body []byte) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		_, lastErr = i.s3client.PutObject(opCtx, i.bucket, key,
			bytes.NewReader(body), int64(len(body)),
			minio.PutObjectOptions{ContentType: "application/pdf"})
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	log.WithField("key", key).WithError(lastErr).Error("document upload failed")
	return models.ErrExternalServiceUnavailable
}

func (i impl) GetFile(ctx context.Context, key string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		obj, err := i.s3client.GetObject(opCtx, i.bucket, key, minio.GetObjectOptions{})
		if err == nil {
			var body []byte
			body, err = io.ReadAll(obj)
			obj.Close()
			if err == nil {
				cancel()
				return body, nil
			}
		}
		cancel()
		lastErr = err
	}
	log.WithField("key", key).WithError(lastErr).Error("document download failed")
	return nil, models.ErrExternalServiceUnavailable
}

func (i impl) EnsureBucket(ctx context.Context) error {
	exists, err := i.s3client.BucketExists(ctx, i.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return i.s3client.MakeBucket(ctx, i.bucket, minio.MakeBucketOptions{Region: "us-east-1"})
}
