package initializers

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"onboarding-backend/config"
	filestorage "onboarding-backend/lib/file-storage"
)

func InitS3(ctx context.Context) {
	minioClient, err := minio.New(config.Conf.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV2(config.Conf.S3.AccessKeyID, config.Conf.S3.SecretAccessKey, ""),
		Secure: *config.Conf.S3.UseSSL,
	})
	if err != nil {
		log.WithError(err).Error("S3 client initialization failed")
		return
	}
	filestorage.NewInstance(minioClient)
	if err = filestorage.Instance.EnsureBucket(ctx); err != nil {
		log.WithError(err).Error("S3 bucket check failed")
		return
	}
	log.Info("S3 client initialized")
}
