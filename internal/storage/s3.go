package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"voicefy/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Store загружает превью в S3-совместимое хранилище (DigitalOcean Spaces, MinIO) с public-read
type S3Store struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

// NewS3Store создает клиент S3
func NewS3Store(cfg config.S3Config, logger *zap.Logger) (*S3Store, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента S3: %w", err)
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL(cfg),
		logger:        logger,
	}, nil
}

// UploadPreview сохраняет объект и возвращает его публичный URL
func (s *S3Store) UploadPreview(ctx context.Context, externalID, filename, contentType string, data []byte) (string, error) {
	key := objectKey(externalID, filename)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentTypeOrDefault(contentType),
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		s.logger.Error("ошибка загрузки файла в S3",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("ошибка загрузки файла: %w", err)
	}

	fileURL := s.publicBaseURL + "/" + key
	s.logger.Info("превью загружено",
		zap.String("external_id", externalID),
		zap.String("url", fileURL),
		zap.Int("size", len(data)))

	return fileURL, nil
}

// splitEndpoint принимает endpoint со схемой или без и возвращает host и признак TLS
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), useSSL
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimRight(endpoint, "/"), useSSL
	}
	return u.Host, u.Scheme == "https"
}

// publicBaseURL по умолчанию использует адрес DigitalOcean Spaces
func publicBaseURL(cfg config.S3Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com", cfg.Bucket, cfg.Region)
}
