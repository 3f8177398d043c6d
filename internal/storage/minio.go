package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
)

// MinIODocumentStore 从 MinIO 存储桶读取原始简历
type MinIODocumentStore struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// NewMinIODocumentStore 创建MinIO客户端并确认存储桶存在
func NewMinIODocumentStore(ctx context.Context, cfg *config.MinIOConfig) (*MinIODocumentStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("MinIO endpoint 和 bucketName 不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶 %s 失败: %w", cfg.BucketName, err)
	}
	if !exists {
		return nil, fmt.Errorf("存储桶 %s 不存在", cfg.BucketName)
	}

	s := &MinIODocumentStore{
		client: client,
		bucket: cfg.BucketName,
		logger: logger.Component("storage.minio"),
	}
	s.logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("MinIO客户端初始化成功")
	return s, nil
}

// Name 后端名称
func (s *MinIODocumentStore) Name() string { return StoreMinIO }

// Fetch 下载对象到临时文件
func (s *MinIODocumentStore) Fetch(ctx context.Context, key string) (string, func(), error) {
	ext := filepath.Ext(key)
	if ext == "" {
		ext = ".pdf"
	}
	f, err := os.CreateTemp("", "resume-*"+ext)
	if err != nil {
		return "", noCleanup, fmt.Errorf("创建临时文件失败: %w", err)
	}
	path := f.Name()
	f.Close()
	cleanup := func() { _ = os.Remove(path) }

	if err := s.client.FGetObject(ctx, s.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		cleanup()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", noCleanup, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, s.bucket, key)
		}
		return "", noCleanup, fmt.Errorf("从MinIO下载文件失败 (%s): %w", key, err)
	}

	s.logger.Debug().Str("key", key).Str("path", path).Msg("已下载简历文件")
	return path, cleanup, nil
}
