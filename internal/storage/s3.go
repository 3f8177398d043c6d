package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
)

// S3DocumentStore 从 S3 兼容存储（AWS S3、Cloudflare R2）读取简历
type S3DocumentStore struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3DocumentStore 创建 S3 客户端
func NewS3DocumentStore(ctx context.Context, cfg *config.S3Config) (*S3DocumentStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("S3配置不能为空")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket 不能为空")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载S3配置失败: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3DocumentStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.Component("storage.s3"),
	}, nil
}

// Name 后端名称
func (s *S3DocumentStore) Name() string { return StoreS3 }

// Fetch 下载对象到临时文件
func (s *S3DocumentStore) Fetch(ctx context.Context, key string) (string, func(), error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", noCleanup, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, s.bucket, key)
		}
		return "", noCleanup, fmt.Errorf("从S3下载文件失败 (%s): %w", key, err)
	}
	defer out.Body.Close()

	path, cleanup, err := spoolToTemp(out.Body, key)
	if err != nil {
		return "", noCleanup, err
	}
	s.logger.Debug().Str("key", key).Str("path", path).Msg("已下载简历文件")
	return path, cleanup, nil
}
