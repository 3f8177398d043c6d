package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"resume-advisor/internal/config"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

// ReportCache 按原始文件MD5和职位搜索地点缓存分析报告
// 报告中的职位列表依赖地点，同一文件不同地点各自缓存
type ReportCache interface {
	// Get 未命中时返回 (nil, false, nil)
	Get(ctx context.Context, fileMD5, location string) (*types.AnalysisReport, bool, error)
	Put(ctx context.Context, fileMD5, location string, report *types.AnalysisReport) error
}

var _ ReportCache = (*RedisReportCache)(nil)

// RedisReportCache 基于 Redis 的报告缓存
type RedisReportCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient 创建带 OpenTelemetry 钩子的 Redis 客户端并检查连接
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}

// NewRedisReportCache 使用已有客户端创建报告缓存，ttl<=0 时用默认值
func NewRedisReportCache(client redis.UniversalClient, ttl time.Duration) *RedisReportCache {
	if ttl <= 0 {
		ttl = constants.DefaultReportTTL
	}
	return &RedisReportCache{
		client: client,
		ttl:    ttl,
		logger: logger.Component("storage.redis"),
	}
}

// reportKey 地点忽略大小写和首尾空白，空地点对应默认地点
func reportKey(fileMD5, location string) string {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		location = constants.DefaultLocationKey
	}
	return fmt.Sprintf(constants.KeyAnalysisReport, fileMD5, location)
}

// Get 读取缓存的报告
func (c *RedisReportCache) Get(ctx context.Context, fileMD5, location string) (*types.AnalysisReport, bool, error) {
	key := reportKey(fileMD5, location)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取报告缓存失败: %w", err)
	}

	var report types.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		// 损坏的缓存按未命中处理，后续 Put 会覆盖
		c.logger.Warn().Err(err).Str("key", tracing.SafeRedisKey(key)).Msg("报告缓存反序列化失败")
		return nil, false, nil
	}
	return &report, true, nil
}

// Put 写入报告并登记MD5
func (c *RedisReportCache) Put(ctx context.Context, fileMD5, location string, report *types.AnalysisReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	pipe := c.client.TxPipeline()
	key := reportKey(fileMD5, location)
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, constants.KeyFileMD5Set, fileMD5)
	pipe.ExpireNX(ctx, constants.KeyFileMD5Set, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入报告缓存失败 (%s): %w", tracing.SafeRedisKey(key), err)
	}
	return nil
}

// Seen 判断文件是否分析过
func (c *RedisReportCache) Seen(ctx context.Context, fileMD5 string) (bool, error) {
	return c.client.SIsMember(ctx, constants.KeyFileMD5Set, fileMD5).Result()
}
