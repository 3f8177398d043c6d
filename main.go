package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"resume-advisor/internal/advisor"
	"resume-advisor/internal/config"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/worker"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Info().Str("service", constants.ServiceName).Str("version", version).Msg("配置加载成功")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}()

	guidance, _, err := advisor.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化模型客户端失败")
	}
	pipeline, err := processor.NewFromConfig(ctx, cfg, guidance)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化分析流水线失败")
	}
	logger.Info().Str("policy", pipeline.PolicyName()).Msg("分析流水线初始化成功")

	mq, err := storage.NewRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化RabbitMQ失败")
	}
	defer mq.Close()

	var opts []worker.Option
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIODocumentStore(ctx, &cfg.MinIO)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化MinIO失败")
		}
		opts = append(opts, worker.WithStore(store))
	}
	if cfg.S3.Bucket != "" {
		store, err := storage.NewS3DocumentStore(ctx, &cfg.S3)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化S3失败")
		}
		opts = append(opts, worker.WithStore(store))
	}
	if cfg.Local.Enabled {
		logger.Info().Str("root", cfg.Local.Root).Msg("已启用本地文件存储")
		opts = append(opts, worker.WithStore(storage.NewLocalDocumentStore(cfg.Local.Root)))
	}
	if len(opts) == 0 {
		logger.Warn().Msg("未配置任何存储后端，所有请求都将失败")
	}
	if cfg.Redis.Address != "" {
		client, err := storage.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			// 缓存不可用时仍可分析
			logger.Warn().Err(err).Msg("连接Redis失败，禁用报告缓存")
		} else {
			defer client.Close()
			opts = append(opts, worker.WithReportCache(storage.NewRedisReportCache(client, cfg.ReportTTL())))
		}
	}

	pool := worker.NewPool(cfg.RabbitMQ, mq, pipeline, opts...)
	if err := pool.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("工作池异常退出")
		os.Exit(1)
	}
	logger.Info().Msg("服务已关闭")
}
