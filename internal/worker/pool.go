// Package worker 从消息队列消费分析请求并发布分析结果
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/tracing"
	"resume-advisor/internal/types"
)

// Analyzer 执行一次完整分析
type Analyzer interface {
	Analyze(ctx context.Context, documentPath string, opts ...processor.AnalyzeOption) *types.AnalysisReport
}

// Queue 消费请求并发布结果
type Queue interface {
	Consume(ctx context.Context, queueName string, prefetchCount int) (<-chan storage.Message, error)
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}) error
}

// Pool 固定数量的 goroutine 共享一个消费通道
type Pool struct {
	queue        Queue
	analyzer     Analyzer
	stores       map[string]storage.DocumentStore
	defaultStore string
	cache        storage.ReportCache

	requestQueue string
	exchange     string
	routingKey   string
	prefetch     int
	workers      int

	tracer trace.Tracer
}

// Option 工作池选项
type Option func(*Pool)

// WithStore 注册存储后端，第一个注册的作为默认值
// 未注册任何后端时所有请求都以未知存储失败
func WithStore(store storage.DocumentStore) Option {
	return func(p *Pool) {
		p.stores[store.Name()] = store
		if p.defaultStore == "" {
			p.defaultStore = store.Name()
		}
	}
}

// WithReportCache 启用报告缓存
func WithReportCache(cache storage.ReportCache) Option {
	return func(p *Pool) {
		p.cache = cache
	}
}

// NewPool 创建工作池
func NewPool(cfg config.RabbitMQConfig, queue Queue, analyzer Analyzer, opts ...Option) *Pool {
	p := &Pool{
		queue:        queue,
		analyzer:     analyzer,
		stores:       make(map[string]storage.DocumentStore),
		requestQueue: cfg.RequestQueue,
		exchange:     cfg.ResultExchange,
		routingKey:   cfg.ResultRoutingKey,
		prefetch:     cfg.PrefetchCount,
		workers:      cfg.Workers,
		tracer:       tracing.Tracer("worker"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	return p
}

// Run 阻塞消费直到 ctx 取消或消费通道关闭
func (p *Pool) Run(ctx context.Context) error {
	msgs, err := p.queue.Consume(ctx, p.requestQueue, p.prefetch)
	if err != nil {
		return fmt.Errorf("启动消费者失败: %w", err)
	}

	logger.Info().Int("workers", p.workers).Str("queue", p.requestQueue).Msg("分析工作池已启动")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		worker := i
		g.Go(func() error {
			for msg := range msgs {
				p.handle(gctx, msg)
			}
			logger.Debug().Int("worker", worker).Msg("工作协程退出")
			return nil
		})
	}
	err = g.Wait()
	logger.Info().Msg("分析工作池已停止")
	return err
}

// handle 处理单条消息，只有结果发布失败时重新入队
func (p *Pool) handle(ctx context.Context, msg storage.Message) {
	ctx, span := p.tracer.Start(ctx, "worker.handle", trace.WithAttributes(
		attribute.String("messaging.message_id", msg.ID),
		attribute.String("messaging.destination", p.requestQueue),
	))
	defer span.End()

	var req storage.AnalyzeRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		p.reject(ctx, span, msg, newTaskError("", "decode", ErrInvalidMessage, err))
		return
	}
	if err := req.Validate(); err != nil {
		p.reject(ctx, span, msg, newTaskError(req.RequestID, "validate", ErrInvalidMessage, err))
		return
	}

	ctx = logger.WithRequestID(ctx, req.RequestID)
	log := logger.Ctx(ctx)
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("request.store", req.Store),
		attribute.String("request.object_key", tracing.SafeAttributeValue("request.object_key", req.ObjectKey, tracing.DefaultMaxLength)),
		attribute.String("request.location", tracing.SafeAttributeValue("request.location", req.Location, tracing.DefaultMaxLength)),
	)

	result := p.process(ctx, span, req)
	if err := p.queue.PublishJSON(ctx, p.exchange, p.routingKey, result); err != nil {
		err = newTaskError(req.RequestID, "publish", ErrPublishFailed, err)
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		log.Error().Err(err).Msg("发布分析结果失败，消息重新入队")
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Error().Err(nackErr).Msg("拒绝消息失败")
		}
		return
	}

	if err := msg.Ack(); err != nil {
		log.Error().Err(err).Msg("确认消息失败")
	}
}

func (p *Pool) process(ctx context.Context, span trace.Span, req storage.AnalyzeRequest) storage.AnalyzeResult {
	log := logger.Ctx(ctx)
	result := storage.AnalyzeResult{RequestID: req.RequestID}

	storeName := req.Store
	if storeName == "" {
		storeName = p.defaultStore
	}
	store, ok := p.stores[storeName]
	if !ok {
		err := newTaskError(req.RequestID, "store", ErrUnknownStore, errors.New(storeName))
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		result.Error = err.Error()
		return result
	}

	path, cleanup, err := store.Fetch(ctx, req.ObjectKey)
	if err != nil {
		err = newTaskError(req.RequestID, "fetch", ErrFetchFailed, err)
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		log.Warn().Err(err).Str("key", req.ObjectKey).Msg("获取简历文件失败")
		result.Error = err.Error()
		return result
	}
	defer cleanup()

	fileMD5, md5Err := processor.FileMD5(path)
	if md5Err != nil {
		log.Warn().Err(md5Err).Msg("计算文件MD5失败，跳过缓存")
	}

	if p.cache != nil && md5Err == nil {
		cached, hit, err := p.cache.Get(ctx, fileMD5, req.Location)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRedis)
			log.Warn().Err(err).Msg("读取报告缓存失败，按未命中处理")
		} else if hit {
			log.Info().Str("md5", fileMD5).Msg("命中报告缓存")
			span.SetAttributes(attribute.Bool("report.cached", true))
			// 报告来源以本次请求为准
			hitReport := *cached
			hitReport.Source = req.ObjectKey
			result.Cached = true
			result.Report = &hitReport
			return result
		}
	}

	report := p.analyzer.Analyze(ctx, path,
		processor.WithLocation(req.Location),
		processor.WithSource(req.ObjectKey),
	)
	result.Report = report

	// 不可读文档的报告不缓存，文件修复后可以重新分析
	if p.cache != nil && md5Err == nil && report.DocumentError == "" {
		if err := p.cache.Put(ctx, fileMD5, req.Location, report); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRedis)
			log.Warn().Err(err).Msg("写入报告缓存失败")
		}
	}
	return result
}

// reject 格式错误的消息不重新入队
func (p *Pool) reject(ctx context.Context, span trace.Span, msg storage.Message, err error) {
	tracing.RecordRabbitMQNack(span, msg.ID, err.Error())
	logger.Ctx(ctx).Warn().Err(err).Str("message_id", msg.ID).Msg("丢弃无效消息")
	if nackErr := msg.Nack(false); nackErr != nil {
		logger.Ctx(ctx).Error().Err(nackErr).Msg("拒绝消息失败")
	}
}
