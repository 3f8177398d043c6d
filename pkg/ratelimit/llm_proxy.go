package ratelimit

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RateLimitedChatModel 为聊天模型加上限流与重试
type RateLimitedChatModel struct {
	original    model.ToolCallingChatModel
	rateLimiter *TokenBucket
}

var _ model.ToolCallingChatModel = (*RateLimitedChatModel)(nil)

// NewRateLimitedChatModel 创建限流代理，桶容量为 QPM 的一半
func NewRateLimitedChatModel(original model.ToolCallingChatModel, qpm int) *RateLimitedChatModel {
	return &RateLimitedChatModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2),
	}
}

// WithRetryPolicy 设置重试策略
func (rl *RateLimitedChatModel) WithRetryPolicy(waitTime time.Duration, maxRetries int) *RateLimitedChatModel {
	rl.rateLimiter.WithRetryPolicy(waitTime, maxRetries)
	return rl
}

// Limiter 返回内部限流器
func (rl *RateLimitedChatModel) Limiter() *TokenBucket { return rl.rateLimiter }

// Generate 限流后调用原模型，可重试错误自动重试
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var response *schema.Message
	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var genErr error
		response, genErr = rl.original.Generate(ctx, messages, options...)
		return genErr
	})
	return response, err
}

// Stream 只在建立流之前重试，流建立后的错误由调用方处理
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var streamErr error
		stream, streamErr = rl.original.Stream(ctx, messages, options...)
		return streamErr
	})
	return stream, err
}

// WithTools 新代理与原代理共用同一个限流器
func (rl *RateLimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RateLimitedChatModel{original: newModel, rateLimiter: rl.rateLimiter}, nil
}

// NewLLMWithRateLimit 按模型名查找 QPM 上限（取 90%），找不到时使用 customQPM
func NewLLMWithRateLimit(original model.ToolCallingChatModel, modelName string, limits map[string]int, customQPM int, maxRetries int, retryWaitTime time.Duration) *RateLimitedChatModel {
	qpm := customQPM
	if modelQPM, ok := limits[modelName]; ok && modelQPM > 0 {
		qpm = int(float64(modelQPM) * 0.9)
	}
	if qpm <= 0 {
		qpm = 30
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryWaitTime <= 0 {
		retryWaitTime = time.Second
	}

	return NewRateLimitedChatModel(original, qpm).WithRetryPolicy(retryWaitTime, maxRetries)
}
