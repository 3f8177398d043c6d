package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

// TokenBucket 令牌桶限流器，附带指数退避重试
type TokenBucket struct {
	mutex          sync.Mutex
	rate           float64 // 每秒生成的令牌数
	capacity       float64
	tokens         float64
	lastRefillTime time.Time
	retryWaitTime  time.Duration
	maxRetries     int
	retryable      func(error) bool
}

// NewTokenBucket 按每分钟请求数创建限流器，capacity<=0 时取 QPM 的一半
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if qpm <= 0 {
		qpm = 1
	}
	if capacity <= 0 {
		capacity = max(qpm/2, 1)
	}

	return &TokenBucket{
		rate:           float64(qpm) / 60.0,
		capacity:       float64(capacity),
		tokens:         float64(capacity),
		lastRefillTime: time.Now(),
		retryWaitTime:  time.Second,
		maxRetries:     3,
		retryable:      IsRetryableError,
	}
}

// WithRetryPolicy 设置重试等待基数与最大重试次数
func (tb *TokenBucket) WithRetryPolicy(waitTime time.Duration, maxRetries int) *TokenBucket {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.retryWaitTime = waitTime
	tb.maxRetries = maxRetries
	return tb
}

// WithRetryable 替换可重试错误的判定函数
func (tb *TokenBucket) WithRetryable(fn func(error) bool) *TokenBucket {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	if fn != nil {
		tb.retryable = fn
	}
	return tb
}

// refill 调用方需持有锁
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.rate)
}

// Allow 非阻塞地尝试获取一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 阻塞直到获得令牌或上下文结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mutex.Lock()
		tb.refill()
		if tb.tokens >= 1.0 {
			tb.tokens--
			tb.mutex.Unlock()
			return nil
		}
		waitTime := time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mutex.Unlock()

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryWithBackoff 每次尝试前先取令牌，可重试错误按 wait*2^n 退避
func (tb *TokenBucket) RetryWithBackoff(ctx context.Context, fn func() error) error {
	tb.mutex.Lock()
	maxRetries, baseWait, retryable := tb.maxRetries, tb.retryWaitTime, tb.retryable
	tb.mutex.Unlock()

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = tb.Wait(ctx); err != nil {
			return err
		}

		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) || attempt >= maxRetries {
			return err
		}

		backoff := baseWait * time.Duration(1<<uint(attempt))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// StatusCoder 由携带 HTTP 状态码的错误实现
type StatusCoder interface {
	HTTPStatus() int
}

// IsRetryableError 429、5xx、网络超时与常见的瞬时错误可以重试
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatus()
		return code == 429 || code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"eof",
		"too many requests",
		"rate limit",
		"resource_exhausted",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
