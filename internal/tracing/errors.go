package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 错误分类，写入 span 的 error.type 属性
type ErrorType string

const (
	// ErrorTypeDocument 简历文档无法读取
	ErrorTypeDocument ErrorType = "document"
	// ErrorTypeLLM 建议生成或问答模型错误
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeJobSearch 职位搜索错误
	ErrorTypeJobSearch ErrorType = "job_search"
	// ErrorTypeStorage 对象存储错误
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeRedis Redis错误
	ErrorTypeRedis ErrorType = "redis"
	// ErrorTypeRabbitMQ RabbitMQ错误
	ErrorTypeRabbitMQ ErrorType = "rabbitmq"
	// ErrorTypeValidation 消息或参数校验错误
	ErrorTypeValidation ErrorType = "validation"
)

// RecordError 记录错误并把 span 标记为失败
func RecordError(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}
	span.SetStatus(codes.Error, err.Error())
}

// RecordDegraded 外部协作方降级时只打标记，不把 span 置为失败
func RecordDegraded(span trace.Span, errorType ErrorType, reason string) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Bool("degraded", true),
		attribute.String("degraded.type", string(errorType)),
		attribute.String("degraded.reason", TruncateString(reason, DefaultMaxLength)),
	)
}

// RecordRabbitMQNack 记录消息被拒绝
func RecordRabbitMQNack(span trace.Span, messageID string, reason string) {
	if span == nil {
		return
	}

	errMsg := "message rejected by consumer"
	if reason != "" {
		errMsg = reason
	}

	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeRabbitMQ)),
		attribute.String("error.message", errMsg),
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.error_type", "nack"),
	)
	span.SetStatus(codes.Error, errMsg)
}
